// Package http wires the REST surface and the websocket endpoint onto a
// chi router. Account routes are public; everything else sits behind the
// bearer-token authenticator.
package http

import (
	"log/slog"
	"net/http"

	"github.com/Prateek-02/ChatterHub/auth"
	"github.com/Prateek-02/ChatterHub/observability"
	"github.com/Prateek-02/ChatterHub/realtime"
	"github.com/Prateek-02/ChatterHub/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type RouterDeps struct {
	Verifier    auth.Verifier
	AuthService services.IAuthService
	UserService services.IUserService
	ChatService services.IChatService
	Realtime    *realtime.Manager
	Monitor     *observability.Monitor
	Log         *slog.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	authHandler := NewAuthHandler(deps.AuthService, deps.Log)
	messageHandler := NewMessageHandler(deps.ChatService, deps.Log)
	userHandler := NewUserHandler(deps.UserService, deps.Realtime.OnlineUsers, deps.Log)
	wsHandler := realtime.NewWSHandler(deps.Realtime, deps.Log)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, deps.Monitor.Snapshot())
	})

	// The websocket handshake does its own credential check, so the
	// route stays outside the Authenticator subtree.
	wsHandler.RegisterRoutes(r)

	r.Route("/api", func(api chi.Router) {
		authHandler.RegisterRoutes(api)

		api.Group(func(protected chi.Router) {
			protected.Use(Authenticator(deps.Verifier))
			authHandler.RegisterProtectedRoutes(protected)
			userHandler.RegisterRoutes(protected)
			messageHandler.RegisterRoutes(protected)
		})
	})

	return r
}
