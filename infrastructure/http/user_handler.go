package http

import (
	"log/slog"
	"net/http"

	"github.com/Prateek-02/ChatterHub/services"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	users  services.IUserService
	online func() []string
	log    *slog.Logger
}

// NewUserHandler serves the contact list and the online snapshot.
// online reports the distinct online user ids (nil disables the route).
func NewUserHandler(users services.IUserService, online func() []string, log *slog.Logger) *UserHandler {
	return &UserHandler{users: users, online: online, log: log}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/users", h.handleList)
	if h.online != nil {
		r.Get("/users/online", h.handleOnline)
	}
}

// handleList returns every user except the caller, sorted by username.
func (h *UserHandler) handleList(w http.ResponseWriter, r *http.Request) {
	caller, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}

	users, err := h.users.ListOthers(caller.ID)
	if err != nil {
		h.log.Error("user list failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *UserHandler) handleOnline(w http.ResponseWriter, r *http.Request) {
	online := h.online()
	if online == nil {
		online = []string{}
	}
	respondJSON(w, http.StatusOK, online)
}
