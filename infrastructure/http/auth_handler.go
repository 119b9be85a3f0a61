package http

import (
	"encoding/json"
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/Prateek-02/ChatterHub/domain"
	"github.com/Prateek-02/ChatterHub/errors"
	"github.com/Prateek-02/ChatterHub/services"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	auth services.IAuthService
	log  *slog.Logger
}

func NewAuthHandler(auth services.IAuthService, log *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
}

// RegisterProtectedRoutes mounts the routes that require a credential.
func (h *AuthHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Get("/auth/me", h.handleMe)
}

type credentialsRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string            `json:"token"`
	User  domain.PublicUser `json:"user"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := h.auth.Register(req.Username, req.Email, req.Password)
	switch {
	case err == nil:
		respondJSON(w, http.StatusCreated, authResponse{Token: string(token), User: user.Public()})
	case stderrors.Is(err, errors.ErrUserAlreadyExists):
		respondError(w, http.StatusBadRequest, "Username or email already exists")
	case stderrors.Is(err, errors.ErrInvalidPassword):
		respondError(w, http.StatusBadRequest, "Username, email, and a stronger password are required")
	default:
		h.log.Error("register failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Server error")
	}
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := h.auth.Login(req.Username, req.Email, req.Password)
	switch {
	case err == nil:
		respondJSON(w, http.StatusOK, authResponse{Token: string(token), User: user.Public()})
	case stderrors.Is(err, errors.ErrInvalidCredentials):
		respondError(w, http.StatusBadRequest, "Invalid credentials")
	default:
		h.log.Error("login failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Server error")
	}
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	respondJSON(w, http.StatusOK, user.Public())
}
