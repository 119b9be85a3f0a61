package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Prateek-02/ChatterHub/domain"
	"github.com/Prateek-02/ChatterHub/errors"
	"github.com/Prateek-02/ChatterHub/services"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

// stubAuthService avoids the cost of real hashing in handler tests.
type stubAuthService struct {
	token services.Token
	user  domain.User
	err   error
}

func (s *stubAuthService) Register(username, email, password string) (services.Token, domain.User, error) {
	return s.token, s.user, s.err
}

func (s *stubAuthService) Login(username, email, password string) (services.Token, domain.User, error) {
	return s.token, s.user, s.err
}

func newAuthRouter(svc services.IAuthService) http.Handler {
	r := chi.NewRouter()
	handler := NewAuthHandler(svc, slog.Default())
	handler.RegisterRoutes(r)
	handler.RegisterProtectedRoutes(r)
	return r
}

func TestAuthHandler_Register(t *testing.T) {
	alice := domain.User{ID: "alice-id", Username: "alice", Email: "alice@example.com", CreatedAt: time.Now().UTC()}
	body := `{"username":"alice","email":"alice@example.com","password":"Secret123456"}`

	t.Run("should answer 201 with token and public user", func(t *testing.T) {
		req := require.New(t)
		router := newAuthRouter(&stubAuthService{token: "jwt-token", user: alice})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

		req.Equal(http.StatusCreated, rec.Code)
		var resp struct {
			Token string            `json:"token"`
			User  domain.PublicUser `json:"user"`
		}
		req.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
		req.Equal("jwt-token", resp.Token)
		req.Equal("alice", resp.User.Username)
		req.NotContains(rec.Body.String(), "password")
	})

	t.Run("should answer 400 on duplicate account", func(t *testing.T) {
		req := require.New(t)
		router := newAuthRouter(&stubAuthService{err: errors.ErrUserAlreadyExists})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

		req.Equal(http.StatusBadRequest, rec.Code)
		req.Contains(rec.Body.String(), "already exists")
	})

	t.Run("should answer 400 on weak password", func(t *testing.T) {
		req := require.New(t)
		router := newAuthRouter(&stubAuthService{err: errors.ErrInvalidPassword})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body)))

		req.Equal(http.StatusBadRequest, rec.Code)
	})

	t.Run("should answer 400 on malformed body", func(t *testing.T) {
		req := require.New(t)
		router := newAuthRouter(&stubAuthService{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader("{not json")))

		req.Equal(http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_Login(t *testing.T) {
	alice := domain.User{ID: "alice-id", Username: "alice", Email: "alice@example.com"}
	body := `{"email":"alice@example.com","password":"Secret123456"}`

	t.Run("should answer 200 with token", func(t *testing.T) {
		req := require.New(t)
		router := newAuthRouter(&stubAuthService{token: "jwt-token", user: alice})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

		req.Equal(http.StatusOK, rec.Code)
		req.Contains(rec.Body.String(), "jwt-token")
	})

	t.Run("should answer 400 on invalid credentials", func(t *testing.T) {
		req := require.New(t)
		router := newAuthRouter(&stubAuthService{err: errors.ErrInvalidCredentials})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))

		req.Equal(http.StatusBadRequest, rec.Code)
		req.Contains(rec.Body.String(), "Invalid credentials")
	})
}

func TestAuthHandler_Me(t *testing.T) {
	req := require.New(t)
	alice := domain.User{ID: "alice-id", Username: "alice", Email: "alice@example.com"}
	router := newAuthRouter(&stubAuthService{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withUser(httptest.NewRequest(http.MethodGet, "/auth/me", nil), alice))

	req.Equal(http.StatusOK, rec.Code)
	var user domain.PublicUser
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &user))
	req.Equal("alice-id", user.ID)
}
