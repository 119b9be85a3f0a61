package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/Prateek-02/ChatterHub/auth"
	"github.com/Prateek-02/ChatterHub/domain"
)

type contextKey string

const userContextKey contextKey = "authenticated-user"

// Authenticator verifies the bearer credential of every request in the
// protected subtree and attaches the resolved user to the context.
func Authenticator(verifier auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				respondError(w, http.StatusUnauthorized, "Not authorized, token missing")
				return
			}

			user, err := verifier.Verify(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Not authorized, token invalid")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// userFrom returns the authenticated user attached by Authenticator.
func userFrom(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(domain.User)
	return user, ok
}

// CORS allows the separately hosted frontend to call the API.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
