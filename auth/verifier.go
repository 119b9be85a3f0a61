//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=../mocks/mock_verifier.go -package=mocks
package auth

import (
	"fmt"
	"time"

	"github.com/Prateek-02/ChatterHub/domain"
	"github.com/Prateek-02/ChatterHub/errors"
	"github.com/Prateek-02/ChatterHub/repositories"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Verifier resolves a bearer credential to a user identity.
// It is transport-agnostic: the HTTP middleware and the websocket
// handshake both rely on it.
type Verifier interface {
	Verify(token string) (domain.User, error)
}

type cachedIdentity struct {
	user      domain.User
	expiresAt time.Time
}

// JWTVerifier validates HS256 tokens and resolves the embedded user id
// against the user repository. Resolved identities are kept in a bounded
// LRU keyed by the raw token, so repeated requests with the same token
// skip the store lookup until the token expires.
type JWTVerifier struct {
	secret []byte
	users  repositories.IUserRepository
	cache  *lru.Cache[string, cachedIdentity]
}

func NewJWTVerifier(secret []byte, users repositories.IUserRepository, cacheSize int) (*JWTVerifier, error) {
	cache, err := lru.New[string, cachedIdentity](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("auth cache init: %w", err)
	}
	return &JWTVerifier{secret: secret, users: users, cache: cache}, nil
}

func (v *JWTVerifier) Verify(token string) (domain.User, error) {
	if token == "" {
		return domain.User{}, errors.ErrMissingToken
	}

	if entry, ok := v.cache.Get(token); ok {
		if time.Now().Before(entry.expiresAt) {
			return entry.user, nil
		}
		v.cache.Remove(token)
	}

	claims, err := ValidateToken(token, v.secret)
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}

	stored, err := v.users.GetUserByID(claims.UserID)
	if err != nil {
		// Token may be valid but reference a deleted account.
		return domain.User{}, errors.ErrInvalidToken
	}

	user := domain.User{
		ID:        stored.ID,
		Username:  stored.Username,
		Email:     stored.Email,
		CreatedAt: stored.CreatedAt,
	}
	if claims.ExpiresAt != nil {
		v.cache.Add(token, cachedIdentity{user: user, expiresAt: claims.ExpiresAt.Time})
	}
	return user, nil
}
