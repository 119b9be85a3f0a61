package services

import (
	stderrors "errors"
	"fmt"
	"time"

	"github.com/Prateek-02/ChatterHub/auth"
	"github.com/Prateek-02/ChatterHub/domain"
	"github.com/Prateek-02/ChatterHub/errors"
	"github.com/Prateek-02/ChatterHub/repositories"
)

type IAuthService interface {
	Register(username, email, password string) (Token, domain.User, error)
	Login(username, email, password string) (Token, domain.User, error)
}

type Token string

type AuthService struct {
	users         repositories.IUserRepository
	secret        []byte
	tokenDuration time.Duration
}

func NewAuthService(users repositories.IUserRepository, secret []byte, tokenDuration time.Duration) *AuthService {
	return &AuthService{users: users, secret: secret, tokenDuration: tokenDuration}
}

func (s *AuthService) Register(username, email, password string) (Token, domain.User, error) {
	req := auth.RegisterRequest{Username: username, Email: email, Password: password}

	// Validate business rules before any expensive cryptographic work.
	if err := auth.ValidateRegister(req); err != nil {
		if stderrors.Is(err, errors.ErrInvalidPassword) {
			return "", domain.User{}, err
		}
		return "", domain.User{}, fmt.Errorf("%w: %v", errors.ErrInvalidPassword, err)
	}

	// Hashing happens here so the repository never sees plain passwords.
	hashed, err := auth.HashPassword(password)
	if err != nil {
		return "", domain.User{}, fmt.Errorf("hashing failed: %w", err)
	}

	stored, err := s.users.CreateUser(username, email, hashed)
	if err != nil {
		return "", domain.User{}, err // propagates ErrUserAlreadyExists
	}

	return s.issue(stored)
}

func (s *AuthService) Login(username, email, password string) (Token, domain.User, error) {
	req := auth.LoginRequest{Username: username, Email: email, Password: password}
	if err := auth.ValidateLogin(req); err != nil {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	var stored repositories.User
	var err error
	if email != "" {
		stored, err = s.users.GetUserByEmail(email)
	} else {
		stored, err = s.users.GetUserByUsername(username)
	}
	if err != nil {
		// Generic error to prevent user enumeration.
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	match, err := auth.ComparePassword(password, stored.PasswordHash)
	if err != nil || !match {
		return "", domain.User{}, errors.ErrInvalidCredentials
	}

	return s.issue(stored)
}

func (s *AuthService) issue(stored repositories.User) (Token, domain.User, error) {
	token, err := auth.GenerateToken(stored.ID, s.secret, s.tokenDuration)
	if err != nil {
		return "", domain.User{}, errors.ErrTokenGeneration
	}
	user := domain.User{
		ID:        stored.ID,
		Username:  stored.Username,
		Email:     stored.Email,
		CreatedAt: stored.CreatedAt,
	}
	return Token(token), user, nil
}
