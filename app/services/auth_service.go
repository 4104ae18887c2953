package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/folio/app/models"
	"github.com/shashiranjanraj/folio/app/repositories"
	"github.com/shashiranjanraj/folio/pkg/auth"
)

// ErrInvalidCredentials covers both an unknown email and a wrong password.
var ErrInvalidCredentials = errors.New("services: invalid credentials")

// UserFinder looks accounts up by email.
type UserFinder interface {
	FindByEmail(ctx context.Context, email string) (models.User, error)
}

type AuthService struct {
	users  UserFinder
	tokens *auth.Tokens
}

func NewAuthService(users UserFinder, tokens *auth.Tokens) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Login checks the password and returns a signed token for the account.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", models.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", models.User{}, fmt.Errorf("services: login: %w", err)
	}

	if !auth.CheckPassword(user.Password, password) {
		return "", models.User{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID.Hex(), user.Email, user.Role)
	if err != nil {
		return "", models.User{}, fmt.Errorf("services: sign token: %w", err)
	}
	return token, user, nil
}
