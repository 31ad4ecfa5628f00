package accounts

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskmgr/taskmgr-api/internal/domain/user"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/auth"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/repository"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// RegisterInput carries the fields for a new account.
type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Service handles registration and token issuance.
type Service struct {
	repo repository.UserRepository
	auth *auth.Service
}

func NewService(repo repository.UserRepository, authService *auth.Service) *Service {
	return &Service{repo: repo, auth: authService}
}

// Register creates a user and returns it together with a fresh token.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*user.User, string, error) {
	hash, err := s.auth.HashPassword(input.Password)
	if err != nil {
		return nil, "", err
	}

	u, err := user.NewUser(input.Username, input.Email, input.FirstName, input.LastName, hash)
	if err != nil {
		return nil, "", err
	}

	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, "", ErrUsernameTaken
		}
		return nil, "", fmt.Errorf("creating user: %w", err)
	}

	token, err := s.auth.GenerateToken(u.ID, u.Username)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token: %w", err)
	}

	return u, token, nil
}

// Login verifies credentials and returns a fresh token. Unknown user and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (*user.User, string, error) {
	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("looking up user: %w", err)
	}

	if err := s.auth.ComparePassword(u.PasswordHash, password); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.auth.GenerateToken(u.ID, u.Username)
	if err != nil {
		return nil, "", fmt.Errorf("issuing token: %w", err)
	}

	return u, token, nil
}
