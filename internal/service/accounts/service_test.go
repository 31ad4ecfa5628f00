package accounts

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmgr/taskmgr-api/internal/domain/user"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/auth"
	"github.com/taskmgr/taskmgr-api/internal/infrastructure/repository"
)

type memUserRepo struct {
	byID       map[uuid.UUID]*user.User
	byUsername map[string]*user.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		byID:       map[uuid.UUID]*user.User{},
		byUsername: map[string]*user.User{},
	}
}

func (m *memUserRepo) Create(_ context.Context, u *user.User) error {
	if _, exists := m.byUsername[u.Username]; exists {
		return fmt.Errorf("%w: username %s", repository.ErrDuplicateKey, u.Username)
	}
	cp := *u
	m.byID[u.ID] = &cp
	m.byUsername[u.Username] = &cp
	return nil
}

func (m *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", repository.ErrNotFound, id)
	}
	cp := *u
	return &cp, nil
}

func (m *memUserRepo) GetByUsername(_ context.Context, username string) (*user.User, error) {
	u, ok := m.byUsername[username]
	if !ok {
		return nil, fmt.Errorf("%w: username %s", repository.ErrNotFound, username)
	}
	cp := *u
	return &cp, nil
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	authService, err := auth.NewService("test-secret", time.Hour)
	require.NoError(t, err)
	return NewService(newMemUserRepo(), authService)
}

func TestService_Register(t *testing.T) {
	svc := newTestService(t)

	u, token, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	require.NoError(t, err)

	assert.Equal(t, "alice", u.Username)
	assert.NotEmpty(t, token)
	assert.NotEqual(t, "password123", u.PasswordHash)
}

func TestService_Register_DuplicateUsername(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "password123"})
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "different456"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestService_Register_WeakPassword(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.Register(context.Background(), RegisterInput{Username: "alice", Password: "short"})
	assert.Error(t, err)
}

func TestService_Login(t *testing.T) {
	svc := newTestService(t)

	registered, _, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Password: "password123",
	})
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		u, token, err := svc.Login(context.Background(), "alice", "password123")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, u.ID)
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "alice", "wrongpass99")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user looks identical", func(t *testing.T) {
		_, _, err := svc.Login(context.Background(), "nobody", "password123")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
