package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	t.Run("requires secret", func(t *testing.T) {
		_, err := NewService("", time.Hour)
		assert.Error(t, err)
	})

	t.Run("defaults token expiry", func(t *testing.T) {
		svc, err := NewService("test-secret", 0)
		require.NoError(t, err)
		assert.Equal(t, 24*time.Hour, svc.tokenExpiry)
	})
}

func TestService_TokenRoundTrip(t *testing.T) {
	svc, err := NewService("test-secret", time.Hour)
	require.NoError(t, err)

	userID := uuid.New()
	token, err := svc.GenerateToken(userID, "alice")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "taskmgr-api", claims.Issuer)
}

func TestService_ValidateToken_Failures(t *testing.T) {
	svc, err := NewService("test-secret", time.Hour)
	require.NoError(t, err)

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewService("different-secret", time.Hour)
		require.NoError(t, err)

		token, err := other.GenerateToken(uuid.New(), "alice")
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})

	t.Run("expired token", func(t *testing.T) {
		shortLived, err := NewService("test-secret", time.Nanosecond)
		require.NoError(t, err)

		token, err := shortLived.GenerateToken(uuid.New(), "alice")
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		_, err = svc.ValidateToken(token)
		assert.Error(t, err)
	})
}

func TestService_Passwords(t *testing.T) {
	svc, err := NewService("test-secret", time.Hour)
	require.NoError(t, err)

	t.Run("hash and compare", func(t *testing.T) {
		hash, err := svc.HashPassword("correct horse battery")
		require.NoError(t, err)
		assert.NotEqual(t, "correct horse battery", hash)

		assert.NoError(t, svc.ComparePassword(hash, "correct horse battery"))
		assert.Error(t, svc.ComparePassword(hash, "wrong password"))
	})

	t.Run("short password rejected", func(t *testing.T) {
		_, err := svc.HashPassword("short")
		assert.Error(t, err)
	})
}
