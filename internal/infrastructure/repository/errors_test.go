package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsDuplicateKeyViolation(t *testing.T) {
	assert.False(t, IsDuplicateKeyViolation(nil))
	assert.False(t, IsDuplicateKeyViolation(errors.New("some other error")))

	assert.True(t, IsDuplicateKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, IsDuplicateKeyViolation(&pgconn.PgError{Code: "23503"}))

	t.Run("wrapped pg error", func(t *testing.T) {
		err := fmt.Errorf("inserting user: %w", &pgconn.PgError{Code: "23505"})
		assert.True(t, IsDuplicateKeyViolation(err))
	})

	t.Run("string fallback", func(t *testing.T) {
		assert.True(t, IsDuplicateKeyViolation(errors.New(`pq: duplicate key value violates unique constraint "users_username_key"`)))
	})
}

func TestIsForeignKeyViolation(t *testing.T) {
	assert.False(t, IsForeignKeyViolation(nil))
	assert.True(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsForeignKeyViolation(&pgconn.PgError{Code: "23505"}))
	assert.True(t, IsForeignKeyViolation(errors.New(`insert or update on table "tasks" violates foreign key constraint`)))
}
