package user

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is an account that owns tasks and authenticates with a token.
type User struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`

	// PasswordHash is the bcrypt hash of the user's password. Never
	// serialized.
	PasswordHash string `json:"-"`

	CreatedAt time.Time `json:"created_at"`
}

const maxUsernameLength = 150

// NewUser creates a user with an already-hashed password.
func NewUser(username, email, firstName, lastName, passwordHash string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, fmt.Errorf("username cannot be empty")
	}

	if len(username) > maxUsernameLength {
		return nil, fmt.Errorf("username cannot exceed %d characters", maxUsernameLength)
	}

	if passwordHash == "" {
		return nil, fmt.Errorf("password hash cannot be empty")
	}

	return &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}, nil
}
