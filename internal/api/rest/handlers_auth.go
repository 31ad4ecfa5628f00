package rest

import (
	"errors"
	"net/http"

	"github.com/taskmgr/taskmgr-api/internal/domain/user"
	"github.com/taskmgr/taskmgr-api/internal/service/accounts"
)

type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func newUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

type authResponse struct {
	User  userResponse `json:"user"`
	Token string       `json:"token"`
}

// handleRegister creates an account and returns a token.
// POST /api/v1/auth/register
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	u, token, err := h.services.Accounts.Register(r.Context(), accounts.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, accounts.ErrUsernameTaken) {
			writeErrorBody(w, http.StatusConflict, "USERNAME_TAKEN", "username already taken")
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{User: newUserResponse(u), Token: token})
}

// handleLogin verifies credentials and returns a token.
// POST /api/v1/auth/login
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, h.validate, &req) {
		return
	}

	u, token, err := h.services.Accounts.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			writeUnauthorized(w, "invalid username or password")
			return
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{User: newUserResponse(u), Token: token})
}
