package httpserver

import (
	"github.com/rx3lixir/golos/internal/db"
	"github.com/rx3lixir/golos/pkg/jwt"
)

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type AuthResponse struct {
	User   *db.User       `json:"user"`
	Tokens *jwt.TokenPair `json:"tokens"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UpdateRecordingRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type RateRequest struct {
	Rating int `json:"rating"`
}
