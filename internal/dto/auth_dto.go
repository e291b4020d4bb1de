package dto

import (
	"time"

	"github.com/noah-isme/gcc-pulse-api/internal/access"
	"github.com/noah-isme/gcc-pulse-api/internal/models"
)

// SignUpRequest is the payload for creating an account.
type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=128"`
	FullName string `json:"full_name" validate:"max=255"`
	Role     string `json:"role" validate:"omitempty,max=32"`
}

// SignInRequest is the payload for password sign-in.
type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest exchanges a refresh token for a new pair.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       string      `json:"id"`
	Email    string      `json:"email"`
	FullName string      `json:"full_name,omitempty"`
	Role     access.Role `json:"role"`
	Home     string      `json:"home"`
}

// AuthResponse carries the session tokens and the signed-in user.
type AuthResponse struct {
	AccessToken      string       `json:"access_token"`
	RefreshToken     string       `json:"refresh_token"`
	ExpiresAt        time.Time    `json:"expires_at"`
	RefreshExpiresAt time.Time    `json:"refresh_expires_at"`
	User             UserResponse `json:"user"`
}

// NewUserResponse converts a user model into its public view.
func NewUserResponse(user models.User) UserResponse {
	role := access.ParseRole(user.Role)
	return UserResponse{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Role:     role,
		Home:     role.Home(),
	}
}

// NewIdentityResponse builds the session view from a verified identity.
func NewIdentityResponse(identity access.Identity) UserResponse {
	role := access.ParseRole(string(identity.Role))
	return UserResponse{
		ID:    identity.ID,
		Email: identity.Email,
		Role:  role,
		Home:  role.Home(),
	}
}
