package auth

import (
	"context"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
)

type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (user.UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)

	// EnsureAdmin creates the admin account when the username is free
	EnsureAdmin(ctx context.Context, username, password string) error
}
