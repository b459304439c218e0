package user

import (
	"context"
)

// UserRepository is the identity collaborator of the roster core. The core only checks that
// referenced users exist.
type UserRepository interface {
	Create(ctx context.Context, newUser User) (User, error)
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context) ([]User, error)
}
