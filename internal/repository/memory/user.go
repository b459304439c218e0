package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
)

type userRepository struct {
	store *Store
}

func NewUserRepository(store *Store) user.UserRepository {
	return &userRepository{store: store}
}

// Create implements user.UserRepository.
func (r *userRepository) Create(ctx context.Context, newUser user.User) (user.User, error) {
	defer r.store.acquire(ctx)()

	for _, u := range r.store.users {
		if u.Username == newUser.Username {
			return user.User{}, user.ErrUsernameExists
		}
	}

	id, err := newID()
	if err != nil {
		return user.User{}, fmt.Errorf("failed to generate user id: %w", err)
	}
	now := r.store.now()
	newUser.ID = id
	newUser.CreatedAt = now
	newUser.UpdatedAt = now
	r.store.users[id] = newUser

	return newUser, nil
}

// GetByID implements user.UserRepository.
func (r *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	defer r.store.acquire(ctx)()

	u, ok := r.store.users[id]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

// GetByUsername implements user.UserRepository.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (user.User, error) {
	defer r.store.acquire(ctx)()

	for _, u := range r.store.users {
		if u.Username == username {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

// Exists implements user.UserRepository.
func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	defer r.store.acquire(ctx)()

	_, ok := r.store.users[id]
	return ok, nil
}

// List implements user.UserRepository.
func (r *userRepository) List(ctx context.Context) ([]user.User, error) {
	defer r.store.acquire(ctx)()

	users := make([]user.User, 0, len(r.store.users))
	for _, u := range r.store.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}
