package user

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
)

type userServiceImpl struct {
	userRepo user.UserRepository
}

func NewUserService(userRepo user.UserRepository) user.UserService {
	return &userServiceImpl{userRepo: userRepo}
}

// ListUsers implements user.UserService.
func (s *userServiceImpl) ListUsers(ctx context.Context) ([]user.UserResponse, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	resp := make([]user.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, user.ToResponse(u))
	}
	return resp, nil
}
