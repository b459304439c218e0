package user

import (
	"context"
	"testing"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/roster-backend-go/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListUsers(t *testing.T) {
	repo := memory.NewUserRepository(memory.NewStore())
	ctx := context.Background()

	for _, name := range []string{"zoe", "adam"} {
		_, err := repo.Create(ctx, user.User{Username: name, PasswordHash: "secret", Role: user.RoleStaff})
		require.NoError(t, err)
	}

	users, err := NewUserService(repo).ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "adam", users[0].Username)
	assert.Equal(t, "staff", users[1].Role)
}
