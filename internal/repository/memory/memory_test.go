package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/timewindow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, store *Store, username string) user.User {
	t.Helper()
	u, err := NewUserRepository(store).Create(context.Background(), user.User{
		Username: username,
		Role:     user.RoleStaff,
	})
	require.NoError(t, err)
	return u
}

func newShift(userID, start, end string) schedule.Shift {
	return schedule.Shift{
		UserID:   userID,
		WorkDate: day,
		Start:    timewindow.MustTimeOfDay(start),
		End:      timewindow.MustTimeOfDay(end),
	}
}

func TestUserRepository(t *testing.T) {
	store := NewStore()
	repo := NewUserRepository(store)
	ctx := context.Background()

	alice := seedUser(t, store, "alice")
	seedUser(t, store, "aaron")

	_, err := repo.Create(ctx, user.User{Username: "alice"})
	assert.ErrorIs(t, err, user.ErrUsernameExists)

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	exists, err := repo.Exists(ctx, alice.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "aaron", users[0].Username)
}

func TestShiftRepository_Constraints(t *testing.T) {
	store := NewStore()
	repo := NewShiftRepository(store)
	ctx := context.Background()
	alice := seedUser(t, store, "alice")

	created, err := repo.Create(ctx, newShift(alice.ID, "09:00", "17:00"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)

	_, err = repo.Create(ctx, newShift(alice.ID, "09:00", "10:00"))
	assert.ErrorIs(t, err, schedule.ErrShiftOverlap)

	_, err = repo.Create(ctx, newShift(alice.ID, "18:00", "18:00"))
	assert.ErrorIs(t, err, schedule.ErrShiftInvalidSpan)

	_, err = repo.Create(ctx, newShift("ghost", "09:00", "10:00"))
	assert.ErrorIs(t, err, user.ErrUserNotFound)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, schedule.ErrShiftNotFound)
}

func TestShiftRepository_ListByDateRangeOrdering(t *testing.T) {
	store := NewStore()
	repo := NewShiftRepository(store)
	ctx := context.Background()
	alice := seedUser(t, store, "alice")
	bob := seedUser(t, store, "bob")

	next := newShift(alice.ID, "08:00", "09:00")
	next.WorkDate = day.AddDate(0, 0, 1)
	outside := newShift(alice.ID, "08:00", "09:00")
	outside.WorkDate = day.AddDate(0, 0, 7)

	for _, s := range []schedule.Shift{next, outside, newShift(bob.ID, "13:00", "17:00"), newShift(alice.ID, "09:00", "12:00")} {
		_, err := repo.Create(ctx, s)
		require.NoError(t, err)
	}

	shifts, err := repo.ListByDateRange(ctx, schedule.ShiftFilter{From: day, To: day.AddDate(0, 0, 6)})
	require.NoError(t, err)
	require.Len(t, shifts, 3)
	assert.Equal(t, "09:00", shifts[0].Start.String())
	assert.Equal(t, "13:00", shifts[1].Start.String())
	assert.True(t, shifts[2].WorkDate.Equal(day.AddDate(0, 0, 1)))

	shifts, err = repo.ListByDateRange(ctx, schedule.ShiftFilter{From: day, To: day, UserID: &bob.ID})
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, bob.ID, shifts[0].UserID)
}

func TestStore_WithinTransactionRollsBack(t *testing.T) {
	store := NewStore()
	repo := NewShiftRepository(store)
	ctx := context.Background()
	alice := seedUser(t, store, "alice")

	boom := errors.New("boom")
	err := store.WithinTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.LockUserDate(ctx, alice.ID, day))
		_, err := repo.Create(ctx, newShift(alice.ID, "09:00", "17:00"))
		require.NoError(t, err)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	shifts, err := repo.ListByUserAndDate(ctx, alice.ID, day)
	require.NoError(t, err)
	assert.Empty(t, shifts)
}

func TestShiftRepository_LockUserDateRequiresTransaction(t *testing.T) {
	store := NewStore()
	err := NewShiftRepository(store).LockUserDate(context.Background(), "u", day)
	assert.Error(t, err)
}

func TestAttendanceRepository_ConcurrentCreate(t *testing.T) {
	store := NewStore()
	repo := NewAttendanceRepository(store)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Create(ctx, attendance.Attendance{UserID: "u1", ShiftID: "s1", TimeIn: day})
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, attendance.ErrAlreadyClockedIn)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
}

func TestAttendanceRepository_SetTimeOut(t *testing.T) {
	store := NewStore()
	repo := NewAttendanceRepository(store)
	ctx := context.Background()

	created, err := repo.Create(ctx, attendance.Attendance{UserID: "u1", ShiftID: "s1", TimeIn: day.Add(9 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusClockedIn, created.Status())

	_, err = repo.GetByUserAndShiftForUpdate(ctx, "u1", "s1")
	assert.Error(t, err, "row lock outside a transaction")

	out := day.Add(17 * time.Hour)
	created.TimeOut = &out
	closed, err := repo.SetTimeOut(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusClockedOut, closed.Status())
	assert.InDelta(t, 8.0, closed.WorkedHours(), 1e-9)

	_, err = repo.SetTimeOut(ctx, created)
	assert.ErrorIs(t, err, attendance.ErrAlreadyClockedOut)

	records, err := repo.ListByShiftIDs(ctx, []string{"s1", "s2"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
}
