package memory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/timewindow"
)

var errNoTransaction = errors.New("operation requires a transaction")

type shiftRepository struct {
	store *Store
}

func NewShiftRepository(store *Store) schedule.ShiftRepository {
	return &shiftRepository{store: store}
}

// Create implements schedule.ShiftRepository. It enforces the same constraints as the
// shifts table: a positive span, an existing user and a unique (user, date, start).
func (r *shiftRepository) Create(ctx context.Context, shift schedule.Shift) (schedule.Shift, error) {
	defer r.store.acquire(ctx)()

	if shift.Start >= shift.End {
		return schedule.Shift{}, schedule.ErrShiftInvalidSpan
	}
	if _, ok := r.store.users[shift.UserID]; !ok {
		return schedule.Shift{}, user.ErrUserNotFound
	}

	shift.WorkDate = timewindow.DateOnly(shift.WorkDate)
	for _, existing := range r.store.shifts {
		if existing.UserID == shift.UserID && existing.WorkDate.Equal(shift.WorkDate) && existing.Start == shift.Start {
			return schedule.Shift{}, schedule.ErrShiftOverlap
		}
	}

	id, err := newID()
	if err != nil {
		return schedule.Shift{}, fmt.Errorf("failed to generate shift id: %w", err)
	}
	shift.ID = id
	shift.CreatedAt = r.store.now()
	r.store.shifts[id] = shift

	return shift, nil
}

// GetByID implements schedule.ShiftRepository.
func (r *shiftRepository) GetByID(ctx context.Context, id string) (schedule.Shift, error) {
	defer r.store.acquire(ctx)()

	s, ok := r.store.shifts[id]
	if !ok {
		return schedule.Shift{}, schedule.ErrShiftNotFound
	}
	return s, nil
}

// ListByDateRange implements schedule.ShiftRepository.
func (r *shiftRepository) ListByDateRange(ctx context.Context, filter schedule.ShiftFilter) ([]schedule.Shift, error) {
	defer r.store.acquire(ctx)()

	shifts := make([]schedule.Shift, 0)
	for _, s := range r.store.shifts {
		if filter.UserID != nil && s.UserID != *filter.UserID {
			continue
		}
		if timewindow.InDateRange(s.WorkDate, filter.From, filter.To) {
			shifts = append(shifts, s)
		}
	}
	schedule.SortShifts(shifts)
	return shifts, nil
}

// ListByUserAndDate implements schedule.ShiftRepository.
func (r *shiftRepository) ListByUserAndDate(ctx context.Context, userID string, workDate time.Time) ([]schedule.Shift, error) {
	defer r.store.acquire(ctx)()

	day := timewindow.DateOnly(workDate)
	shifts := make([]schedule.Shift, 0)
	for _, s := range r.store.shifts {
		if s.UserID == userID && s.WorkDate.Equal(day) {
			shifts = append(shifts, s)
		}
	}
	schedule.SortShifts(shifts)
	return shifts, nil
}

// LockUserDate implements schedule.ShiftRepository. The transaction already holds the store lock.
func (r *shiftRepository) LockUserDate(ctx context.Context, userID string, workDate time.Time) error {
	if !r.store.inTransaction(ctx) {
		return errNoTransaction
	}
	return nil
}
