package schedule

import (
	"context"
	"time"
)

// ShiftFilter selects shifts whose work date falls in [From, To].
type ShiftFilter struct {
	From   time.Time
	To     time.Time
	UserID *string
}

type ShiftRepository interface {
	// Create stores a new shift and assigns its ID
	Create(ctx context.Context, shift Shift) (Shift, error)

	// GetByID returns ErrShiftNotFound when no shift has the id
	GetByID(ctx context.Context, id string) (Shift, error)

	// ListByDateRange returns shifts ordered by (work_date, start, user_id)
	ListByDateRange(ctx context.Context, filter ShiftFilter) ([]Shift, error)

	// ListByUserAndDate is used for overlap detection
	ListByUserAndDate(ctx context.Context, userID string, workDate time.Time) ([]Shift, error)

	// LockUserDate serializes overlap-check-then-insert for one user and date until the
	// surrounding transaction ends
	LockUserDate(ctx context.Context, userID string, workDate time.Time) error
}
