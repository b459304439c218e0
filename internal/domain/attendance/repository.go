package attendance

import (
	"context"
)

type AttendanceRepository interface {
	// Create fails with ErrAlreadyClockedIn when a record for (user, shift) exists
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	// GetByUserAndShift returns ErrAttendanceNotFound when nothing was recorded
	GetByUserAndShift(ctx context.Context, userID, shiftID string) (Attendance, error)

	// GetByUserAndShiftForUpdate is GetByUserAndShift holding a row lock until the transaction ends
	GetByUserAndShiftForUpdate(ctx context.Context, userID, shiftID string) (Attendance, error)

	// SetTimeOut closes an open record
	SetTimeOut(ctx context.Context, attendance Attendance) (Attendance, error)

	// ListByShiftIDs returns every record attached to the given shifts
	ListByShiftIDs(ctx context.Context, shiftIDs []string) ([]Attendance, error)
}
