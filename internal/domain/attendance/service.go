package attendance

import (
	"context"
)

// AttendanceService records clock-in/clock-out transitions against shifts
type AttendanceService interface {
	// ClockIn moves (user, shift) from not_started to clocked_in
	ClockIn(ctx context.Context, req ClockRequest) (AttendanceResponse, error)

	// ClockOut moves (user, shift) from clocked_in to clocked_out
	ClockOut(ctx context.Context, req ClockRequest) (AttendanceResponse, error)

	// GetAttendance reports the current state for (user, shift)
	GetAttendance(ctx context.Context, req ClockRequest) (AttendanceResponse, error)
}
