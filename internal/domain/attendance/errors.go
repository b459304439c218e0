package attendance

import "errors"

// Attendance domain errors
var (
	ErrUserMismatch       = errors.New("shift belongs to another user")
	ErrAlreadyClockedIn   = errors.New("already clocked in for this shift")
	ErrAttendanceNotFound = errors.New("no clock-in recorded for this shift")
	ErrAlreadyClockedOut  = errors.New("already clocked out of this shift")
)
