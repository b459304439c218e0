package attendance

import (
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/timewindow"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusClockedIn  Status = "clocked_in"
	StatusClockedOut Status = "clocked_out"
)

// Attendance records the actual clock-in/out against one shift. At most one exists per (user, shift).
type Attendance struct {
	ID        string
	ShiftID   string
	UserID    string
	TimeIn    time.Time
	TimeOut   *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (a *Attendance) Status() Status {
	if a == nil {
		return StatusNotStarted
	}
	if a.TimeOut == nil {
		return StatusClockedIn
	}
	return StatusClockedOut
}

// WorkedHours is zero until the attendance is clocked out.
func (a *Attendance) WorkedHours() float64 {
	if a.Status() != StatusClockedOut {
		return 0
	}
	hours, err := timewindow.DurationHours(a.TimeIn, *a.TimeOut)
	if err != nil {
		return 0
	}
	return hours
}
