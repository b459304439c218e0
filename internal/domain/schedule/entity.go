package schedule

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/timewindow"
)

// Shift is a scheduled work interval for one user on one date. Shifts are immutable once stored.
type Shift struct {
	ID        string
	UserID    string
	WorkDate  time.Time // midnight UTC
	Start     timewindow.TimeOfDay
	End       timewindow.TimeOfDay
	Role      *string
	Location  *string
	CreatedAt time.Time
}

func (s Shift) StartsAt() time.Time {
	return timewindow.Combine(s.WorkDate, s.Start)
}

func (s Shift) EndsAt() time.Time {
	return timewindow.Combine(s.WorkDate, s.End)
}

// ScheduledHours fails with timewindow.ErrInvalidRange for a span that is not positive.
func (s Shift) ScheduledHours() (float64, error) {
	return timewindow.DurationHours(s.StartsAt(), s.EndsAt())
}

// ConflictsWith reports whether both shifts belong to the same user and date and their spans intersect.
func (s Shift) ConflictsWith(other Shift) bool {
	if s.UserID != other.UserID || !timewindow.DateOnly(s.WorkDate).Equal(timewindow.DateOnly(other.WorkDate)) {
		return false
	}
	return timewindow.Overlaps(s.Start, s.End, other.Start, other.End)
}

// DailyWindow is one validated entry of a weekly availability pattern.
type DailyWindow struct {
	Weekday timewindow.Weekday
	Start   timewindow.TimeOfDay
	End     timewindow.TimeOfDay
}

// SortShifts orders shifts by (work_date, start, user_id), the order used by rosters and reports.
func SortShifts(shifts []Shift) {
	sort.SliceStable(shifts, func(i, j int) bool {
		a, b := shifts[i], shifts[j]
		if !a.WorkDate.Equal(b.WorkDate) {
			return a.WorkDate.Before(b.WorkDate)
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.UserID != b.UserID {
			return a.UserID < b.UserID
		}
		return a.ID < b.ID
	})
}
