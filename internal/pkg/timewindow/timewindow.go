package timewindow

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var (
	ErrInvalidRange     = errors.New("end must be after start")
	ErrInvalidTimeOfDay = errors.New("time must be in HH:MM format")
	ErrInvalidDate      = errors.New("date must be in YYYY-MM-DD format")
	ErrInvalidWeekday   = errors.New("weekday must be between 0 (Monday) and 6 (Sunday)")
)

// TimeOfDay is a wall-clock time with minute precision, stored as minutes after midnight.
type TimeOfDay int

// ParseTimeOfDay parses "HH:MM". "HH:MM:SS" is accepted when the seconds are zero.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	if len(parts) == 3 && parts[2] != "00" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	if len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}

	return TimeOfDay(h*60 + m), nil
}

// MustTimeOfDay is ParseTimeOfDay for literals; it panics on malformed input.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeOfDayFromTime drops the date part of t.
func TimeOfDayFromTime(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Duration returns the offset from midnight.
func (t TimeOfDay) Duration() time.Duration {
	return time.Duration(t) * time.Minute
}

// ParseDate parses an ISO-8601 calendar date into midnight UTC.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// DateOnly truncates t to midnight UTC of its calendar date.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Combine merges a calendar date and a wall-clock time into one instant. No timezone conversion happens;
// both are read as UTC.
func Combine(date time.Time, t TimeOfDay) time.Time {
	return DateOnly(date).Add(t.Duration())
}

// DurationHours returns end-start in fractional hours.
func DurationHours(start, end time.Time) (float64, error) {
	if !end.After(start) {
		return 0, fmt.Errorf("%w: %s >= %s", ErrInvalidRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return end.Sub(start).Hours(), nil
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}

// InDateRange reports whether d falls in [from, to], comparing calendar dates only.
func InDateRange(d, from, to time.Time) bool {
	d = DateOnly(d)
	return !d.Before(DateOnly(from)) && !d.After(DateOnly(to))
}
