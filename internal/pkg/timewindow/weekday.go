package timewindow

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Weekday counts from Monday, unlike time.Weekday.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func (w Weekday) Valid() bool {
	return w >= Monday && w <= Sunday
}

func (w Weekday) String() string {
	if !w.Valid() {
		return "Weekday(" + strconv.Itoa(int(w)) + ")"
	}
	return weekdayNames[w]
}

// ParseWeekday accepts the index form ("0".."6") used by schedule requests.
func ParseWeekday(s string) (Weekday, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !Weekday(n).Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, s)
	}
	return Weekday(n), nil
}

// WeekdayOf maps a date to its Monday-based weekday.
func WeekdayOf(t time.Time) Weekday {
	return Weekday((int(t.Weekday()) + 6) % 7)
}

// DateIn returns the date of weekday w in the week that starts at weekStart.
func (w Weekday) DateIn(weekStart time.Time) time.Time {
	return DateOnly(weekStart).AddDate(0, 0, int(w))
}

// WeekEnd is the last day of the 7-day window starting at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return DateOnly(weekStart).AddDate(0, 0, 6)
}
