package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/timewindow"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/validator"
)

// maxRosterDays bounds roster and calendar queries.
const maxRosterDays = 366

// ========================================
// SINGLE SHIFT
// ========================================

type ScheduleShiftRequest struct {
	UserID   string  `json:"user_id"`
	Date     string  `json:"date"`  // YYYY-MM-DD
	Start    string  `json:"start"` // HH:MM
	End      string  `json:"end"`   // HH:MM
	Role     *string `json:"role,omitempty"`
	Location *string `json:"location,omitempty"`

	// Parsed by Validate
	WorkDate  time.Time            `json:"-"`
	StartTime timewindow.TimeOfDay `json:"-"`
	EndTime   timewindow.TimeOfDay `json:"-"`
}

// Validate checks formats only. A start that is not before end is reported by the scheduler as
// ErrInvalidShift, not as a validation error.
func (r *ScheduleShiftRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	workDate, valid := validator.IsValidDate(r.Date)
	if !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "date",
			Message: "date must be in YYYY-MM-DD format",
		})
	}
	r.WorkDate = workDate

	start, err := timewindow.ParseTimeOfDay(r.Start)
	if err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "start",
			Message: "start must be in HH:MM format",
		})
	}
	r.StartTime = start

	end, err := timewindow.ParseTimeOfDay(r.End)
	if err != nil {
		errs = append(errs, validator.ValidationError{
			Field:   "end",
			Message: "end must be in HH:MM format",
		})
	}
	r.EndTime = end

	errs = append(errs, validateLabels(r.Role, r.Location)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// WEEKLY SCHEDULE
// ========================================

type ScheduleWeekRequest struct {
	UserID       string              `json:"user_id"`
	WeekStart    string              `json:"week_start"`    // YYYY-MM-DD
	DailyWindows map[string][]string `json:"daily_windows"` // "0".."6" (Monday..Sunday) -> ["HH:MM", "HH:MM"]
	Role         *string             `json:"role,omitempty"`
	Location     *string             `json:"location,omitempty"`

	// Parsed by Validate, ordered by weekday
	WeekStartDate time.Time     `json:"-"`
	Windows       []DailyWindow `json:"-"`
}

func (r *ScheduleWeekRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	weekStart, valid := validator.IsValidDate(r.WeekStart)
	if !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "week_start",
			Message: "week_start must be in YYYY-MM-DD format",
		})
	}
	r.WeekStartDate = weekStart

	if len(r.DailyWindows) == 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "daily_windows",
			Message: "daily_windows must contain at least one weekday",
		})
	}

	windows := make([]DailyWindow, 0, len(r.DailyWindows))
	for key, span := range r.DailyWindows {
		field := "daily_windows." + key

		weekday, err := timewindow.ParseWeekday(key)
		if err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: "weekday must be between 0 (Monday) and 6 (Sunday)",
			})
			continue
		}
		if len(span) != 2 {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: "window must be a [start, end] pair",
			})
			continue
		}
		start, startErr := timewindow.ParseTimeOfDay(span[0])
		end, endErr := timewindow.ParseTimeOfDay(span[1])
		if startErr != nil || endErr != nil {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: "window times must be in HH:MM format",
			})
			continue
		}

		windows = append(windows, DailyWindow{Weekday: weekday, Start: start, End: end})
	}
	sort.Slice(windows, func(i, j int) bool { return windows[i].Weekday < windows[j].Weekday })
	r.Windows = windows

	errs = append(errs, validateLabels(r.Role, r.Location)...)

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// ROSTER
// ========================================

type RosterRequest struct {
	Start  string  `json:"start"` // YYYY-MM-DD
	End    string  `json:"end"`   // YYYY-MM-DD
	UserID *string `json:"user_id,omitempty"`

	// Parsed by Validate
	StartDate time.Time `json:"-"`
	EndDate   time.Time `json:"-"`
}

func (r *RosterRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startValid := validator.IsValidDate(r.Start)
	if !startValid {
		errs = append(errs, validator.ValidationError{
			Field:   "start",
			Message: "start must be in YYYY-MM-DD format",
		})
	}

	end, endValid := validator.IsValidDate(r.End)
	if !endValid {
		errs = append(errs, validator.ValidationError{
			Field:   "end",
			Message: "end must be in YYYY-MM-DD format",
		})
	}

	if startValid && endValid {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{
				Field:   "end",
				Message: "end must not be before start",
			})
		} else if end.Sub(start) > maxRosterDays*24*time.Hour {
			errs = append(errs, validator.ValidationError{
				Field:   "end",
				Message: fmt.Sprintf("range must not exceed %d days", maxRosterDays),
			})
		}
	}

	if r.UserID != nil && validator.IsEmpty(*r.UserID) {
		r.UserID = nil
	}

	r.StartDate, r.EndDate = start, end

	if len(errs) > 0 {
		return errs
	}

	return nil
}

// ========================================
// RESPONSES
// ========================================

type ShiftResponse struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	Date           string  `json:"date"`
	Start          string  `json:"start"`
	End            string  `json:"end"`
	Role           *string `json:"role,omitempty"`
	Location       *string `json:"location,omitempty"`
	ScheduledHours float64 `json:"scheduled_hours"`
	CreatedAt      string  `json:"created_at"`
}

type SkippedWindow struct {
	Weekday int    `json:"weekday"`
	Date    string `json:"date"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Reason  string `json:"reason"`
}

type ScheduleWeekResponse struct {
	Created []ShiftResponse `json:"created"`
	Skipped []SkippedWindow `json:"skipped"`
}

// ToResponse maps a stored shift. Stored shifts always have a positive span.
func ToResponse(s Shift) ShiftResponse {
	hours, _ := s.ScheduledHours()
	return ShiftResponse{
		ID:             s.ID,
		UserID:         s.UserID,
		Date:           timewindow.FormatDate(s.WorkDate),
		Start:          s.Start.String(),
		End:            s.End.String(),
		Role:           s.Role,
		Location:       s.Location,
		ScheduledHours: hours,
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
	}
}

func validateLabels(role, location *string) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if role != nil && len(*role) > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "role",
			Message: "role must not exceed 100 characters",
		})
	}
	if location != nil && len(*location) > 255 {
		errs = append(errs, validator.ValidationError{
			Field:   "location",
			Message: "location must not exceed 255 characters",
		})
	}
	return errs
}
