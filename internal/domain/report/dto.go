package report

import (
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/validator"
)

// ========================================
// WEEKLY REPORT
// ========================================

type WeeklyReportRequest struct {
	WeekStart string `json:"week_start"` // YYYY-MM-DD

	// Parsed by Validate
	WeekStartDate time.Time `json:"-"`
}

func (r *WeeklyReportRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.WeekStart) {
		errs = append(errs, validator.ValidationError{
			Field:   "week_start",
			Message: "week_start is required",
		})
	} else if weekStart, valid := validator.IsValidDate(r.WeekStart); !valid {
		errs = append(errs, validator.ValidationError{
			Field:   "week_start",
			Message: "week_start must be in YYYY-MM-DD format",
		})
	} else {
		r.WeekStartDate = weekStart
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// WeeklyReport reconciles scheduled and worked hours for [WeekStart, WeekEnd].
type WeeklyReport struct {
	WeekStart     string                `json:"week_start"`
	WeekEnd       string                `json:"week_end"`
	GeneratedAt   string                `json:"generated_at"`
	TotalsPerUser map[string]UserTotals `json:"totals_per_user"`
	Shifts        []ShiftCoverage       `json:"shifts"`
}

type UserTotals struct {
	ScheduledHours float64 `json:"scheduled_hours"`
	WorkedHours    float64 `json:"worked_hours"`
	ShiftCount     int     `json:"shift_count"`

	// IncompleteShifts counts shifts clocked in but never clocked out; they add nothing to WorkedHours.
	IncompleteShifts int `json:"incomplete_shifts"`
}

type ShiftCoverage struct {
	ShiftID        string  `json:"shift_id"`
	UserID         string  `json:"user_id"`
	Date           string  `json:"date"`
	ScheduledStart string  `json:"scheduled_start"`
	ScheduledEnd   string  `json:"scheduled_end"`
	ScheduledHours float64 `json:"scheduled_hours"`
	Status         string  `json:"status"` // not_started, clocked_in, clocked_out
	ActualIn       *string `json:"actual_in"`
	ActualOut      *string `json:"actual_out"`
	WorkedHours    float64 `json:"worked_hours"`
	Role           *string `json:"role,omitempty"`
	Location       *string `json:"location,omitempty"`
}
