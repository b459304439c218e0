package attendance

import (
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/validator"
)

// ========================================
// ATTENDANCE DTOs
// ========================================

type ClockRequest struct {
	UserID  string `json:"user_id"`
	ShiftID string `json:"shift_id"`
}

func (r *ClockRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.UserID) {
		errs = append(errs, validator.ValidationError{
			Field:   "user_id",
			Message: "user_id is required",
		})
	}

	if validator.IsEmpty(r.ShiftID) {
		errs = append(errs, validator.ValidationError{
			Field:   "shift_id",
			Message: "shift_id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}

	return nil
}

type AttendanceResponse struct {
	ID          string   `json:"id,omitempty"`
	ShiftID     string   `json:"shift_id"`
	UserID      string   `json:"user_id"`
	Status      string   `json:"status"`
	TimeIn      *string  `json:"time_in,omitempty"`
	TimeOut     *string  `json:"time_out,omitempty"`
	WorkedHours *float64 `json:"worked_hours,omitempty"`
}

// timePtrToString safely converts a *time.Time to a string.
func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.UTC().Format(time.RFC3339Nano)
	return &format
}

func ToResponse(a Attendance) AttendanceResponse {
	resp := AttendanceResponse{
		ID:      a.ID,
		ShiftID: a.ShiftID,
		UserID:  a.UserID,
		Status:  string(a.Status()),
		TimeIn:  timePtrToString(&a.TimeIn),
		TimeOut: timePtrToString(a.TimeOut),
	}
	if a.Status() == StatusClockedOut {
		hours := a.WorkedHours()
		resp.WorkedHours = &hours
	}
	return resp
}

// NotStartedResponse describes a (user, shift) pair with no attendance yet.
func NotStartedResponse(userID, shiftID string) AttendanceResponse {
	return AttendanceResponse{
		ShiftID: shiftID,
		UserID:  userID,
		Status:  string(StatusNotStarted),
	}
}
