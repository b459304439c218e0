package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/timewindow"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth domain errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		Unauthorized(w, "Invalid username or password")
	case errors.Is(err, auth.ErrInvalidToken):
		Unauthorized(w, "Invalid or expired token")

	// User domain errors
	case errors.Is(err, user.ErrUserNotFound):
		NotFound(w, "User not found")
	case errors.Is(err, user.ErrUsernameExists):
		Conflict(w, "Username already registered")
	case errors.Is(err, user.ErrAdminPrivilegeRequired):
		Forbidden(w, "Admin privilege required")

	// Schedule domain errors
	case errors.Is(err, schedule.ErrShiftNotFound):
		NotFound(w, "Shift not found")
	case errors.Is(err, schedule.ErrShiftInvalidSpan):
		UnprocessableEntity(w, "INVALID_SHIFT", "Shift start must be before end")
	case errors.Is(err, schedule.ErrShiftOverlap):
		UnprocessableEntity(w, "INVALID_SHIFT", "Shift overlaps an existing shift for this user and date")
	case errors.Is(err, schedule.ErrInvalidShift):
		UnprocessableEntity(w, "INVALID_SHIFT", "Invalid shift")

	// Attendance domain errors
	case errors.Is(err, attendance.ErrUserMismatch):
		Forbidden(w, "Shift belongs to another user")
	case errors.Is(err, attendance.ErrAlreadyClockedIn):
		Conflict(w, "Already clocked in for this shift")
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "No clock-in recorded for this shift")
	case errors.Is(err, attendance.ErrAlreadyClockedOut):
		Conflict(w, "Already clocked out of this shift")

	// Time errors
	case errors.Is(err, timewindow.ErrInvalidRange):
		UnprocessableEntity(w, "INVALID_RANGE", "End time must be after start time")

	// Default
	default:
		slog.Error("Unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
