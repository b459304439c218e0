package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/roster-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/jwt"
)

type AttendanceHandler interface {
	ClockIn(w http.ResponseWriter, r *http.Request)
	ClockOut(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
	}
}

// actingUserID resolves whose attendance the caller is touching. Staff act for themselves;
// acting for someone else requires the attendance.others permission.
func actingUserID(r *http.Request, requested string) (string, error) {
	identity, err := jwt.IdentityFromContext(r.Context())
	if err != nil {
		return "", auth.ErrInvalidToken
	}
	if requested == "" || requested == identity.UserID {
		return identity.UserID, nil
	}
	if !user.HasPermission(identity.Role, user.PermissionAttendanceOthers) {
		return "", user.ErrAdminPrivilegeRequired
	}
	return requested, nil
}

func (h *attendanceHandlerImpl) decodeClockRequest(w http.ResponseWriter, r *http.Request) (attendance.ClockRequest, bool) {
	var req attendance.ClockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Clock request decode error", "error", err)
		response.BadRequest(w, "Invalid request body", nil)
		return attendance.ClockRequest{}, false
	}

	userID, err := actingUserID(r, req.UserID)
	if err != nil {
		response.HandleError(w, err)
		return attendance.ClockRequest{}, false
	}
	req.UserID = userID

	return req, true
}

// ClockIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockIn(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeClockRequest(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.ClockIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Clock in successful", result)
}

// ClockOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) ClockOut(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeClockRequest(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.ClockOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Clock out successful", result)
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	userID, err := actingUserID(r, query.Get("user_id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.GetAttendance(r.Context(), attendance.ClockRequest{
		UserID:  userID,
		ShiftID: query.Get("shift_id"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
