package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/roster-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type ScheduleHandler interface {
	ScheduleShift(w http.ResponseWriter, r *http.Request)
	ScheduleWeek(w http.ResponseWriter, r *http.Request)
	GetShift(w http.ResponseWriter, r *http.Request)
	GetRoster(w http.ResponseWriter, r *http.Request)
	ExportRosterICS(w http.ResponseWriter, r *http.Request)
}

type scheduleHandlerImpl struct {
	scheduleService schedule.ScheduleService
}

func NewScheduleHandler(scheduleService schedule.ScheduleService) ScheduleHandler {
	return &scheduleHandlerImpl{
		scheduleService: scheduleService,
	}
}

// ScheduleShift implements ScheduleHandler.
func (h *scheduleHandlerImpl) ScheduleShift(w http.ResponseWriter, r *http.Request) {
	var req schedule.ScheduleShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Schedule shift decode error", "error", err)
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	created, err := h.scheduleService.ScheduleShift(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Shift scheduled", created)
}

// ScheduleWeek implements ScheduleHandler.
func (h *scheduleHandlerImpl) ScheduleWeek(w http.ResponseWriter, r *http.Request) {
	var req schedule.ScheduleWeekRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Schedule week decode error", "error", err)
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.scheduleService.ScheduleWeek(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	message := fmt.Sprintf("%d shift(s) created, %d skipped", len(result.Created), len(result.Skipped))
	response.Created(w, message, result)
}

// GetShift implements ScheduleHandler.
func (h *scheduleHandlerImpl) GetShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.scheduleService.GetShift(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, shift)
}

func rosterRequestFromQuery(r *http.Request) schedule.RosterRequest {
	query := r.URL.Query()
	req := schedule.RosterRequest{
		Start: query.Get("start"),
		End:   query.Get("end"),
	}
	if userID := query.Get("user_id"); userID != "" {
		req.UserID = &userID
	}
	return req
}

// GetRoster implements ScheduleHandler.
func (h *scheduleHandlerImpl) GetRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.scheduleService.GetRoster(r.Context(), rosterRequestFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, roster)
}

// ExportRosterICS implements ScheduleHandler.
func (h *scheduleHandlerImpl) ExportRosterICS(w http.ResponseWriter, r *http.Request) {
	req := rosterRequestFromQuery(r)

	feed, err := h.scheduleService.ExportRosterICS(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, "text/calendar; charset=utf-8", fmt.Sprintf("roster-%s-%s.ics", req.Start, req.End), feed)
}
