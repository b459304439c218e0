package schedule

import (
	"context"
)

type ScheduleService interface {
	// ScheduleShift creates one shift; it fails with ErrInvalidShift on a bad span or overlap
	ScheduleShift(ctx context.Context, req ScheduleShiftRequest) (ShiftResponse, error)

	// ScheduleWeek expands daily windows into shifts, skipping invalid or overlapping entries
	ScheduleWeek(ctx context.Context, req ScheduleWeekRequest) (ScheduleWeekResponse, error)

	// GetRoster lists shifts in a date range
	GetRoster(ctx context.Context, req RosterRequest) ([]ShiftResponse, error)

	GetShift(ctx context.Context, id string) (ShiftResponse, error)

	// ExportRosterICS renders the roster as an iCalendar feed
	ExportRosterICS(ctx context.Context, req RosterRequest) ([]byte, error)
}
