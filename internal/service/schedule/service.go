package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/calendar"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/timewindow"
)

type scheduleServiceImpl struct {
	tx          database.Transactor
	shiftRepo   schedule.ShiftRepository
	userRepo    user.UserRepository
	invalidator report.CacheInvalidator
	clock       clock.Clock
}

// overlapError carries the id of the shift a candidate collided with.
type overlapError struct {
	existingID string
}

func (e *overlapError) Error() string {
	return schedule.SkipReasonOverlap + " " + e.existingID
}

func (e *overlapError) Unwrap() error {
	return schedule.ErrShiftOverlap
}

// insertShift checks the candidate against the user's shifts on the same date and stores it.
// It must run inside a transaction.
func (s *scheduleServiceImpl) insertShift(ctx context.Context, candidate schedule.Shift) (schedule.Shift, error) {
	if err := s.shiftRepo.LockUserDate(ctx, candidate.UserID, candidate.WorkDate); err != nil {
		return schedule.Shift{}, err
	}

	existing, err := s.shiftRepo.ListByUserAndDate(ctx, candidate.UserID, candidate.WorkDate)
	if err != nil {
		return schedule.Shift{}, fmt.Errorf("failed to load shifts for overlap check: %w", err)
	}
	for _, other := range existing {
		if candidate.ConflictsWith(other) {
			return schedule.Shift{}, &overlapError{existingID: other.ID}
		}
	}

	return s.shiftRepo.Create(ctx, candidate)
}

func (s *scheduleServiceImpl) ensureUser(ctx context.Context, userID string) error {
	exists, err := s.userRepo.Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return user.ErrUserNotFound
	}
	return nil
}

func (s *scheduleServiceImpl) invalidate(ctx context.Context, dates ...time.Time) {
	seen := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		key := timewindow.FormatDate(d)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if err := s.invalidator.InvalidateDate(ctx, d); err != nil {
			slog.Warn("Failed to invalidate cached reports", "work_date", key, "error", err)
		}
	}
}

// ScheduleShift implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ScheduleShift(ctx context.Context, req schedule.ScheduleShiftRequest) (schedule.ShiftResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ShiftResponse{}, err
	}

	if req.StartTime >= req.EndTime {
		return schedule.ShiftResponse{}, schedule.ErrShiftInvalidSpan
	}

	if err := s.ensureUser(ctx, req.UserID); err != nil {
		return schedule.ShiftResponse{}, err
	}

	candidate := schedule.Shift{
		UserID:   req.UserID,
		WorkDate: req.WorkDate,
		Start:    req.StartTime,
		End:      req.EndTime,
		Role:     req.Role,
		Location: req.Location,
	}

	var created schedule.Shift
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.insertShift(ctx, candidate)
		return err
	})
	if err != nil {
		if errors.Is(err, schedule.ErrInvalidShift) {
			return schedule.ShiftResponse{}, err
		}
		return schedule.ShiftResponse{}, fmt.Errorf("failed to schedule shift: %w", err)
	}

	s.invalidate(ctx, created.WorkDate)

	return schedule.ToResponse(created), nil
}

// ScheduleWeek implements schedule.ScheduleService. Windows are processed in weekday order inside
// one transaction; invalid or overlapping windows are skipped, any other failure rolls back the batch.
func (s *scheduleServiceImpl) ScheduleWeek(ctx context.Context, req schedule.ScheduleWeekRequest) (schedule.ScheduleWeekResponse, error) {
	if err := req.Validate(); err != nil {
		return schedule.ScheduleWeekResponse{}, err
	}

	if err := s.ensureUser(ctx, req.UserID); err != nil {
		return schedule.ScheduleWeekResponse{}, err
	}

	var (
		created []schedule.Shift
		skipped []schedule.SkippedWindow
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		created, skipped = nil, nil

		for _, window := range req.Windows {
			workDate := window.Weekday.DateIn(req.WeekStartDate)
			skip := schedule.SkippedWindow{
				Weekday: int(window.Weekday),
				Date:    timewindow.FormatDate(workDate),
				Start:   window.Start.String(),
				End:     window.End.String(),
			}

			if window.Start >= window.End {
				skip.Reason = schedule.SkipReasonInvalidSpan
				skipped = append(skipped, skip)
				continue
			}

			shift, err := s.insertShift(ctx, schedule.Shift{
				UserID:   req.UserID,
				WorkDate: workDate,
				Start:    window.Start,
				End:      window.End,
				Role:     req.Role,
				Location: req.Location,
			})
			var overlap *overlapError
			switch {
			case errors.As(err, &overlap):
				skip.Reason = overlap.Error()
				skipped = append(skipped, skip)
			case err != nil:
				return err
			default:
				created = append(created, shift)
			}
		}
		return nil
	})
	if err != nil {
		return schedule.ScheduleWeekResponse{}, fmt.Errorf("failed to schedule week: %w", err)
	}

	dates := make([]time.Time, 0, len(created))
	resp := schedule.ScheduleWeekResponse{
		Created: make([]schedule.ShiftResponse, 0, len(created)),
		Skipped: make([]schedule.SkippedWindow, 0, len(skipped)),
	}
	for _, shift := range created {
		resp.Created = append(resp.Created, schedule.ToResponse(shift))
		dates = append(dates, shift.WorkDate)
	}
	resp.Skipped = append(resp.Skipped, skipped...)

	s.invalidate(ctx, dates...)

	slog.Info("Scheduled week", "user_id", req.UserID, "week_start", req.WeekStart,
		"created", len(resp.Created), "skipped", len(resp.Skipped))

	return resp, nil
}

func (s *scheduleServiceImpl) listRoster(ctx context.Context, req *schedule.RosterRequest) ([]schedule.Shift, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	shifts, err := s.shiftRepo.ListByDateRange(ctx, schedule.ShiftFilter{
		From:   req.StartDate,
		To:     req.EndDate,
		UserID: req.UserID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list roster: %w", err)
	}
	schedule.SortShifts(shifts)
	return shifts, nil
}

// GetRoster implements schedule.ScheduleService.
func (s *scheduleServiceImpl) GetRoster(ctx context.Context, req schedule.RosterRequest) ([]schedule.ShiftResponse, error) {
	shifts, err := s.listRoster(ctx, &req)
	if err != nil {
		return nil, err
	}

	resp := make([]schedule.ShiftResponse, 0, len(shifts))
	for _, shift := range shifts {
		resp = append(resp, schedule.ToResponse(shift))
	}
	return resp, nil
}

// GetShift implements schedule.ScheduleService.
func (s *scheduleServiceImpl) GetShift(ctx context.Context, id string) (schedule.ShiftResponse, error) {
	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return schedule.ShiftResponse{}, err
	}
	return schedule.ToResponse(shift), nil
}

// ExportRosterICS implements schedule.ScheduleService.
func (s *scheduleServiceImpl) ExportRosterICS(ctx context.Context, req schedule.RosterRequest) ([]byte, error) {
	shifts, err := s.listRoster(ctx, &req)
	if err != nil {
		return nil, err
	}

	usernames := make(map[string]string)
	events := make([]calendar.Event, 0, len(shifts))
	for _, shift := range shifts {
		name, ok := usernames[shift.UserID]
		if !ok {
			u, err := s.userRepo.GetByID(ctx, shift.UserID)
			switch {
			case err == nil:
				name = u.Username
			case errors.Is(err, user.ErrUserNotFound):
				name = shift.UserID
			default:
				return nil, fmt.Errorf("failed to load shift owner: %w", err)
			}
			usernames[shift.UserID] = name
		}

		summary := name
		if shift.Role != nil && *shift.Role != "" {
			summary += ": " + *shift.Role
		}
		hours, _ := shift.ScheduledHours()
		event := calendar.Event{
			UID:         shift.ID,
			Summary:     summary,
			Description: fmt.Sprintf("Scheduled %s-%s (%.2fh)", shift.Start, shift.End, hours),
			Start:       shift.StartsAt(),
			End:         shift.EndsAt(),
			Created:     shift.CreatedAt,
		}
		if shift.Location != nil {
			event.Location = *shift.Location
		}
		events = append(events, event)
	}

	name := fmt.Sprintf("Roster %s to %s", req.Start, req.End)
	return calendar.Render(name, events, s.clock.Now()), nil
}

func NewScheduleService(
	tx database.Transactor,
	shiftRepo schedule.ShiftRepository,
	userRepo user.UserRepository,
	invalidator report.CacheInvalidator,
	clk clock.Clock,
) schedule.ScheduleService {
	if invalidator == nil {
		invalidator = report.NopCache{}
	}
	return &scheduleServiceImpl{
		tx:          tx,
		shiftRepo:   shiftRepo,
		userRepo:    userRepo,
		invalidator: invalidator,
		clock:       clk,
	}
}
