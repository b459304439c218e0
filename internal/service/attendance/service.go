package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/timewindow"
)

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	schedule.ShiftRepository
	invalidator report.CacheInvalidator
	clock       clock.Clock
}

// ownedShift loads the shift and checks that it belongs to userID.
func (a *AttendanceServiceImpl) ownedShift(ctx context.Context, userID, shiftID string) (schedule.Shift, error) {
	shift, err := a.ShiftRepository.GetByID(ctx, shiftID)
	if err != nil {
		if errors.Is(err, schedule.ErrShiftNotFound) {
			return schedule.Shift{}, err
		}
		return schedule.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}
	if shift.UserID != userID {
		return schedule.Shift{}, attendance.ErrUserMismatch
	}
	return shift, nil
}

func (a *AttendanceServiceImpl) invalidate(ctx context.Context, workDate time.Time) {
	if err := a.invalidator.InvalidateDate(ctx, workDate); err != nil {
		slog.Warn("Failed to invalidate cached reports", "work_date", timewindow.FormatDate(workDate), "error", err)
	}
}

// ClockIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockIn(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var (
		shift   schedule.Shift
		created attendance.Attendance
	)
	err := a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		shift, err = a.ownedShift(ctx, req.UserID, req.ShiftID)
		if err != nil {
			return err
		}

		_, err = a.AttendanceRepository.GetByUserAndShift(ctx, req.UserID, req.ShiftID)
		switch {
		case err == nil:
			return attendance.ErrAlreadyClockedIn
		case !errors.Is(err, attendance.ErrAttendanceNotFound):
			return fmt.Errorf("failed to get attendance: %w", err)
		}

		created, err = a.AttendanceRepository.Create(ctx, attendance.Attendance{
			ShiftID: req.ShiftID,
			UserID:  req.UserID,
			TimeIn:  a.clock.Now().UTC(),
		})
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	a.invalidate(ctx, shift.WorkDate)

	return attendance.ToResponse(created), nil
}

// ClockOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ClockOut(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var (
		shift   schedule.Shift
		updated attendance.Attendance
	)
	err := a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		shift, err = a.ownedShift(ctx, req.UserID, req.ShiftID)
		if err != nil {
			return err
		}

		open, err := a.AttendanceRepository.GetByUserAndShiftForUpdate(ctx, req.UserID, req.ShiftID)
		if err != nil {
			return err
		}
		if open.TimeOut != nil {
			return attendance.ErrAlreadyClockedOut
		}

		now := a.clock.Now().UTC()
		if !now.After(open.TimeIn) {
			return fmt.Errorf("clock-out at %s is not after clock-in at %s: %w",
				now.Format(time.RFC3339Nano), open.TimeIn.Format(time.RFC3339Nano), timewindow.ErrInvalidRange)
		}
		open.TimeOut = &now

		updated, err = a.AttendanceRepository.SetTimeOut(ctx, open)
		return err
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	a.invalidate(ctx, shift.WorkDate)

	return attendance.ToResponse(updated), nil
}

// GetAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetAttendance(ctx context.Context, req attendance.ClockRequest) (attendance.AttendanceResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	if _, err := a.ownedShift(ctx, req.UserID, req.ShiftID); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	record, err := a.AttendanceRepository.GetByUserAndShift(ctx, req.UserID, req.ShiftID)
	if err != nil {
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			return attendance.NotStartedResponse(req.UserID, req.ShiftID), nil
		}
		return attendance.AttendanceResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}

	return attendance.ToResponse(record), nil
}

func NewAttendanceService(
	tx database.Transactor,
	attendanceRepo attendance.AttendanceRepository,
	shiftRepo schedule.ShiftRepository,
	invalidator report.CacheInvalidator,
	clk clock.Clock,
) attendance.AttendanceService {
	if invalidator == nil {
		invalidator = report.NopCache{}
	}
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		ShiftRepository:      shiftRepo,
		invalidator:          invalidator,
		clock:                clk,
	}
}
