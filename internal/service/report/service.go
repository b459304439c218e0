package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/timewindow"
	"golang.org/x/sync/singleflight"
)

type ReportServiceImpl struct {
	tx             database.Transactor
	shiftRepo      schedule.ShiftRepository
	attendanceRepo attendance.AttendanceRepository
	userRepo       user.UserRepository
	cache          report.Cache
	clock          clock.Clock
	sf             *singleflight.Group
}

func NewReportService(
	tx database.Transactor,
	shiftRepo schedule.ShiftRepository,
	attendanceRepo attendance.AttendanceRepository,
	userRepo user.UserRepository,
	cache report.Cache,
	clk clock.Clock,
) report.ReportService {
	if cache == nil {
		cache = report.NopCache{}
	}
	return &ReportServiceImpl{
		tx:             tx,
		shiftRepo:      shiftRepo,
		attendanceRepo: attendanceRepo,
		userRepo:       userRepo,
		cache:          cache,
		clock:          clk,
		sf:             &singleflight.Group{},
	}
}

// WeeklyReport implements report.ReportService. Cache failures are logged and the report is
// computed from the store.
func (s *ReportServiceImpl) WeeklyReport(ctx context.Context, req report.WeeklyReportRequest) (report.WeeklyReport, error) {
	if err := req.Validate(); err != nil {
		return report.WeeklyReport{}, err
	}
	weekStart := req.WeekStartDate

	cached, err := s.cache.Get(ctx, weekStart)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, report.ErrReportCacheMiss) {
		slog.Warn("Failed to read cached weekly report", "week_start", req.WeekStart, "error", err)
	}

	v, err, _ := s.sf.Do(timewindow.FormatDate(weekStart), func() (interface{}, error) {
		// Callers waiting on the same week share this computation.
		ctx := context.WithoutCancel(ctx)

		gen, genErr := s.cache.Generation(ctx, weekStart)
		if genErr != nil {
			slog.Warn("Failed to read weekly report generation", "week_start", req.WeekStart, "error", genErr)
		}

		computed, err := s.compute(ctx, req)
		if err != nil {
			return nil, err
		}

		if genErr == nil {
			err := s.cache.Set(ctx, weekStart, gen, computed)
			switch {
			case errors.Is(err, report.ErrReportCacheStale):
				slog.Debug("Weekly report changed while computing, not cached", "week_start", req.WeekStart)
			case err != nil:
				slog.Warn("Failed to cache weekly report", "week_start", req.WeekStart, "error", err)
			}
		}
		return computed, nil
	})
	if err != nil {
		return report.WeeklyReport{}, err
	}

	return v.(report.WeeklyReport), nil
}

// compute reads the week's shifts and attendance in one transaction.
func (s *ReportServiceImpl) compute(ctx context.Context, req report.WeeklyReportRequest) (report.WeeklyReport, error) {
	weekStart := req.WeekStartDate

	var (
		shifts  []schedule.Shift
		records []attendance.Attendance
	)
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		shifts, err = s.shiftRepo.ListByDateRange(ctx, schedule.ShiftFilter{
			From: weekStart,
			To:   timewindow.WeekEnd(weekStart),
		})
		if err != nil {
			return fmt.Errorf("failed to list shifts: %w", err)
		}

		ids := make([]string, 0, len(shifts))
		for _, shift := range shifts {
			ids = append(ids, shift.ID)
		}
		records, err = s.attendanceRepo.ListByShiftIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to list attendance: %w", err)
		}
		return nil
	})
	if err != nil {
		return report.WeeklyReport{}, err
	}

	return aggregate(weekStart, shifts, records, s.clock.Now())
}

// ExportWeeklyReport implements report.ReportService.
func (s *ReportServiceImpl) ExportWeeklyReport(ctx context.Context, req report.WeeklyReportRequest) ([]byte, error) {
	weekly, err := s.WeeklyReport(ctx, req)
	if err != nil {
		return nil, err
	}

	usernames := make(map[string]string, len(weekly.TotalsPerUser))
	for userID := range weekly.TotalsPerUser {
		u, err := s.userRepo.GetByID(ctx, userID)
		switch {
		case err == nil:
			usernames[userID] = u.Username
		case errors.Is(err, user.ErrUserNotFound):
			usernames[userID] = ""
		default:
			return nil, fmt.Errorf("failed to load user: %w", err)
		}
	}

	return renderWorkbook(weekly, usernames)
}
