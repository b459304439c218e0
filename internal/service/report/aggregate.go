package report

import (
	"time"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/roster-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/roster-backend-go/internal/pkg/timewindow"
)

// aggregate folds the week's shifts and their attendance into a report. Shifts outside
// [weekStart, weekStart+6] and attendance for unknown shifts are ignored.
func aggregate(weekStart time.Time, shifts []schedule.Shift, records []attendance.Attendance, generatedAt time.Time) (report.WeeklyReport, error) {
	weekStart = timewindow.DateOnly(weekStart)
	weekEnd := timewindow.WeekEnd(weekStart)

	byShift := make(map[string]*attendance.Attendance, len(records))
	for i := range records {
		byShift[records[i].ShiftID] = &records[i]
	}

	inWindow := make([]schedule.Shift, 0, len(shifts))
	for _, s := range shifts {
		if timewindow.InDateRange(s.WorkDate, weekStart, weekEnd) {
			inWindow = append(inWindow, s)
		}
	}
	schedule.SortShifts(inWindow)

	result := report.WeeklyReport{
		WeekStart:     timewindow.FormatDate(weekStart),
		WeekEnd:       timewindow.FormatDate(weekEnd),
		GeneratedAt:   generatedAt.UTC().Format(time.RFC3339),
		TotalsPerUser: make(map[string]report.UserTotals),
		Shifts:        make([]report.ShiftCoverage, 0, len(inWindow)),
	}

	for _, s := range inWindow {
		scheduled, err := s.ScheduledHours()
		if err != nil {
			return report.WeeklyReport{}, err
		}

		coverage := report.ShiftCoverage{
			ShiftID:        s.ID,
			UserID:         s.UserID,
			Date:           timewindow.FormatDate(s.WorkDate),
			ScheduledStart: s.Start.String(),
			ScheduledEnd:   s.End.String(),
			ScheduledHours: scheduled,
			Role:           s.Role,
			Location:       s.Location,
		}

		totals := result.TotalsPerUser[s.UserID]
		totals.ScheduledHours += scheduled
		totals.ShiftCount++

		// A record whose user differs from the shift owner cannot be created; skip it if present.
		att := byShift[s.ID]
		if att != nil && att.UserID != s.UserID {
			att = nil
		}
		coverage.Status = string(att.Status())
		if att != nil {
			coverage.ActualIn = formatInstant(&att.TimeIn)
			coverage.ActualOut = formatInstant(att.TimeOut)
			coverage.WorkedHours = att.WorkedHours()
		}
		switch att.Status() {
		case attendance.StatusClockedOut:
			totals.WorkedHours += coverage.WorkedHours
		case attendance.StatusClockedIn:
			totals.IncompleteShifts++
		}

		result.TotalsPerUser[s.UserID] = totals
		result.Shifts = append(result.Shifts, coverage)
	}

	return result, nil
}

func formatInstant(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339Nano)
	return &s
}
