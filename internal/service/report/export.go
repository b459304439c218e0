package report

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

const (
	totalsSheet   = "Totals"
	coverageSheet = "Shifts"
)

// renderWorkbook writes a totals sheet (one row per user) and a coverage sheet (one row per shift).
func renderWorkbook(weekly report.WeeklyReport, usernames map[string]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", totalsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(coverageSheet); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("Weekly report %s to %s", weekly.WeekStart, weekly.WeekEnd)
	f.SetCellValue(totalsSheet, "A1", title)

	totalsHeader := []interface{}{"User ID", "Username", "Shifts", "Scheduled hours", "Worked hours", "Incomplete shifts"}
	if err := writeRow(f, totalsSheet, 2, totalsHeader, headerStyle); err != nil {
		return nil, err
	}

	userIDs := make([]string, 0, len(weekly.TotalsPerUser))
	for userID := range weekly.TotalsPerUser {
		userIDs = append(userIDs, userID)
	}
	sort.Strings(userIDs)

	for i, userID := range userIDs {
		totals := weekly.TotalsPerUser[userID]
		row := []interface{}{userID, usernames[userID], totals.ShiftCount, totals.ScheduledHours, totals.WorkedHours, totals.IncompleteShifts}
		if err := writeRow(f, totalsSheet, i+3, row, 0); err != nil {
			return nil, err
		}
	}

	coverageHeader := []interface{}{"Date", "Start", "End", "User ID", "Username", "Role", "Location", "Scheduled hours", "Status", "Actual in", "Actual out", "Worked hours"}
	if err := writeRow(f, coverageSheet, 1, coverageHeader, headerStyle); err != nil {
		return nil, err
	}

	for i, c := range weekly.Shifts {
		row := []interface{}{
			c.Date, c.ScheduledStart, c.ScheduledEnd, c.UserID, usernames[c.UserID],
			deref(c.Role), deref(c.Location), c.ScheduledHours, c.Status,
			deref(c.ActualIn), deref(c.ActualOut), c.WorkedHours,
		}
		if err := writeRow(f, coverageSheet, i+2, row, 0); err != nil {
			return nil, err
		}
	}

	f.SetColWidth(totalsSheet, "A", "A", 38)
	f.SetColWidth(coverageSheet, "D", "D", 38)
	f.SetColWidth(coverageSheet, "J", "K", 22)

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}, style int) error {
	start, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, start, &values); err != nil {
		return err
	}
	if style == 0 {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(values), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, start, end, style)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
