package report

import "context"

type ReportService interface {
	// WeeklyReport aggregates scheduled and worked hours for the 7 days starting at week_start
	WeeklyReport(ctx context.Context, req WeeklyReportRequest) (WeeklyReport, error)

	// ExportWeeklyReport renders the weekly report as an XLSX workbook
	ExportWeeklyReport(ctx context.Context, req WeeklyReportRequest) ([]byte, error)
}
