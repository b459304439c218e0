package http

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/roster-backend-go/internal/domain/report"
	"github.com/cmlabs-hris/roster-backend-go/internal/handler/http/response"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportHandler interface {
	Weekly(w http.ResponseWriter, r *http.Request)
	ExportWeekly(w http.ResponseWriter, r *http.Request)
}

type reportHandlerImpl struct {
	reportService report.ReportService
}

func NewReportHandler(reportService report.ReportService) ReportHandler {
	return &reportHandlerImpl{
		reportService: reportService,
	}
}

// Weekly implements ReportHandler.
func (h *reportHandlerImpl) Weekly(w http.ResponseWriter, r *http.Request) {
	req := report.WeeklyReportRequest{WeekStart: r.URL.Query().Get("week_start")}

	result, err := h.reportService.WeeklyReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ExportWeekly implements ReportHandler.
func (h *reportHandlerImpl) ExportWeekly(w http.ResponseWriter, r *http.Request) {
	req := report.WeeklyReportRequest{WeekStart: r.URL.Query().Get("week_start")}

	data, err := h.reportService.ExportWeeklyReport(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.File(w, xlsxContentType, fmt.Sprintf("weekly-report-%s.xlsx", req.WeekStart), data)
}
