package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/camden-git/attendsysbackend/attendance"
	"github.com/camden-git/attendsysbackend/database"
	"github.com/camden-git/attendsysbackend/services"
)

// ReportHandler serves attendance history, work-hours aggregates and system
// stats for the admin dashboard.
type ReportHandler struct {
	Reports   *services.ReportService
	WorkStart string
	WorkEnd   string
}

func NewReportHandler(reports *services.ReportService, workStart, workEnd string) *ReportHandler {
	return &ReportHandler{Reports: reports, WorkStart: workStart, WorkEnd: workEnd}
}

// Attendance returns raw ledger rows joined to employees, newest first,
// optionally bounded by ?start= and ?end= (YYYY-MM-DD, inclusive).
func (h *ReportHandler) Attendance(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRangeParams(w, r)
	if !ok {
		return
	}

	records, err := h.Reports.Attendance(start, end)
	if err != nil {
		log.Printf("report handler: failed to list attendance: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to list attendance")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(records)
}

// WorkHours returns per-employee, per-day hours worked for the range.
func (h *ReportHandler) WorkHours(w http.ResponseWriter, r *http.Request) {
	start, end, ok := dateRangeParams(w, r)
	if !ok {
		return
	}

	rows, err := h.Reports.WorkHours(start, end)
	if err != nil {
		log.Printf("report handler: failed to compute work hours: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to compute work hours")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rows)
}

type statsResponse struct {
	database.Stats
	WorkStart string `json:"work_start"`
	WorkEnd   string `json:"work_end"`
}

// Stats returns system-wide totals plus today's distinct check-in count and
// the configured working window.
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	today := time.Now().Format(attendance.DayLayout)
	stats, err := h.Reports.Stats(today)
	if err != nil {
		log.Printf("report handler: failed to collect stats: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "db_error", "failed to collect stats")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsResponse{
		Stats:     stats,
		WorkStart: h.WorkStart,
		WorkEnd:   h.WorkEnd,
	})
}
