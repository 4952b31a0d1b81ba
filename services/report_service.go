package services

import (
	"database/sql"
	"math"
	"sort"
	"time"

	"github.com/camden-git/attendsysbackend/database"
)

// Day statuses assigned by the work-hours report.
const (
	DayStatusFullDay         = "full_day"
	DayStatusLate            = "late"
	DayStatusShortHours      = "short_hours"
	DayStatusMissingCheckout = "missing_checkout"
	DayStatusAnomalous       = "anomalous"
)

// WorkHoursRow is one (employee, day) aggregate: the daily IN/OUT pair
// collapsed into hours worked plus a status classification.
type WorkHoursRow struct {
	EmployeeID uint    `json:"employee_id"`
	EmpCode    string  `json:"emp_code"`
	Name       string  `json:"name"`
	Department *string `json:"department,omitempty"`
	Date       string  `json:"date"`
	FirstIn    *int64  `json:"first_in,omitempty"` // Unix timestamp of the day's first IN
	LastOut    *int64  `json:"last_out,omitempty"` // Unix timestamp of the day's last OUT
	Scans      int     `json:"scans"`
	Hours      float64 `json:"hours"`
	Status     string  `json:"status"`
	WorkDay    int     `json:"work_day"` // 1 when the day meets the full-day threshold
}

// ReportService builds attendance history, work-hours aggregates and system
// stats for the admin API from the shared store.
type ReportService struct {
	DB *sql.DB

	workStartTime   string  // HH:MM:SS; a first IN after this is a late arrival
	minFullDayHours float64 // hours required to count a working day
}

// NewReportService creates a report service over the raw sql.DB.
func NewReportService(db *sql.DB, workStartTime string, minFullDayHours float64) *ReportService {
	return &ReportService{DB: db, workStartTime: workStartTime, minFullDayHours: minFullDayHours}
}

// Attendance returns raw ledger rows joined to employees, newest first,
// optionally bounded by day (inclusive).
func (s *ReportService) Attendance(start, end *string) ([]database.AttendanceRecord, error) {
	return database.ListAttendanceRange(s.DB, start, end)
}

// LeaveRecords returns leave entries joined to employees for the range.
func (s *ReportService) LeaveRecords(start, end *string) ([]database.LeaveRecord, error) {
	return database.ListLeaveRange(s.DB, start, end)
}

// Stats returns system-wide totals for the dashboard.
func (s *ReportService) Stats(today string) (database.Stats, error) {
	return database.GetStats(s.DB, today)
}

// WorkHours aggregates the range's events per (employee, day): first IN,
// last OUT, scan count, hours worked and a status. A day without a complete
// IN/OUT pair counts zero hours.
func (s *ReportService) WorkHours(start, end *string) ([]WorkHoursRow, error) {
	records, err := database.ListAttendanceRange(s.DB, start, end)
	if err != nil {
		return nil, err
	}
	return aggregateWorkHours(records, s.workStartTime, s.minFullDayHours), nil
}

func aggregateWorkHours(records []database.AttendanceRecord, workStartTime string, minFullDayHours float64) []WorkHoursRow {
	type dayKey struct {
		employeeID uint
		day        string
	}
	rows := make(map[dayKey]*WorkHoursRow)

	for _, rec := range records {
		key := dayKey{rec.EmployeeID, rec.Day}
		row, ok := rows[key]
		if !ok {
			row = &WorkHoursRow{
				EmployeeID: rec.EmployeeID,
				EmpCode:    rec.EmpCode,
				Name:       rec.Name,
				Department: rec.Department,
				Date:       rec.Day,
			}
			rows[key] = row
		}
		row.Scans++

		ts := rec.Timestamp
		switch rec.Direction {
		case "IN":
			if row.FirstIn == nil || ts < *row.FirstIn {
				t := ts
				row.FirstIn = &t
			}
		case "OUT":
			if row.LastOut == nil || ts > *row.LastOut {
				t := ts
				row.LastOut = &t
			}
		}
	}

	result := make([]WorkHoursRow, 0, len(rows))
	for _, row := range rows {
		if row.FirstIn != nil && row.LastOut != nil {
			hours := float64(*row.LastOut-*row.FirstIn) / 3600.0
			if hours < 0 {
				hours = 0
			}
			row.Hours = math.Round(hours*100) / 100
		}
		classifyDay(row, workStartTime, minFullDayHours)
		result = append(result, *row)
	}

	// newest date first, then by employee for stable output
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date > result[j].Date
		}
		return result[i].EmployeeID < result[j].EmployeeID
	})
	return result
}

// classifyDay assigns the day's status: a complete pair meeting the
// full-day threshold earns a working day, late when the first IN falls
// after the configured start of work.
func classifyDay(row *WorkHoursRow, workStartTime string, minFullDayHours float64) {
	switch {
	case row.FirstIn == nil:
		// an OUT with no IN; only administrative edits produce this
		row.Status = DayStatusAnomalous
	case row.LastOut == nil:
		row.Status = DayStatusMissingCheckout
	case row.Hours >= minFullDayHours:
		row.WorkDay = 1
		// fixed-width HH:MM:SS strings compare chronologically
		if time.Unix(*row.FirstIn, 0).Format("15:04:05") > workStartTime {
			row.Status = DayStatusLate
		} else {
			row.Status = DayStatusFullDay
		}
	default:
		row.Status = DayStatusShortHours
	}
}
