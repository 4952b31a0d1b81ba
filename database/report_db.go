package database

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// AttendanceRecord is one ledger row joined with its employee, as served to
// the admin history and report views.
type AttendanceRecord struct {
	EmployeeID uint    `json:"employee_id"`
	EmpCode    string  `json:"emp_code"`
	Name       string  `json:"name"`
	Department *string `json:"department,omitempty"`
	Timestamp  int64   `json:"timestamp"`
	Day        string  `json:"day"`
	Device     string  `json:"device"`
	Direction  string  `json:"direction"`
}

// LeaveRecord is one leave entry joined with its employee.
type LeaveRecord struct {
	ID         uint   `json:"id"`
	EmployeeID uint   `json:"employee_id"`
	EmpCode    string `json:"emp_code"`
	Name       string `json:"name"`
	Date       string `json:"date"`
	Reason     string `json:"reason"`
	CreatedAt  int64  `json:"created_at"`
}

// Stats summarizes the whole system for the admin dashboard.
type Stats struct {
	TotalEmployees    int64 `json:"total_employees"`
	TotalEvents       int64 `json:"total_events"`
	TotalLeaveEntries int64 `json:"total_leave_entries"`
	PresentToday      int64 `json:"present_today"` // distinct employees with an IN today
}

// ListAttendanceRange returns attendance rows joined to employees, newest
// first, optionally bounded by day (inclusive, YYYY-MM-DD).
func ListAttendanceRange(db *sql.DB, start, end *string) ([]AttendanceRecord, error) {
	queryBuilder := psql.Select(
		"a.employee_id", "e.emp_code", "e.name", "e.department",
		"a.timestamp", "a.day", "a.device", "a.direction",
	).
		From("attendance_events a").
		Join("employees e ON e.id = a.employee_id").
		OrderBy("a.timestamp DESC")

	if start != nil {
		queryBuilder = queryBuilder.Where(sq.GtOrEq{"a.day": *start})
	}
	if end != nil {
		queryBuilder = queryBuilder.Where(sq.LtOrEq{"a.day": *end})
	}

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListAttendanceRange: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query attendance range: %w", err)
	}
	defer rows.Close()

	var records []AttendanceRecord
	for rows.Next() {
		var rec AttendanceRecord
		if err := rows.Scan(&rec.EmployeeID, &rec.EmpCode, &rec.Name, &rec.Department,
			&rec.Timestamp, &rec.Day, &rec.Device, &rec.Direction); err != nil {
			return nil, fmt.Errorf("failed to scan attendance row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListLeaveRange returns leave entries joined to employees, newest date
// first, optionally bounded by date (inclusive, YYYY-MM-DD).
func ListLeaveRange(db *sql.DB, start, end *string) ([]LeaveRecord, error) {
	queryBuilder := psql.Select(
		"l.id", "l.employee_id", "e.emp_code", "e.name",
		"l.date", "l.reason", "l.created_at",
	).
		From("leave_entries l").
		Join("employees e ON e.id = l.employee_id").
		OrderBy("l.date DESC")

	if start != nil {
		queryBuilder = queryBuilder.Where(sq.GtOrEq{"l.date": *start})
	}
	if end != nil {
		queryBuilder = queryBuilder.Where(sq.LtOrEq{"l.date": *end})
	}

	sqlStr, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build SQL query for ListLeaveRange: %w", err)
	}

	rows, err := db.Query(sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave range: %w", err)
	}
	defer rows.Close()

	var records []LeaveRecord
	for rows.Next() {
		var rec LeaveRecord
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.EmpCode, &rec.Name,
			&rec.Date, &rec.Reason, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan leave row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetStats collects system-wide totals plus today's distinct IN count.
func GetStats(db *sql.DB, today string) (Stats, error) {
	var stats Stats

	counts := []struct {
		table string
		dest  *int64
	}{
		{"employees", &stats.TotalEmployees},
		{"attendance_events", &stats.TotalEvents},
		{"leave_entries", &stats.TotalLeaveEntries},
	}
	for _, c := range counts {
		sqlStr, args, err := psql.Select("COUNT(*)").From(c.table).ToSql()
		if err != nil {
			return Stats{}, fmt.Errorf("failed to build count query for %s: %w", c.table, err)
		}
		if err := db.QueryRow(sqlStr, args...).Scan(c.dest); err != nil {
			return Stats{}, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}

	sqlStr, args, err := psql.Select("COUNT(DISTINCT employee_id)").
		From("attendance_events").
		Where(sq.Eq{"day": today, "direction": "IN"}).
		ToSql()
	if err != nil {
		return Stats{}, fmt.Errorf("failed to build present-today query: %w", err)
	}
	if err := db.QueryRow(sqlStr, args...).Scan(&stats.PresentToday); err != nil {
		return Stats{}, fmt.Errorf("failed to count present today: %w", err)
	}

	return stats, nil
}
