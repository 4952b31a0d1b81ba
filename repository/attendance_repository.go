package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/attendance"
	"github.com/camden-git/attendsysbackend/models"
)

// AttendanceRepository handles database operations for the append-only scan
// event ledger. It implements attendance.Ledger; nothing here updates or
// deletes rows.
type AttendanceRepository struct {
	DB *gorm.DB
}

// Ensure AttendanceRepository implements the ledger contracts
var (
	_ AttendanceRepositoryInterface = (*AttendanceRepository)(nil)
	_ attendance.Ledger             = (*AttendanceRepository)(nil)
)

// NewAttendanceRepository creates a new instance of AttendanceRepository
func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{DB: db}
}

// EventsFor returns the employee's events for the given day, ordered by
// timestamp ascending
func (r *AttendanceRepository) EventsFor(employeeID uint, day string) ([]attendance.Event, error) {
	var rows []models.AttendanceEvent
	err := r.DB.Where("employee_id = ? AND day = ?", employeeID, day).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events for employee %d on %s: %w", employeeID, day, err)
	}

	events := make([]attendance.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, attendance.Event{
			Timestamp: time.Unix(row.Timestamp, 0),
			Direction: row.Direction,
		})
	}
	return events, nil
}

// Append writes one scan event. The unique index on (employee_id, day,
// direction) rejects a second IN or OUT for the same day; that violation is
// reported as attendance.ErrDuplicateEvent so the engine can treat the lost
// race as a clean daily-limit rejection.
func (r *AttendanceRepository) Append(employeeID uint, ts time.Time, day, device, direction string) error {
	event := models.AttendanceEvent{
		EmployeeID: employeeID,
		Timestamp:  ts.Unix(),
		Day:        day,
		Device:     device,
		Direction:  direction,
	}

	err := r.DB.Create(&event).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return attendance.ErrDuplicateEvent
		}
		return fmt.Errorf("failed to append %s event for employee %d: %w", direction, employeeID, err)
	}
	return nil
}
