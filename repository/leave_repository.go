package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/attendance"
	"github.com/camden-git/attendsysbackend/models"
)

// ErrDuplicateLeave is returned when an employee already has a leave entry
// for the requested date.
var ErrDuplicateLeave = errors.New("repository: leave entry already exists for employee and date")

// LeaveRepository handles database operations for LeaveEntry entities. It
// implements attendance.LeaveCalendar.
type LeaveRepository struct {
	DB *gorm.DB
}

// Ensure LeaveRepository implements the leave contracts
var (
	_ LeaveRepositoryInterface = (*LeaveRepository)(nil)
	_ attendance.LeaveCalendar = (*LeaveRepository)(nil)
)

// NewLeaveRepository creates a new instance of LeaveRepository
func NewLeaveRepository(db *gorm.DB) *LeaveRepository {
	return &LeaveRepository{DB: db}
}

// Create adds a leave day for an employee. At most one entry may exist per
// (employee, date); duplicates fail with ErrDuplicateLeave.
func (r *LeaveRepository) Create(entry *models.LeaveEntry) error {
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}

	err := r.DB.Create(entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateLeave
		}
		return fmt.Errorf("failed to create leave entry for employee %d on %s: %w", entry.EmployeeID, entry.Date, err)
	}
	return nil
}

// IsOnLeave reports whether the employee has a leave entry for the day
func (r *LeaveRepository) IsOnLeave(employeeID uint, day string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.LeaveEntry{}).
		Where("employee_id = ? AND date = ?", employeeID, day).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check leave for employee %d on %s: %w", employeeID, day, err)
	}
	return count > 0, nil
}

// ListByEmployee retrieves an employee's leave entries, newest date first
func (r *LeaveRepository) ListByEmployee(employeeID uint) ([]models.LeaveEntry, error) {
	var entries []models.LeaveEntry
	err := r.DB.Where("employee_id = ?", employeeID).
		Order("date DESC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list leave entries for employee %d: %w", employeeID, err)
	}
	return entries, nil
}

// Delete removes a leave entry by its ID
func (r *LeaveRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.LeaveEntry{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete leave entry ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
