package repository

import (
	"time"

	"github.com/camden-git/attendsysbackend/attendance"
	"github.com/camden-git/attendsysbackend/models"
)

// EmployeeRepositoryInterface defines the methods for employee data operations
type EmployeeRepositoryInterface interface {
	Create(employee *models.Employee) error
	GetByID(id uint) (*models.Employee, error)
	GetByCode(empCode string) (*models.Employee, error)
	ListAll() ([]models.Employee, error)
	ListEmbeddings() ([]attendance.EnrolledEmbedding, error)
	Update(employee *models.Employee) error
	UpdateEmbedding(id uint, vector []float32, model string) error
	UpdateSnapshot(id uint, snapshotPath, thumbnailPath *string, takenAt *int64) error
	Delete(id uint) error
}

// AttendanceRepositoryInterface defines the methods for the append-only scan
// event ledger. It satisfies attendance.Ledger.
type AttendanceRepositoryInterface interface {
	EventsFor(employeeID uint, day string) ([]attendance.Event, error)
	Append(employeeID uint, ts time.Time, day, device, direction string) error
}

// LeaveRepositoryInterface defines the methods for leave calendar operations.
// It satisfies attendance.LeaveCalendar.
type LeaveRepositoryInterface interface {
	Create(entry *models.LeaveEntry) error
	IsOnLeave(employeeID uint, day string) (bool, error)
	ListByEmployee(employeeID uint) ([]models.LeaveEntry, error)
	Delete(id uint) error
}

// UserRepositoryInterface defines the methods for admin user data operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	CountAll() (int64, error)
}
