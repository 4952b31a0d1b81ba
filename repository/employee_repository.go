package repository

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/facette/natsort"
	"gorm.io/gorm"

	"github.com/camden-git/attendsysbackend/attendance"
	"github.com/camden-git/attendsysbackend/models"
)

// ErrDuplicateEmpCode is returned when an enrollment reuses an existing
// employee code.
var ErrDuplicateEmpCode = errors.New("repository: employee code already exists")

// EmployeeRepository handles database operations for Employee entities
type EmployeeRepository struct {
	DB *gorm.DB
}

// Ensure EmployeeRepository implements EmployeeRepositoryInterface
var _ EmployeeRepositoryInterface = (*EmployeeRepository)(nil)

// NewEmployeeRepository creates a new instance of EmployeeRepository
func NewEmployeeRepository(db *gorm.DB) *EmployeeRepository {
	return &EmployeeRepository{DB: db}
}

// Create creates a new employee record in the database
func (r *EmployeeRepository) Create(employee *models.Employee) error {
	now := time.Now().Unix()
	if employee.CreatedAt == 0 {
		employee.CreatedAt = now
	}
	employee.UpdatedAt = now

	err := r.DB.Create(employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmpCode
		}
		return fmt.Errorf("failed to create employee %s: %w", employee.EmpCode, err)
	}
	return nil
}

// GetByID retrieves an employee by their ID
func (r *EmployeeRepository) GetByID(id uint) (*models.Employee, error) {
	var employee models.Employee
	err := r.DB.First(&employee, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get employee by ID %d: %w", id, err)
	}
	return &employee, nil
}

// GetByCode retrieves an employee by their unique employee code
func (r *EmployeeRepository) GetByCode(empCode string) (*models.Employee, error) {
	var employee models.Employee
	err := r.DB.Where("emp_code = ?", empCode).First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get employee by code %s: %w", empCode, err)
	}
	return &employee, nil
}

// ListAll retrieves all employees in natural employee-code order (E2 sorts
// before E10)
func (r *EmployeeRepository) ListAll() ([]models.Employee, error) {
	var employees []models.Employee
	err := r.DB.Find(&employees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}

	sort.SliceStable(employees, func(i, j int) bool {
		return natsort.Compare(employees[i].EmpCode, employees[j].EmpCode)
	})
	return employees, nil
}

// ListEmbeddings returns every enrolled reference vector in enrollment
// (primary key) order, which fixes the matcher's tie-break.
func (r *EmployeeRepository) ListEmbeddings() ([]attendance.EnrolledEmbedding, error) {
	var employees []models.Employee
	err := r.DB.Order("id ASC").Find(&employees).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list employee embeddings: %w", err)
	}

	entries := make([]attendance.EnrolledEmbedding, 0, len(employees))
	for i := range employees {
		vector := employees[i].GetEmbedding()
		if vector == nil {
			continue
		}
		entries = append(entries, attendance.EnrolledEmbedding{
			EmployeeID: employees[i].ID,
			EmpCode:    employees[i].EmpCode,
			Name:       employees[i].Name,
			Vector:     vector,
		})
	}
	return entries, nil
}

// Update updates an existing employee's profile fields
func (r *EmployeeRepository) Update(employee *models.Employee) error {
	employee.UpdatedAt = time.Now().Unix()
	result := r.DB.Model(&models.Employee{ID: employee.ID}).Updates(map[string]interface{}{
		"name":       employee.Name,
		"department": employee.Department,
		"phone":      employee.Phone,
		"updated_at": employee.UpdatedAt,
	})

	if result.Error != nil {
		return fmt.Errorf("failed to update employee ID %d: %w", employee.ID, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateEmbedding replaces the employee's reference vector (re-enrollment)
func (r *EmployeeRepository) UpdateEmbedding(id uint, vector []float32, model string) error {
	var employee models.Employee
	employee.SetEmbedding(vector)

	result := r.DB.Model(&models.Employee{ID: id}).Updates(map[string]interface{}{
		"embedding_data":  employee.EmbeddingData,
		"embedding_model": model,
		"updated_at":      time.Now().Unix(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update embedding for employee ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateSnapshot records the enrollment photo, its generated thumbnail and
// the EXIF capture time. Nil pointers clear the columns.
func (r *EmployeeRepository) UpdateSnapshot(id uint, snapshotPath, thumbnailPath *string, takenAt *int64) error {
	result := r.DB.Model(&models.Employee{ID: id}).Updates(map[string]interface{}{
		"snapshot_path":  snapshotPath,
		"thumbnail_path": thumbnailPath,
		"photo_taken_at": takenAt,
		"updated_at":     time.Now().Unix(),
	})
	if result.Error != nil {
		return fmt.Errorf("failed to update snapshot for employee ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes an employee; their ledger and leave rows cascade
func (r *EmployeeRepository) Delete(id uint) error {
	result := r.DB.Delete(&models.Employee{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete employee ID %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
