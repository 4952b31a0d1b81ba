package models

// LeaveEntry represents a single leave day for an employee using GORM.
// It corresponds to the 'leave_entries' table.
type LeaveEntry struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	EmployeeID uint   `gorm:"not null;uniqueIndex:idx_employee_leave_date" json:"employee_id"`
	Date       string `gorm:"not null;uniqueIndex:idx_employee_leave_date;size:10" json:"date"` // YYYY-MM-DD
	Reason     string `gorm:"not null;default:''" json:"reason"`
	CreatedAt  int64  `gorm:"not null" json:"created_at"` // Stored as INTEGER in SQLite, Unix timestamp

	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (LeaveEntry) TableName() string {
	return "leave_entries"
}
