package models

// Scan directions. A day holds at most one of each, IN first.
const (
	DirectionIn  = "IN"
	DirectionOut = "OUT"
)

// AttendanceEvent represents a single accepted scan using GORM.
// It corresponds to the 'attendance_events' table. Rows are append-only:
// nothing updates or deletes them outside of the employee cascade.
type AttendanceEvent struct {
	ID         uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	EmployeeID uint   `gorm:"not null;uniqueIndex:idx_employee_day_direction" json:"employee_id"`
	Timestamp  int64  `gorm:"not null;index" json:"timestamp"` // Unix seconds, local wall clock
	Day        string `gorm:"not null;uniqueIndex:idx_employee_day_direction;size:10" json:"day"` // YYYY-MM-DD, derived from Timestamp
	Device     string `gorm:"not null" json:"device"`
	Direction  string `gorm:"not null;uniqueIndex:idx_employee_day_direction;size:3" json:"direction"` // IN or OUT

	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (AttendanceEvent) TableName() string {
	return "attendance_events"
}

// The unique index on (employee_id, day, direction) closes the
// read-modify-write race between kiosks sharing one database: a second IN or
// OUT for the same day fails the insert instead of silently breaking the
// two-events-per-day invariant.
