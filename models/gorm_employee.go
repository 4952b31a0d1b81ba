package models

import (
	"math"
)

// Employee represents an enrolled identity using GORM.
// It corresponds to the 'employees' table.
type Employee struct {
	ID             uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	EmpCode        string  `gorm:"uniqueIndex;not null" json:"emp_code"`
	Name           string  `gorm:"not null" json:"name"`
	Department     *string `json:"department,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	EmbeddingData  []byte  `gorm:"not null;column:embedding_data" json:"-"`                                  // reference face embedding vector as BLOB
	EmbeddingModel string  `gorm:"not null;column:embedding_model;default:'arcface'" json:"embedding_model"` // name of the model that produced the embedding
	SnapshotPath   *string `json:"snapshot_path,omitempty"`                                                  // relative path of the enrollment photo
	ThumbnailPath  *string `json:"thumbnail_path,omitempty"`                                                 // generated by the enrollment worker
	PhotoTakenAt   *int64  `json:"photo_taken_at,omitempty"`                                                 // EXIF capture time of the enrollment photo
	CreatedAt      int64   `gorm:"not null" json:"created_at"`                                               // Stored as INTEGER in SQLite, Unix timestamp
	UpdatedAt      int64   `gorm:"not null" json:"updated_at"`                                               // Stored as INTEGER in SQLite, Unix timestamp

	// Relationships
	// deleting an employee removes their ledger and leave rows (administrative cascade)
	AttendanceEvents []AttendanceEvent `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"attendance_events,omitempty"`
	LeaveEntries     []LeaveEntry      `gorm:"foreignKey:EmployeeID;constraint:OnDelete:CASCADE" json:"leave_entries,omitempty"`
}

// TableName explicitly sets the table name for GORM.
func (Employee) TableName() string {
	return "employees"
}

// GetEmbedding converts the BLOB data to []float32
func (e *Employee) GetEmbedding() []float32 {
	if len(e.EmbeddingData) == 0 {
		return nil
	}

	embedding := make([]float32, len(e.EmbeddingData)/4) // 4 bytes per float32
	for i := 0; i < len(embedding); i++ {
		offset := i * 4
		bits := uint32(e.EmbeddingData[offset]) |
			uint32(e.EmbeddingData[offset+1])<<8 |
			uint32(e.EmbeddingData[offset+2])<<16 |
			uint32(e.EmbeddingData[offset+3])<<24
		embedding[i] = math.Float32frombits(bits)
	}
	return embedding
}

// SetEmbedding converts []float32 to BLOB data. Re-enrollment replaces the
// previous vector; an employee carries exactly one reference embedding.
func (e *Employee) SetEmbedding(embedding []float32) {
	if len(embedding) == 0 {
		e.EmbeddingData = nil
		return
	}

	e.EmbeddingData = make([]byte, len(embedding)*4) // 4 bytes per float32
	for i, val := range embedding {
		offset := i * 4
		bits := math.Float32bits(val)
		e.EmbeddingData[offset] = byte(bits)
		e.EmbeddingData[offset+1] = byte(bits >> 8)
		e.EmbeddingData[offset+2] = byte(bits >> 16)
		e.EmbeddingData[offset+3] = byte(bits >> 24)
	}
}
