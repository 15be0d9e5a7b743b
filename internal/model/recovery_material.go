package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecoveryMaterial is an allow-list entry controlling whether uploaded usage
// rows for a material code are retained or discarded at ingest time.
// Deactivation is a soft flag so that existing rows keep their history.
type RecoveryMaterial struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MaterialCode string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"material_code"`
	MaterialName string    `gorm:"type:varchar(255)" json:"material_name"`
	SerialFrom   string    `gorm:"type:varchar(100)" json:"serial_from"` // optional serial-number range
	SerialTo     string    `gorm:"type:varchar(100)" json:"serial_to"`
	Note         string    `gorm:"type:text" json:"note"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedBy    string    `gorm:"type:varchar(50)" json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (m *RecoveryMaterial) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
