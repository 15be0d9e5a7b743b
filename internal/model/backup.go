package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DeletionBackup holds a full JSON snapshot of every row matched by an admin
// bulk delete. The backup row is written before any deletion in the same
// transaction; if it cannot be written, nothing is deleted.
type DeletionBackup struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ActorCode   string    `gorm:"type:varchar(50);index" json:"actor_code"`
	RangeStart  time.Time `gorm:"type:date" json:"range_start"`
	RangeEnd    time.Time `gorm:"type:date" json:"range_end"`
	RecordCount int       `json:"record_count"`
	Payload     string    `gorm:"type:jsonb" json:"payload"` // snapshot of deleted usages and recoveries
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

func (b *DeletionBackup) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// ErrorLog stores client-reported render-time errors for later inspection.
type ErrorLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserCode  string    `gorm:"type:varchar(50);index" json:"user_code"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	Stack     string    `gorm:"type:text" json:"stack"`
	Path      string    `gorm:"type:varchar(255)" json:"path"`
	UserAgent string    `gorm:"type:varchar(255)" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (e *ErrorLog) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
