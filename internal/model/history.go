package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	// Upload kinds recorded in UploadHistory
	UploadKindMaterialUsage   = "MATERIAL_USAGE"
	UploadKindProductRecovery = "PRODUCT_RECOVERY"

	// Material-setting actions recorded in MaterialSettingHistory
	SettingActionCreate     = "CREATE_MATERIAL"
	SettingActionUpdate     = "UPDATE_MATERIAL"
	SettingActionActivate   = "ACTIVATE_MATERIAL"
	SettingActionDeactivate = "DEACTIVATE_MATERIAL"
)

// HistoryRetentionLimit caps every history table at the N most recent rows;
// older rows are pruned as new ones are inserted.
const HistoryRetentionLimit = 10000

// StatusHistory tracks Who, What, and When for every status transition.
// Append-only: exactly one row is written per transition, in the same
// transaction as the record update.
type StatusHistory struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecordKind     string    `gorm:"type:varchar(20);not null;index" json:"record_kind"` // material, product
	RecordID       uuid.UUID `gorm:"type:uuid;not null;index" json:"record_id"`
	RecordKey      string    `gorm:"type:varchar(255)" json:"record_key"` // human readable natural key
	PreviousStatus string    `gorm:"type:varchar(20);not null" json:"previous_status"`
	NewStatus      string    `gorm:"type:varchar(20);not null" json:"new_status"`
	ActorCode      string    `gorm:"type:varchar(50);index" json:"actor_code"`
	Payload        string    `gorm:"type:jsonb;default:'{}'" json:"payload"` // carrier/tracking or reason/detail
	CreatedAt      time.Time `gorm:"index" json:"created_at"`
}

func (h *StatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// UploadHistory records one spreadsheet ingest run with its outcome counts.
type UploadHistory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Kind       string    `gorm:"type:varchar(30);not null;index" json:"kind"` // MATERIAL_USAGE, PRODUCT_RECOVERY
	FileName   string    `gorm:"type:varchar(255)" json:"file_name"`
	ActorCode  string    `gorm:"type:varchar(50);index" json:"actor_code"`
	Saved      int       `json:"saved"`
	Duplicates int       `json:"duplicates"`
	Discarded  int       `json:"discarded"`
	Breakdown  string    `gorm:"type:jsonb" json:"breakdown"` // per-date and per-branch counts
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
}

func (h *UploadHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// LoginHistory records one row per successful login.
type LoginHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserCode  string    `gorm:"type:varchar(50);index" json:"user_code"`
	Role      string    `gorm:"type:varchar(50)" json:"role"`
	ClientIP  string    `gorm:"type:varchar(64)" json:"client_ip"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (h *LoginHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

// MaterialSettingHistory records every mutation of the recovery allow-list.
type MaterialSettingHistory struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Action       string    `gorm:"type:varchar(30);not null;index" json:"action"`
	MaterialCode string    `gorm:"type:varchar(50);index" json:"material_code"`
	ActorCode    string    `gorm:"type:varchar(50)" json:"actor_code"`
	Details      string    `gorm:"type:jsonb" json:"details"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (h *MaterialSettingHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
