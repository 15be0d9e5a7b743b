package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Recovery status enum constants. Statuses are stored as the localized
// strings the operators see; the order below is the conventional flow, but
// nothing in the database enforces it (admins may force any transition).
const (
	StatusWaiting   = "회수대기" // waiting for collection at the branch
	StatusCollected = "회수완료" // collected by branch staff
	StatusShipped   = "발송"   // shipped to the quality team
	StatusReceived  = "입고완료" // received at the quality center
	StatusCancelled = "발송불가" // terminal side-branch, products only

	// StatusUnselected marks approved product rows that did not pass the
	// auto-selection rule and await manual operator review.
	StatusUnselected = "미선택"
)

// RecordKind discriminates the two pipelines sharing the status workflow.
const (
	KindMaterial = "material"
	KindProduct  = "product"
)

// MaterialUsage is one defective part moving through the recovery pipeline.
// Identified naturally by (request_number, branch_code, material_code);
// duplicate uploads of the same key are skipped unless overwrite is requested.
type MaterialUsage struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestNumber string    `gorm:"type:varchar(50);not null;index:idx_usage_key,unique" json:"request_number"`
	BranchCode    string    `gorm:"type:varchar(50);not null;index:idx_usage_key,unique;index" json:"branch_code"`
	MaterialCode  string    `gorm:"type:varchar(50);not null;index:idx_usage_key,unique;index" json:"material_code"`
	MaterialName  string    `gorm:"type:varchar(255)" json:"material_name"`
	Serial        string    `gorm:"type:varchar(100)" json:"serial"`
	Quantity      int       `gorm:"default:1" json:"quantity"`
	UsedDate      time.Time `gorm:"type:date;index" json:"used_date"`

	Status string `gorm:"type:varchar(20);not null;index" json:"status"`

	CollectedAt *time.Time `json:"collected_at"`
	CollectedBy string     `gorm:"type:varchar(50)" json:"collected_by"`
	ShippedAt   *time.Time `json:"shipped_at"`
	ShippedBy   string     `gorm:"type:varchar(50)" json:"shipped_by"`
	ReceivedAt  *time.Time `json:"received_at"`
	ReceivedBy  string     `gorm:"type:varchar(50)" json:"received_by"`

	// Populated only at the 발송 transition
	Carrier        string `gorm:"type:varchar(100)" json:"carrier"`
	TrackingNumber string `gorm:"type:varchar(100)" json:"tracking_number"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *MaterialUsage) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
