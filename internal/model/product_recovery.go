package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ApprovalApproved is the approval status a termination request must carry
// before its row is eligible for auto-selection.
const ApprovalApproved = "승인"

// ProductRecovery is one returned rental appliance moving through the
// recovery pipeline. Identified naturally by (customer_number, model_name,
// termination_request_date). Rows enter either 회수대기 (auto-selected or
// manually selected) or 미선택 (approved but pending manual review).
type ProductRecovery struct {
	ID                     uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerNumber         string          `gorm:"type:varchar(50);not null;index:idx_recovery_key,unique" json:"customer_number"`
	ModelName              string          `gorm:"type:varchar(100);not null;index:idx_recovery_key,unique;index" json:"model_name"`
	TerminationRequestDate time.Time       `gorm:"type:date;not null;index:idx_recovery_key,unique" json:"termination_request_date"`
	ApprovalStatus         string          `gorm:"type:varchar(20)" json:"approval_status"`
	BranchCode             string          `gorm:"type:varchar(50);index" json:"branch_code"`
	CustomerName           string          `gorm:"type:varchar(255)" json:"customer_name"`
	CustomerAddress        string          `gorm:"type:text" json:"customer_address"`
	PenaltyAmount          decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"penalty_amount"` // termination penalty (위약금)
	AutoSelected           bool            `gorm:"default:false" json:"auto_selected"`

	Status string `gorm:"type:varchar(20);not null;index" json:"status"`

	SelectedAt  *time.Time `json:"selected_at"`
	SelectedBy  string     `gorm:"type:varchar(50)" json:"selected_by"`
	CollectedAt *time.Time `json:"collected_at"`
	CollectedBy string     `gorm:"type:varchar(50)" json:"collected_by"`
	ShippedAt   *time.Time `json:"shipped_at"`
	ShippedBy   string     `gorm:"type:varchar(50)" json:"shipped_by"`
	ReceivedAt  *time.Time `json:"received_at"`
	ReceivedBy  string     `gorm:"type:varchar(50)" json:"received_by"`

	// Populated only at the 발송 transition
	Carrier        string `gorm:"type:varchar(100)" json:"carrier"`
	TrackingNumber string `gorm:"type:varchar(100)" json:"tracking_number"`

	// Populated only at the 발송불가 transition
	CancelledAt  *time.Time `json:"cancelled_at"`
	CancelledBy  string     `gorm:"type:varchar(50)" json:"cancelled_by"`
	CancelReason string     `gorm:"type:varchar(255)" json:"cancel_reason"`
	CancelDetail string     `gorm:"type:text" json:"cancel_detail"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *ProductRecovery) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
