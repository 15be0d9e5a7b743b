package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AddressType enum constants
const (
	AddressTypeShipping = "SHIPPING" // where the branch ships collected items from
	AddressTypeReturn   = "RETURN"   // printed as sender on packing slips
)

// Branch represents a regional installation company (설치법인) that collects
// defective parts and returned appliances and ships them to the quality team.
type Branch struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Code          string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Region        string          `gorm:"type:varchar(100)" json:"region"`
	ContactPerson string          `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string          `gorm:"type:varchar(50)" json:"phone"`
	Email         string          `gorm:"type:varchar(255)" json:"email"`
	IsActive      bool            `gorm:"default:true" json:"is_active"`
	Addresses     []BranchAddress `gorm:"foreignKey:BranchID;constraint:OnDelete:CASCADE" json:"addresses"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     gorm.DeletedAt  `gorm:"index" json:"-"`
}

func (b *Branch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BranchAddress represents a branch's address (Shipping, Return)
type BranchAddress struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BranchID    uuid.UUID `gorm:"type:uuid;not null;index" json:"branch_id"`
	AddressType string    `gorm:"type:varchar(20);not null" json:"address_type"` // SHIPPING, RETURN
	FullAddress string    `gorm:"type:text;not null" json:"full_address"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (a *BranchAddress) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
