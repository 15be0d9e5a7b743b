package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role enum constants
const (
	RoleAdminCS      = "admin_cs"      // customer-service admin, full control
	RoleAdminQuality = "admin_quality" // central quality team
	RoleBranch       = "branch"        // regional installation company (설치법인)
)

// User represents an actor in the recovery pipeline. Branch users carry the
// branch code their rows are scoped to; admin users leave it empty.
type User struct {
	ID                 uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserCode           string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"user_code"`
	Name               string         `gorm:"type:varchar(255);not null" json:"name"`
	Role               string         `gorm:"type:varchar(50);not null" json:"role"` // admin_cs, admin_quality, branch
	BranchCode         string         `gorm:"type:varchar(50);index" json:"branch_code"`
	Password           string         `gorm:"type:varchar(255);not null" json:"-"` // Omit password from JSON requests/responses
	MustChangePassword bool           `gorm:"default:false" json:"must_change_password"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"` // GORM soft delete
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
