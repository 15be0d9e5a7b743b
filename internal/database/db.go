package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate auto-migrates the core models. Shared with tests running against
// an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Branch{},
		&model.BranchAddress{},
		&model.RecoveryMaterial{},
		&model.MaterialUsage{},
		&model.ProductRecovery{},
		&model.StatusHistory{},
		&model.UploadHistory{},
		&model.LoginHistory{},
		&model.MaterialSettingHistory{},
		&model.DeletionBackup{},
		&model.ErrorLog{},
	)
}
