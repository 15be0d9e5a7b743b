package repository

import (
	"backend/internal/model"
	"context"

	"gorm.io/gorm"
)

// BackupRepository stores deletion backups and client error reports.
type BackupRepository interface {
	CreateBackup(ctx context.Context, backup *model.DeletionBackup) error
	ListBackups(ctx context.Context, page, limit int) ([]model.DeletionBackup, int64, error)
	CreateErrorLog(ctx context.Context, entry *model.ErrorLog) error
	ListErrorLogs(ctx context.Context, page, limit int) ([]model.ErrorLog, int64, error)
}

type backupRepository struct {
	db *gorm.DB
}

func NewBackupRepository(db *gorm.DB) BackupRepository {
	return &backupRepository{db: db}
}

func (r *backupRepository) CreateBackup(ctx context.Context, backup *model.DeletionBackup) error {
	return GetDB(ctx, r.db).Create(backup).Error
}

func (r *backupRepository) ListBackups(ctx context.Context, page, limit int) ([]model.DeletionBackup, int64, error) {
	var backups []model.DeletionBackup
	var total int64

	db := GetDB(ctx, r.db).Model(&model.DeletionBackup{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&backups).Error; err != nil {
		return nil, 0, err
	}

	return backups, total, nil
}

func (r *backupRepository) CreateErrorLog(ctx context.Context, entry *model.ErrorLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *backupRepository) ListErrorLogs(ctx context.Context, page, limit int) ([]model.ErrorLog, int64, error) {
	var logs []model.ErrorLog
	var total int64

	db := GetDB(ctx, r.db).Model(&model.ErrorLog{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
