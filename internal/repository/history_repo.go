package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HistoryRepository writes and lists the append-only audit tables. Each
// insert prunes rows beyond the retention limit, oldest first.
type HistoryRepository interface {
	LogStatus(ctx context.Context, entry *model.StatusHistory) error
	LogUpload(ctx context.Context, entry *model.UploadHistory) error
	LogLogin(ctx context.Context, entry *model.LoginHistory) error
	LogSetting(ctx context.Context, entry *model.MaterialSettingHistory) error
	ListStatus(ctx context.Context, page, limit int, recordID *uuid.UUID) ([]model.StatusHistory, int64, error)
	ListUploads(ctx context.Context, page, limit int) ([]model.UploadHistory, int64, error)
	ListLogins(ctx context.Context, page, limit int) ([]model.LoginHistory, int64, error)
	ListSettings(ctx context.Context, page, limit int) ([]model.MaterialSettingHistory, int64, error)
}

type historyRepository struct {
	db *gorm.DB
}

func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

// pruneOldest deletes rows past the retention cap for the given history
// model. Runs after each insert; a failed prune does not fail the insert.
func (r *historyRepository) pruneOldest(ctx context.Context, dest interface{}) {
	db := GetDB(ctx, r.db)

	var total int64
	if err := db.Model(dest).Count(&total).Error; err != nil || total <= model.HistoryRetentionLimit {
		return
	}

	var cutoff struct {
		CreatedAt string
	}
	// The newest HistoryRetentionLimit rows survive; everything older goes.
	err := db.Model(dest).
		Select("created_at").
		Order("created_at desc").
		Offset(model.HistoryRetentionLimit - 1).
		Limit(1).
		Scan(&cutoff).Error
	if err != nil || cutoff.CreatedAt == "" {
		return
	}

	db.Where("created_at < ?", cutoff.CreatedAt).Delete(dest)
}

func (r *historyRepository) LogStatus(ctx context.Context, entry *model.StatusHistory) error {
	if err := GetDB(ctx, r.db).Create(entry).Error; err != nil {
		return err
	}
	r.pruneOldest(ctx, &model.StatusHistory{})
	return nil
}

func (r *historyRepository) LogUpload(ctx context.Context, entry *model.UploadHistory) error {
	if err := GetDB(ctx, r.db).Create(entry).Error; err != nil {
		return err
	}
	r.pruneOldest(ctx, &model.UploadHistory{})
	return nil
}

func (r *historyRepository) LogLogin(ctx context.Context, entry *model.LoginHistory) error {
	if err := GetDB(ctx, r.db).Create(entry).Error; err != nil {
		return err
	}
	r.pruneOldest(ctx, &model.LoginHistory{})
	return nil
}

func (r *historyRepository) LogSetting(ctx context.Context, entry *model.MaterialSettingHistory) error {
	if err := GetDB(ctx, r.db).Create(entry).Error; err != nil {
		return err
	}
	r.pruneOldest(ctx, &model.MaterialSettingHistory{})
	return nil
}

func (r *historyRepository) ListStatus(ctx context.Context, page, limit int, recordID *uuid.UUID) ([]model.StatusHistory, int64, error) {
	var entries []model.StatusHistory
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StatusHistory{})
	if recordID != nil {
		db = db.Where("record_id = ?", *recordID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *historyRepository) ListUploads(ctx context.Context, page, limit int) ([]model.UploadHistory, int64, error) {
	var entries []model.UploadHistory
	var total int64

	db := GetDB(ctx, r.db).Model(&model.UploadHistory{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *historyRepository) ListLogins(ctx context.Context, page, limit int) ([]model.LoginHistory, int64, error) {
	var entries []model.LoginHistory
	var total int64

	db := GetDB(ctx, r.db).Model(&model.LoginHistory{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *historyRepository) ListSettings(ctx context.Context, page, limit int) ([]model.MaterialSettingHistory, int64, error) {
	var entries []model.MaterialSettingHistory
	var total int64

	db := GetDB(ctx, r.db).Model(&model.MaterialSettingHistory{})
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
