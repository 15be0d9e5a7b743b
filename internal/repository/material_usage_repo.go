package repository

import (
	"backend/internal/model"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UsageFilter narrows material usage listings.
type UsageFilter struct {
	Status     string
	BranchCode string
	Search     string // matches request number or material code
	StartDate  *time.Time
	EndDate    *time.Time
}

// MaterialUsageRepository manages defective-part recovery records.
type MaterialUsageRepository interface {
	Create(ctx context.Context, usage *model.MaterialUsage) error
	Update(ctx context.Context, usage *model.MaterialUsage) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.MaterialUsage, error)
	FindByKey(ctx context.Context, requestNumber, branchCode, materialCode string) (*model.MaterialUsage, error)
	List(ctx context.Context, page, limit int, filter UsageFilter) ([]model.MaterialUsage, int64, error)
	ListAll(ctx context.Context, filter UsageFilter) ([]model.MaterialUsage, error)
	FindInRange(ctx context.Context, start, end time.Time) ([]model.MaterialUsage, error)
	DeleteInRange(ctx context.Context, start, end time.Time) (int64, error)
	CountByStatus(ctx context.Context, filter UsageFilter) ([]model.StatusCount, error)
	CountByBranch(ctx context.Context, filter UsageFilter) ([]model.BranchCount, error)
	CountByMaterial(ctx context.Context, filter UsageFilter, limit int) ([]model.MaterialCount, error)
}

type materialUsageRepository struct {
	db *gorm.DB
}

func NewMaterialUsageRepository(db *gorm.DB) MaterialUsageRepository {
	return &materialUsageRepository{db: db}
}

func (r *materialUsageRepository) Create(ctx context.Context, usage *model.MaterialUsage) error {
	return GetDB(ctx, r.db).Create(usage).Error
}

func (r *materialUsageRepository) Update(ctx context.Context, usage *model.MaterialUsage) error {
	return GetDB(ctx, r.db).Save(usage).Error
}

func (r *materialUsageRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.MaterialUsage, error) {
	var usage model.MaterialUsage
	if err := GetDB(ctx, r.db).First(&usage, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &usage, nil
}

// FindByKey looks a row up by its composite natural key.
func (r *materialUsageRepository) FindByKey(ctx context.Context, requestNumber, branchCode, materialCode string) (*model.MaterialUsage, error) {
	var usage model.MaterialUsage
	err := GetDB(ctx, r.db).
		Where("request_number = ? AND branch_code = ? AND material_code = ?", requestNumber, branchCode, materialCode).
		First(&usage).Error
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

func applyUsageFilter(db *gorm.DB, filter UsageFilter) *gorm.DB {
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.BranchCode != "" {
		db = db.Where("branch_code = ?", filter.BranchCode)
	}
	if filter.Search != "" {
		db = db.Where("request_number LIKE ? OR material_code LIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	if filter.StartDate != nil {
		db = db.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		db = db.Where("created_at <= ?", *filter.EndDate)
	}
	return db
}

func (r *materialUsageRepository) List(ctx context.Context, page, limit int, filter UsageFilter) ([]model.MaterialUsage, int64, error) {
	var usages []model.MaterialUsage
	var total int64

	db := applyUsageFilter(GetDB(ctx, r.db).Model(&model.MaterialUsage{}), filter)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&usages).Error; err != nil {
		return nil, 0, err
	}

	return usages, total, nil
}

// ListAll returns every matching row, used by the Excel export.
func (r *materialUsageRepository) ListAll(ctx context.Context, filter UsageFilter) ([]model.MaterialUsage, error) {
	var usages []model.MaterialUsage
	db := applyUsageFilter(GetDB(ctx, r.db).Model(&model.MaterialUsage{}), filter)
	if err := db.Order("created_at desc").Find(&usages).Error; err != nil {
		return nil, err
	}
	return usages, nil
}

func (r *materialUsageRepository) FindInRange(ctx context.Context, start, end time.Time) ([]model.MaterialUsage, error) {
	var usages []model.MaterialUsage
	err := GetDB(ctx, r.db).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Find(&usages).Error
	if err != nil {
		return nil, err
	}
	return usages, nil
}

func (r *materialUsageRepository) DeleteInRange(ctx context.Context, start, end time.Time) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Delete(&model.MaterialUsage{})
	return res.RowsAffected, res.Error
}

func (r *materialUsageRepository) CountByStatus(ctx context.Context, filter UsageFilter) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	db := applyUsageFilter(GetDB(ctx, r.db).Model(&model.MaterialUsage{}), filter)
	err := db.Select("status, COUNT(*) as count").Group("status").Scan(&counts).Error
	return counts, err
}

func (r *materialUsageRepository) CountByBranch(ctx context.Context, filter UsageFilter) ([]model.BranchCount, error) {
	var counts []model.BranchCount
	db := applyUsageFilter(GetDB(ctx, r.db).Model(&model.MaterialUsage{}), filter)
	err := db.Select("branch_code, status, COUNT(*) as count").
		Group("branch_code, status").
		Order("branch_code asc").
		Scan(&counts).Error
	return counts, err
}

func (r *materialUsageRepository) CountByMaterial(ctx context.Context, filter UsageFilter, limit int) ([]model.MaterialCount, error) {
	var counts []model.MaterialCount
	db := applyUsageFilter(GetDB(ctx, r.db).Model(&model.MaterialUsage{}), filter)
	err := db.Select("material_code, material_name, COUNT(*) as count").
		Group("material_code, material_name").
		Order("count DESC").
		Limit(limit).
		Scan(&counts).Error
	return counts, err
}
