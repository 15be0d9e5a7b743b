package repository

import (
	"backend/internal/model"
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecoveryFilter narrows product recovery listings.
type RecoveryFilter struct {
	Status     string
	BranchCode string
	Search     string // matches customer number or model name
	StartDate  *time.Time
	EndDate    *time.Time
}

// ProductRecoveryRepository manages returned-appliance recovery records.
type ProductRecoveryRepository interface {
	Create(ctx context.Context, recovery *model.ProductRecovery) error
	Update(ctx context.Context, recovery *model.ProductRecovery) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ProductRecovery, error)
	FindByKey(ctx context.Context, customerNumber, modelName string, terminationDate time.Time) (*model.ProductRecovery, error)
	List(ctx context.Context, page, limit int, filter RecoveryFilter) ([]model.ProductRecovery, int64, error)
	ListAll(ctx context.Context, filter RecoveryFilter) ([]model.ProductRecovery, error)
	FindInRange(ctx context.Context, start, end time.Time) ([]model.ProductRecovery, error)
	DeleteInRange(ctx context.Context, start, end time.Time) (int64, error)
	CountByStatus(ctx context.Context, filter RecoveryFilter) ([]model.StatusCount, error)
	SumPenaltyByStatus(ctx context.Context, filter RecoveryFilter) ([]model.PenaltyTotal, error)
	CountAutoSelected(ctx context.Context, filter RecoveryFilter) (int64, error)
}

type productRecoveryRepository struct {
	db *gorm.DB
}

func NewProductRecoveryRepository(db *gorm.DB) ProductRecoveryRepository {
	return &productRecoveryRepository{db: db}
}

func (r *productRecoveryRepository) Create(ctx context.Context, recovery *model.ProductRecovery) error {
	return GetDB(ctx, r.db).Create(recovery).Error
}

func (r *productRecoveryRepository) Update(ctx context.Context, recovery *model.ProductRecovery) error {
	return GetDB(ctx, r.db).Save(recovery).Error
}

func (r *productRecoveryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.ProductRecovery, error) {
	var recovery model.ProductRecovery
	if err := GetDB(ctx, r.db).First(&recovery, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &recovery, nil
}

// FindByKey looks a row up by its composite natural key.
func (r *productRecoveryRepository) FindByKey(ctx context.Context, customerNumber, modelName string, terminationDate time.Time) (*model.ProductRecovery, error) {
	var recovery model.ProductRecovery
	err := GetDB(ctx, r.db).
		Where("customer_number = ? AND model_name = ? AND termination_request_date = ?", customerNumber, modelName, terminationDate).
		First(&recovery).Error
	if err != nil {
		return nil, err
	}
	return &recovery, nil
}

func applyRecoveryFilter(db *gorm.DB, filter RecoveryFilter) *gorm.DB {
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.BranchCode != "" {
		db = db.Where("branch_code = ?", filter.BranchCode)
	}
	if filter.Search != "" {
		db = db.Where("customer_number LIKE ? OR model_name LIKE ?", "%"+filter.Search+"%", "%"+filter.Search+"%")
	}
	if filter.StartDate != nil {
		db = db.Where("created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		db = db.Where("created_at <= ?", *filter.EndDate)
	}
	return db
}

func (r *productRecoveryRepository) List(ctx context.Context, page, limit int, filter RecoveryFilter) ([]model.ProductRecovery, int64, error) {
	var recoveries []model.ProductRecovery
	var total int64

	db := applyRecoveryFilter(GetDB(ctx, r.db).Model(&model.ProductRecovery{}), filter)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&recoveries).Error; err != nil {
		return nil, 0, err
	}

	return recoveries, total, nil
}

func (r *productRecoveryRepository) ListAll(ctx context.Context, filter RecoveryFilter) ([]model.ProductRecovery, error) {
	var recoveries []model.ProductRecovery
	db := applyRecoveryFilter(GetDB(ctx, r.db).Model(&model.ProductRecovery{}), filter)
	if err := db.Order("created_at desc").Find(&recoveries).Error; err != nil {
		return nil, err
	}
	return recoveries, nil
}

func (r *productRecoveryRepository) FindInRange(ctx context.Context, start, end time.Time) ([]model.ProductRecovery, error) {
	var recoveries []model.ProductRecovery
	err := GetDB(ctx, r.db).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Find(&recoveries).Error
	if err != nil {
		return nil, err
	}
	return recoveries, nil
}

func (r *productRecoveryRepository) DeleteInRange(ctx context.Context, start, end time.Time) (int64, error) {
	res := GetDB(ctx, r.db).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Delete(&model.ProductRecovery{})
	return res.RowsAffected, res.Error
}

func (r *productRecoveryRepository) CountByStatus(ctx context.Context, filter RecoveryFilter) ([]model.StatusCount, error) {
	var counts []model.StatusCount
	db := applyRecoveryFilter(GetDB(ctx, r.db).Model(&model.ProductRecovery{}), filter)
	err := db.Select("status, COUNT(*) as count").Group("status").Scan(&counts).Error
	return counts, err
}

func (r *productRecoveryRepository) SumPenaltyByStatus(ctx context.Context, filter RecoveryFilter) ([]model.PenaltyTotal, error) {
	var totals []model.PenaltyTotal
	db := applyRecoveryFilter(GetDB(ctx, r.db).Model(&model.ProductRecovery{}), filter)
	err := db.Select("status, SUM(penalty_amount) as total").Group("status").Scan(&totals).Error
	return totals, err
}

func (r *productRecoveryRepository) CountAutoSelected(ctx context.Context, filter RecoveryFilter) (int64, error) {
	var count int64
	db := applyRecoveryFilter(GetDB(ctx, r.db).Model(&model.ProductRecovery{}), filter)
	err := db.Where("auto_selected = ?", true).Count(&count).Error
	return count, err
}
