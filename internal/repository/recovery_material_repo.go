package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RecoveryMaterialRepository manages the recovery-target allow-list.
type RecoveryMaterialRepository interface {
	Create(ctx context.Context, material *model.RecoveryMaterial) error
	Update(ctx context.Context, material *model.RecoveryMaterial) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RecoveryMaterial, error)
	FindByCode(ctx context.Context, materialCode string) (*model.RecoveryMaterial, error)
	List(ctx context.Context, page, limit int, activeOnly bool) ([]model.RecoveryMaterial, int64, error)
	ActiveCodes(ctx context.Context) (map[string]model.RecoveryMaterial, error)
}

type recoveryMaterialRepository struct {
	db *gorm.DB
}

func NewRecoveryMaterialRepository(db *gorm.DB) RecoveryMaterialRepository {
	return &recoveryMaterialRepository{db: db}
}

func (r *recoveryMaterialRepository) Create(ctx context.Context, material *model.RecoveryMaterial) error {
	return GetDB(ctx, r.db).Create(material).Error
}

func (r *recoveryMaterialRepository) Update(ctx context.Context, material *model.RecoveryMaterial) error {
	return GetDB(ctx, r.db).Save(material).Error
}

func (r *recoveryMaterialRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RecoveryMaterial, error) {
	var material model.RecoveryMaterial
	if err := GetDB(ctx, r.db).First(&material, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *recoveryMaterialRepository) FindByCode(ctx context.Context, materialCode string) (*model.RecoveryMaterial, error) {
	var material model.RecoveryMaterial
	if err := GetDB(ctx, r.db).Where("material_code = ?", materialCode).First(&material).Error; err != nil {
		return nil, err
	}
	return &material, nil
}

func (r *recoveryMaterialRepository) List(ctx context.Context, page, limit int, activeOnly bool) ([]model.RecoveryMaterial, int64, error) {
	var materials []model.RecoveryMaterial
	var total int64

	db := GetDB(ctx, r.db).Model(&model.RecoveryMaterial{})
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("material_code asc").Offset(offset).Limit(limit).Find(&materials).Error; err != nil {
		return nil, 0, err
	}

	return materials, total, nil
}

// ActiveCodes loads the active allow-list keyed by material code, used to
// filter uploaded rows in one pass.
func (r *recoveryMaterialRepository) ActiveCodes(ctx context.Context) (map[string]model.RecoveryMaterial, error) {
	var materials []model.RecoveryMaterial
	if err := GetDB(ctx, r.db).Where("is_active = ?", true).Find(&materials).Error; err != nil {
		return nil, err
	}

	codes := make(map[string]model.RecoveryMaterial, len(materials))
	for _, m := range materials {
		codes[m.MaterialCode] = m
	}
	return codes, nil
}
