package repository

import (
	"backend/internal/model"
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BranchRepository manages the branch (설치법인) directory.
type BranchRepository interface {
	Create(ctx context.Context, branch *model.Branch) error
	Update(ctx context.Context, branch *model.Branch) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Branch, error)
	FindByCode(ctx context.Context, code string) (*model.Branch, error)
	List(ctx context.Context, page, limit int, activeOnly bool) ([]model.Branch, int64, error)
	ReplaceAddresses(ctx context.Context, branchID uuid.UUID, addresses []model.BranchAddress) error
}

type branchRepository struct {
	db *gorm.DB
}

func NewBranchRepository(db *gorm.DB) BranchRepository {
	return &branchRepository{db: db}
}

func (r *branchRepository) Create(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).Create(branch).Error
}

func (r *branchRepository) Update(ctx context.Context, branch *model.Branch) error {
	return GetDB(ctx, r.db).Omit("Addresses").Save(branch).Error
}

func (r *branchRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Branch, error) {
	var branch model.Branch
	if err := GetDB(ctx, r.db).Preload("Addresses").First(&branch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *branchRepository) FindByCode(ctx context.Context, code string) (*model.Branch, error) {
	var branch model.Branch
	if err := GetDB(ctx, r.db).Preload("Addresses").Where("code = ?", code).First(&branch).Error; err != nil {
		return nil, err
	}
	return &branch, nil
}

func (r *branchRepository) List(ctx context.Context, page, limit int, activeOnly bool) ([]model.Branch, int64, error) {
	var branches []model.Branch
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Branch{})
	if activeOnly {
		db = db.Where("is_active = ?", true)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("Addresses").Order("code asc").Offset(offset).Limit(limit).Find(&branches).Error; err != nil {
		return nil, 0, err
	}

	return branches, total, nil
}

// ReplaceAddresses swaps the full address set of a branch.
func (r *branchRepository) ReplaceAddresses(ctx context.Context, branchID uuid.UUID, addresses []model.BranchAddress) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("branch_id = ?", branchID).Delete(&model.BranchAddress{}).Error; err != nil {
		return err
	}
	for i := range addresses {
		addresses[i].BranchID = branchID
	}
	if len(addresses) == 0 {
		return nil
	}
	return db.Create(&addresses).Error
}
