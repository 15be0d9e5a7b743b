package service

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"gorm.io/gorm"
)

// DTOs
type BranchAddressRequest struct {
	AddressType string `json:"address_type" binding:"required,oneof=SHIPPING RETURN"`
	FullAddress string `json:"full_address" binding:"required"`
	IsDefault   bool   `json:"is_default"`
}

type CreateBranchRequest struct {
	Code          string                 `json:"code" binding:"required"`
	Name          string                 `json:"name" binding:"required"`
	Region        string                 `json:"region"`
	ContactPerson string                 `json:"contact_person"`
	Phone         string                 `json:"phone"`
	Email         string                 `json:"email"`
	Addresses     []BranchAddressRequest `json:"addresses"`
}

type UpdateBranchRequest struct {
	Name          string                 `json:"name"`
	Region        string                 `json:"region"`
	ContactPerson string                 `json:"contact_person"`
	Phone         string                 `json:"phone"`
	Email         string                 `json:"email"`
	IsActive      *bool                  `json:"is_active"`
	Addresses     []BranchAddressRequest `json:"addresses"`
}

// BranchService manages the branch directory feeding packing-slip routing
// and per-branch scoping.
type BranchService interface {
	Create(ctx context.Context, req CreateBranchRequest) (*model.Branch, error)
	Update(ctx context.Context, id string, req UpdateBranchRequest) (*model.Branch, error)
	Get(ctx context.Context, id string) (*model.Branch, error)
	List(ctx context.Context, page, limit int, activeOnly bool) ([]model.Branch, int64, error)
}

type branchService struct {
	branchRepo repository.BranchRepository
	txManager  repository.TransactionManager
}

func NewBranchService(branchRepo repository.BranchRepository, txManager repository.TransactionManager) BranchService {
	return &branchService{branchRepo: branchRepo, txManager: txManager}
}

func mapAddresses(reqs []BranchAddressRequest) []model.BranchAddress {
	addresses := make([]model.BranchAddress, 0, len(reqs))
	for _, a := range reqs {
		addresses = append(addresses, model.BranchAddress{
			AddressType: a.AddressType,
			FullAddress: a.FullAddress,
			IsDefault:   a.IsDefault,
		})
	}
	return addresses
}

func (s *branchService) Create(ctx context.Context, req CreateBranchRequest) (*model.Branch, error) {
	if _, err := s.branchRepo.FindByCode(ctx, req.Code); err == nil {
		return nil, errors.New("branch code already exists")
	}

	branch := &model.Branch{
		Code:          req.Code,
		Name:          req.Name,
		Region:        req.Region,
		ContactPerson: req.ContactPerson,
		Phone:         req.Phone,
		Email:         req.Email,
		IsActive:      true,
		Addresses:     mapAddresses(req.Addresses),
	}

	if err := s.branchRepo.Create(ctx, branch); err != nil {
		return nil, fmt.Errorf("failed to create branch: %w", err)
	}
	return branch, nil
}

func (s *branchService) Update(ctx context.Context, id string, req UpdateBranchRequest) (*model.Branch, error) {
	branchID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	branch, err := s.branchRepo.FindByID(ctx, branchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("branch not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.Name != "" {
		branch.Name = req.Name
	}
	if req.Region != "" {
		branch.Region = req.Region
	}
	if req.ContactPerson != "" {
		branch.ContactPerson = req.ContactPerson
	}
	if req.Phone != "" {
		branch.Phone = req.Phone
	}
	if req.Email != "" {
		branch.Email = req.Email
	}
	if req.IsActive != nil {
		branch.IsActive = *req.IsActive
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.branchRepo.Update(txCtx, branch); err != nil {
			return fmt.Errorf("failed to update branch: %w", err)
		}
		if req.Addresses != nil {
			if err := s.branchRepo.ReplaceAddresses(txCtx, branch.ID, mapAddresses(req.Addresses)); err != nil {
				return fmt.Errorf("failed to replace addresses: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.branchRepo.FindByID(ctx, branchID)
}

func (s *branchService) Get(ctx context.Context, id string) (*model.Branch, error) {
	branchID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	branch, err := s.branchRepo.FindByID(ctx, branchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("branch not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return branch, nil
}

func (s *branchService) List(ctx context.Context, page, limit int, activeOnly bool) ([]model.Branch, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.branchRepo.List(ctx, page, limit, activeOnly)
}
