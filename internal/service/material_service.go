package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"backend/internal/model"
	"backend/internal/repository"

	"gorm.io/gorm"
)

// DTOs
type CreateMaterialRequest struct {
	MaterialCode string `json:"material_code" binding:"required"`
	MaterialName string `json:"material_name" binding:"required"`
	SerialFrom   string `json:"serial_from"`
	SerialTo     string `json:"serial_to"`
	Note         string `json:"note"`
}

type UpdateMaterialRequest struct {
	MaterialName string `json:"material_name"`
	SerialFrom   string `json:"serial_from"`
	SerialTo     string `json:"serial_to"`
	Note         string `json:"note"`
}

// MaterialService manages the recovery-target allow-list. Every mutation
// appends a MaterialSettingHistory row in the same transaction.
type MaterialService interface {
	Create(ctx context.Context, actor Actor, req CreateMaterialRequest) (*model.RecoveryMaterial, error)
	Update(ctx context.Context, actor Actor, id string, req UpdateMaterialRequest) (*model.RecoveryMaterial, error)
	SetActive(ctx context.Context, actor Actor, id string, active bool) (*model.RecoveryMaterial, error)
	List(ctx context.Context, page, limit int, activeOnly bool) ([]model.RecoveryMaterial, int64, error)
}

type materialService struct {
	materialRepo repository.RecoveryMaterialRepository
	historyRepo  repository.HistoryRepository
	txManager    repository.TransactionManager
}

func NewMaterialService(
	materialRepo repository.RecoveryMaterialRepository,
	historyRepo repository.HistoryRepository,
	txManager repository.TransactionManager,
) MaterialService {
	return &materialService{
		materialRepo: materialRepo,
		historyRepo:  historyRepo,
		txManager:    txManager,
	}
}

func (s *materialService) logSetting(ctx context.Context, actor Actor, action, materialCode string, details interface{}) error {
	payload, _ := json.Marshal(details)
	entry := &model.MaterialSettingHistory{
		Action:       action,
		MaterialCode: materialCode,
		ActorCode:    actor.UserCode,
		Details:      string(payload),
	}
	if err := s.historyRepo.LogSetting(ctx, entry); err != nil {
		return fmt.Errorf("failed to write setting history: %w", err)
	}
	return nil
}

func (s *materialService) Create(ctx context.Context, actor Actor, req CreateMaterialRequest) (*model.RecoveryMaterial, error) {
	if _, err := s.materialRepo.FindByCode(ctx, req.MaterialCode); err == nil {
		return nil, errors.New("material code already exists")
	}

	material := &model.RecoveryMaterial{
		MaterialCode: req.MaterialCode,
		MaterialName: req.MaterialName,
		SerialFrom:   req.SerialFrom,
		SerialTo:     req.SerialTo,
		Note:         req.Note,
		IsActive:     true,
		CreatedBy:    actor.UserCode,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.materialRepo.Create(txCtx, material); err != nil {
			return fmt.Errorf("failed to create material: %w", err)
		}
		return s.logSetting(txCtx, actor, model.SettingActionCreate, material.MaterialCode, req)
	})
	if err != nil {
		return nil, err
	}

	return material, nil
}

func (s *materialService) Update(ctx context.Context, actor Actor, id string, req UpdateMaterialRequest) (*model.RecoveryMaterial, error) {
	materialID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	material, err := s.materialRepo.FindByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("material not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if req.MaterialName != "" {
		material.MaterialName = req.MaterialName
	}
	material.SerialFrom = req.SerialFrom
	material.SerialTo = req.SerialTo
	material.Note = req.Note

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.materialRepo.Update(txCtx, material); err != nil {
			return fmt.Errorf("failed to update material: %w", err)
		}
		return s.logSetting(txCtx, actor, model.SettingActionUpdate, material.MaterialCode, req)
	})
	if err != nil {
		return nil, err
	}

	return material, nil
}

// SetActive toggles the allow-list flag. Deactivation is soft so existing
// recovery rows keep their history.
func (s *materialService) SetActive(ctx context.Context, actor Actor, id string, active bool) (*model.RecoveryMaterial, error) {
	materialID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	material, err := s.materialRepo.FindByID(ctx, materialID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("material not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	material.IsActive = active
	action := model.SettingActionDeactivate
	if active {
		action = model.SettingActionActivate
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.materialRepo.Update(txCtx, material); err != nil {
			return fmt.Errorf("failed to update material: %w", err)
		}
		return s.logSetting(txCtx, actor, action, material.MaterialCode, map[string]bool{"is_active": active})
	})
	if err != nil {
		return nil, err
	}

	return material, nil
}

func (s *materialService) List(ctx context.Context, page, limit int, activeOnly bool) ([]model.RecoveryMaterial, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.materialRepo.List(ctx, page, limit, activeOnly)
}
