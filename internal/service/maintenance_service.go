package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
)

// ConfirmationPhrase must be typed verbatim before a bulk delete runs.
const ConfirmationPhrase = "삭제합니다"

var ErrConfirmationPhrase = errors.New("confirmation phrase does not match")

// DeleteRangeRequest asks for every recovery row created inside the range to
// be backed up and removed.
type DeleteRangeRequest struct {
	StartDate    string `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate      string `json:"end_date" binding:"required"`
	Confirmation string `json:"confirmation" binding:"required"`
}

// DeleteRangeResult reports what was removed.
type DeleteRangeResult struct {
	BackupID          string `json:"backup_id"`
	MaterialUsages    int    `json:"material_usages"`
	ProductRecoveries int    `json:"product_recoveries"`
}

// ErrorReportRequest is the client error intake payload.
type ErrorReportRequest struct {
	Message   string `json:"message" binding:"required"`
	Stack     string `json:"stack"`
	Path      string `json:"path"`
	UserAgent string `json:"user_agent"`
}

// MaintenanceService covers the destructive admin operations: bulk delete
// with backup, backup listing and client error intake.
type MaintenanceService interface {
	DeleteRange(ctx context.Context, actor Actor, req DeleteRangeRequest) (*DeleteRangeResult, error)
	ListBackups(ctx context.Context, page, limit int) ([]model.DeletionBackup, int64, error)
	ReportError(ctx context.Context, actor Actor, req ErrorReportRequest) error
	ListErrorLogs(ctx context.Context, page, limit int) ([]model.ErrorLog, int64, error)
}

type maintenanceService struct {
	usageRepo   repository.MaterialUsageRepository
	productRepo repository.ProductRecoveryRepository
	backupRepo  repository.BackupRepository
	txManager   repository.TransactionManager
}

func NewMaintenanceService(
	usageRepo repository.MaterialUsageRepository,
	productRepo repository.ProductRecoveryRepository,
	backupRepo repository.BackupRepository,
	txManager repository.TransactionManager,
) MaintenanceService {
	return &maintenanceService{
		usageRepo:   usageRepo,
		productRepo: productRepo,
		backupRepo:  backupRepo,
		txManager:   txManager,
	}
}

// DeleteRange writes one backup row holding every matched record, then
// deletes them inside the same transaction. A failed backup write means
// nothing is deleted.
func (s *maintenanceService) DeleteRange(ctx context.Context, actor Actor, req DeleteRangeRequest) (*DeleteRangeResult, error) {
	if req.Confirmation != ConfirmationPhrase {
		return nil, ErrConfirmationPhrase
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date: %w", err)
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date: %w", err)
	}
	// Inclusive end of day
	end = end.Add(24*time.Hour - time.Second)
	if end.Before(start) {
		return nil, errors.New("end date precedes start date")
	}

	var result DeleteRangeResult

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		usages, err := s.usageRepo.FindInRange(txCtx, start, end)
		if err != nil {
			return fmt.Errorf("failed to collect material usages: %w", err)
		}
		recoveries, err := s.productRepo.FindInRange(txCtx, start, end)
		if err != nil {
			return fmt.Errorf("failed to collect product recoveries: %w", err)
		}

		payload, err := json.Marshal(map[string]interface{}{
			"material_usages":    usages,
			"product_recoveries": recoveries,
		})
		if err != nil {
			return fmt.Errorf("failed to serialize backup: %w", err)
		}

		backup := &model.DeletionBackup{
			ActorCode:   actor.UserCode,
			RangeStart:  start,
			RangeEnd:    end,
			RecordCount: len(usages) + len(recoveries),
			Payload:     string(payload),
		}
		// Backup first; deletion never happens without it.
		if err := s.backupRepo.CreateBackup(txCtx, backup); err != nil {
			return fmt.Errorf("failed to write backup: %w", err)
		}

		deletedUsages, err := s.usageRepo.DeleteInRange(txCtx, start, end)
		if err != nil {
			return fmt.Errorf("failed to delete material usages: %w", err)
		}
		deletedRecoveries, err := s.productRepo.DeleteInRange(txCtx, start, end)
		if err != nil {
			return fmt.Errorf("failed to delete product recoveries: %w", err)
		}

		result = DeleteRangeResult{
			BackupID:          backup.ID.String(),
			MaterialUsages:    int(deletedUsages),
			ProductRecoveries: int(deletedRecoveries),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *maintenanceService) ListBackups(ctx context.Context, page, limit int) ([]model.DeletionBackup, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.backupRepo.ListBackups(ctx, page, limit)
}

func (s *maintenanceService) ReportError(ctx context.Context, actor Actor, req ErrorReportRequest) error {
	entry := &model.ErrorLog{
		UserCode:  actor.UserCode,
		Message:   req.Message,
		Stack:     req.Stack,
		Path:      req.Path,
		UserAgent: req.UserAgent,
	}
	return s.backupRepo.CreateErrorLog(ctx, entry)
}

func (s *maintenanceService) ListErrorLogs(ctx context.Context, page, limit int) ([]model.ErrorLog, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.backupRepo.ListErrorLogs(ctx, page, limit)
}
