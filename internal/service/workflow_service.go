package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor identifies the user performing a mutation, taken from the JWT claims.
type Actor struct {
	UserCode   string
	Role       string
	BranchCode string
}

// IsAdmin reports whether the actor may touch rows of any branch.
func (a Actor) IsAdmin() bool {
	return a.Role == model.RoleAdminCS || a.Role == model.RoleAdminQuality
}

// TransitionRequest carries a target status plus its status-specific payload.
// Carrier and tracking number are required for 발송; reason is required for
// 발송불가. No ordering guard is applied: skipping states and moving backward
// are allowed on purpose so admins can correct branch mistakes at any point.
type TransitionRequest struct {
	Status         string `json:"status" binding:"required"`
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
	Reason         string `json:"reason"`
	Detail         string `json:"detail"`
}

type BulkTransitionRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
	TransitionRequest
}

// BulkFailure reports one id that could not be transitioned.
type BulkFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// BulkTransitionResult reports the per-id outcome of a bulk update. Earlier
// successes are never rolled back when a later id fails.
type BulkTransitionResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []BulkFailure `json:"failed"`
}

var (
	ErrUnknownStatus    = errors.New("unknown target status")
	ErrCarrierRequired  = errors.New("carrier and tracking number are required for 발송")
	ErrReasonRequired   = errors.New("cancel reason is required for 발송불가")
	ErrBranchMismatch   = errors.New("record belongs to another branch")
	ErrCancelNotAllowed = errors.New("발송불가 applies to product recoveries only")
)

// WorkflowService advances recovery records through their status lifecycle,
// writing one status history row per transition in the same transaction.
type WorkflowService interface {
	TransitionMaterial(ctx context.Context, actor Actor, id string, req TransitionRequest) (*model.MaterialUsage, error)
	TransitionProduct(ctx context.Context, actor Actor, id string, req TransitionRequest) (*model.ProductRecovery, error)
	BulkTransitionMaterials(ctx context.Context, actor Actor, req BulkTransitionRequest) BulkTransitionResult
	BulkTransitionProducts(ctx context.Context, actor Actor, req BulkTransitionRequest) BulkTransitionResult
	SelectProduct(ctx context.Context, actor Actor, id string) (*model.ProductRecovery, error)
}

type workflowService struct {
	usageRepo   repository.MaterialUsageRepository
	productRepo repository.ProductRecoveryRepository
	historyRepo repository.HistoryRepository
	txManager   repository.TransactionManager
	hub         *ws.Hub
}

func NewWorkflowService(
	usageRepo repository.MaterialUsageRepository,
	productRepo repository.ProductRecoveryRepository,
	historyRepo repository.HistoryRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) WorkflowService {
	return &workflowService{
		usageRepo:   usageRepo,
		productRepo: productRepo,
		historyRepo: historyRepo,
		txManager:   txManager,
		hub:         hub,
	}
}

func validMaterialStatus(status string) bool {
	switch status {
	case model.StatusWaiting, model.StatusCollected, model.StatusShipped, model.StatusReceived:
		return true
	}
	return false
}

func validProductStatus(status string) bool {
	return validMaterialStatus(status) || status == model.StatusCancelled || status == model.StatusUnselected
}

func validatePayload(req TransitionRequest) error {
	switch req.Status {
	case model.StatusShipped:
		if req.Carrier == "" || req.TrackingNumber == "" {
			return ErrCarrierRequired
		}
	case model.StatusCancelled:
		if req.Reason == "" {
			return ErrReasonRequired
		}
	}
	return nil
}

func transitionPayload(req TransitionRequest) string {
	payload := map[string]string{}
	if req.Carrier != "" {
		payload["carrier"] = req.Carrier
	}
	if req.TrackingNumber != "" {
		payload["tracking_number"] = req.TrackingNumber
	}
	if req.Reason != "" {
		payload["reason"] = req.Reason
	}
	if req.Detail != "" {
		payload["detail"] = req.Detail
	}
	// The column is jsonb, so an empty payload must still be valid JSON.
	if len(payload) == 0 {
		return "{}"
	}
	b, _ := json.Marshal(payload)
	return string(b)
}

func (s *workflowService) TransitionMaterial(ctx context.Context, actor Actor, id string, req TransitionRequest) (*model.MaterialUsage, error) {
	usageID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid record id: %w", err)
	}
	if !validMaterialStatus(req.Status) {
		return nil, ErrUnknownStatus
	}
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	usage, err := s.usageRepo.FindByID(ctx, usageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("record not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !actor.IsAdmin() && usage.BranchCode != actor.BranchCode {
		return nil, ErrBranchMismatch
	}

	previous := usage.Status
	now := time.Now()
	usage.Status = req.Status
	switch req.Status {
	case model.StatusCollected:
		usage.CollectedAt = &now
		usage.CollectedBy = actor.UserCode
	case model.StatusShipped:
		usage.ShippedAt = &now
		usage.ShippedBy = actor.UserCode
		usage.Carrier = req.Carrier
		usage.TrackingNumber = req.TrackingNumber
	case model.StatusReceived:
		usage.ReceivedAt = &now
		usage.ReceivedBy = actor.UserCode
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.usageRepo.Update(txCtx, usage); err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}
		entry := &model.StatusHistory{
			RecordKind:     model.KindMaterial,
			RecordID:       usage.ID,
			RecordKey:      fmt.Sprintf("%s/%s/%s", usage.RequestNumber, usage.BranchCode, usage.MaterialCode),
			PreviousStatus: previous,
			NewStatus:      req.Status,
			ActorCode:      actor.UserCode,
			Payload:        transitionPayload(req),
		}
		if err := s.historyRepo.LogStatus(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("material.status_changed", usage.ID.String(), previous, req.Status)
	return usage, nil
}

func (s *workflowService) TransitionProduct(ctx context.Context, actor Actor, id string, req TransitionRequest) (*model.ProductRecovery, error) {
	recoveryID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid record id: %w", err)
	}
	if !validProductStatus(req.Status) {
		return nil, ErrUnknownStatus
	}
	if err := validatePayload(req); err != nil {
		return nil, err
	}

	recovery, err := s.productRepo.FindByID(ctx, recoveryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("record not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !actor.IsAdmin() && recovery.BranchCode != actor.BranchCode {
		return nil, ErrBranchMismatch
	}

	previous := recovery.Status
	now := time.Now()
	recovery.Status = req.Status
	switch req.Status {
	case model.StatusCollected:
		recovery.CollectedAt = &now
		recovery.CollectedBy = actor.UserCode
	case model.StatusShipped:
		recovery.ShippedAt = &now
		recovery.ShippedBy = actor.UserCode
		recovery.Carrier = req.Carrier
		recovery.TrackingNumber = req.TrackingNumber
	case model.StatusReceived:
		recovery.ReceivedAt = &now
		recovery.ReceivedBy = actor.UserCode
	case model.StatusCancelled:
		recovery.CancelledAt = &now
		recovery.CancelledBy = actor.UserCode
		recovery.CancelReason = req.Reason
		recovery.CancelDetail = req.Detail
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, recovery); err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}
		entry := &model.StatusHistory{
			RecordKind:     model.KindProduct,
			RecordID:       recovery.ID,
			RecordKey:      fmt.Sprintf("%s/%s", recovery.CustomerNumber, recovery.ModelName),
			PreviousStatus: previous,
			NewStatus:      req.Status,
			ActorCode:      actor.UserCode,
			Payload:        transitionPayload(req),
		}
		if err := s.historyRepo.LogStatus(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("product.status_changed", recovery.ID.String(), previous, req.Status)
	return recovery, nil
}

// BulkTransitionMaterials applies the transition per id sequentially, each in
// its own transaction. A failing id is reported and left unmodified; earlier
// successes stand.
func (s *workflowService) BulkTransitionMaterials(ctx context.Context, actor Actor, req BulkTransitionRequest) BulkTransitionResult {
	var result BulkTransitionResult
	for _, id := range req.IDs {
		if _, err := s.TransitionMaterial(ctx, actor, id, req.TransitionRequest); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

func (s *workflowService) BulkTransitionProducts(ctx context.Context, actor Actor, req BulkTransitionRequest) BulkTransitionResult {
	var result BulkTransitionResult
	for _, id := range req.IDs {
		if _, err := s.TransitionProduct(ctx, actor, id, req.TransitionRequest); err != nil {
			result.Failed = append(result.Failed, BulkFailure{ID: id, Error: err.Error()})
			continue
		}
		result.Succeeded = append(result.Succeeded, id)
	}
	return result
}

// SelectProduct promotes a 미선택 row to 회수대기 after manual operator review.
func (s *workflowService) SelectProduct(ctx context.Context, actor Actor, id string) (*model.ProductRecovery, error) {
	recoveryID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid record id: %w", err)
	}

	recovery, err := s.productRepo.FindByID(ctx, recoveryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("record not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}

	previous := recovery.Status
	now := time.Now()
	recovery.Status = model.StatusWaiting
	recovery.SelectedAt = &now
	recovery.SelectedBy = actor.UserCode

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, recovery); err != nil {
			return fmt.Errorf("failed to update record: %w", err)
		}
		entry := &model.StatusHistory{
			RecordKind:     model.KindProduct,
			RecordID:       recovery.ID,
			RecordKey:      fmt.Sprintf("%s/%s", recovery.CustomerNumber, recovery.ModelName),
			PreviousStatus: previous,
			NewStatus:      model.StatusWaiting,
			ActorCode:      actor.UserCode,
			Payload:        "{}",
		}
		if err := s.historyRepo.LogStatus(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write status history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcast("product.selected", recovery.ID.String(), previous, model.StatusWaiting)
	return recovery, nil
}

// broadcast notifies connected clients so they can debounce and refetch.
func (s *workflowService) broadcast(event, id, previous, next string) {
	if s.hub == nil {
		return
	}
	msg, _ := json.Marshal(map[string]interface{}{
		"event": event,
		"data": map[string]string{
			"id":              id,
			"previous_status": previous,
			"new_status":      next,
		},
	})
	select {
	case s.hub.Broadcast <- msg:
	default:
	}
}
