package service

import (
	"context"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// HistoryService lists the append-only audit tables.
type HistoryService interface {
	StatusHistory(ctx context.Context, page, limit int, recordID string) ([]model.StatusHistory, int64, error)
	UploadHistory(ctx context.Context, page, limit int) ([]model.UploadHistory, int64, error)
	LoginHistory(ctx context.Context, page, limit int) ([]model.LoginHistory, int64, error)
	SettingHistory(ctx context.Context, page, limit int) ([]model.MaterialSettingHistory, int64, error)
}

type historyService struct {
	historyRepo repository.HistoryRepository
}

func NewHistoryService(historyRepo repository.HistoryRepository) HistoryService {
	return &historyService{historyRepo: historyRepo}
}

func (s *historyService) StatusHistory(ctx context.Context, page, limit int, recordID string) ([]model.StatusHistory, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var filter *uuid.UUID
	if recordID != "" {
		parsed, err := uuid.Parse(recordID)
		if err == nil {
			filter = &parsed
		}
	}
	return s.historyRepo.ListStatus(ctx, page, limit, filter)
}

func (s *historyService) UploadHistory(ctx context.Context, page, limit int) ([]model.UploadHistory, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.historyRepo.ListUploads(ctx, page, limit)
}

func (s *historyService) LoginHistory(ctx context.Context, page, limit int) ([]model.LoginHistory, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.historyRepo.ListLogins(ctx, page, limit)
}

func (s *historyService) SettingHistory(ctx context.Context, page, limit int) ([]model.MaterialSettingHistory, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.historyRepo.ListSettings(ctx, page, limit)
}
