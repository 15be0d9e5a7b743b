package service

import (
	"context"
	"sort"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
)

// ReportService aggregates pipeline counts for dashboards, calendars and
// printable reports.
type ReportService interface {
	MaterialSummary(ctx context.Context, actor Actor, startDate, endDate time.Time) (model.RecoverySummaryResponse, error)
	ProductSummary(ctx context.Context, actor Actor, startDate, endDate time.Time) (model.ProductSummaryResponse, error)
}

type reportService struct {
	usageRepo   repository.MaterialUsageRepository
	productRepo repository.ProductRecoveryRepository
}

func NewReportService(usageRepo repository.MaterialUsageRepository, productRepo repository.ProductRecoveryRepository) ReportService {
	return &reportService{usageRepo: usageRepo, productRepo: productRepo}
}

func (s *reportService) MaterialSummary(ctx context.Context, actor Actor, startDate, endDate time.Time) (model.RecoverySummaryResponse, error) {
	var response model.RecoverySummaryResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	filter := repository.UsageFilter{StartDate: &startDate, EndDate: &endDate}
	if !actor.IsAdmin() {
		filter.BranchCode = actor.BranchCode
	}

	statusCounts, err := s.usageRepo.CountByStatus(ctx, filter)
	if err != nil {
		return response, err
	}
	response.StatusCounts = statusCounts

	branchCounts, err := s.usageRepo.CountByBranch(ctx, filter)
	if err != nil {
		return response, err
	}
	response.BranchCounts = branchCounts

	materialCounts, err := s.usageRepo.CountByMaterial(ctx, filter, 10)
	if err != nil {
		return response, err
	}
	response.MaterialCounts = materialCounts

	return response, nil
}

func (s *reportService) ProductSummary(ctx context.Context, actor Actor, startDate, endDate time.Time) (model.ProductSummaryResponse, error) {
	var response model.ProductSummaryResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	filter := repository.RecoveryFilter{StartDate: &startDate, EndDate: &endDate}
	if !actor.IsAdmin() {
		filter.BranchCode = actor.BranchCode
	}

	statusCounts, err := s.productRepo.CountByStatus(ctx, filter)
	if err != nil {
		return response, err
	}
	response.StatusCounts = statusCounts

	penaltyTotals, err := s.productRepo.SumPenaltyByStatus(ctx, filter)
	if err != nil {
		return response, err
	}
	response.PenaltyTotals = penaltyTotals

	autoSelected, err := s.productRepo.CountAutoSelected(ctx, filter)
	if err != nil {
		return response, err
	}
	response.AutoSelectedCount = autoSelected

	// Calendar counts are grouped in application code to stay portable
	// across database date functions.
	rows, err := s.productRepo.ListAll(ctx, filter)
	if err != nil {
		return response, err
	}
	perDay := make(map[string]int64)
	for _, row := range rows {
		perDay[row.TerminationRequestDate.Format("2006-01-02")]++
	}
	days := make([]string, 0, len(perDay))
	for day := range perDay {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		response.CalendarCounts = append(response.CalendarCounts, model.CalendarCount{Date: day, Count: perDay[day]})
	}

	return response, nil
}
