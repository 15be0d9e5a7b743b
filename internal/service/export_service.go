package service

import (
	"context"
	"fmt"
	"time"

	"backend/internal/repository"

	"github.com/xuri/excelize/v2"
)

// Export headers mirror the import schema plus the computed status columns.
var usageExportHeaders = []string{
	"의뢰번호", "법인코드", "자재코드", "자재명", "시리얼", "수량", "사용일자",
	"상태", "회수완료일", "회수자", "발송일", "발송자", "택배사", "송장번호", "입고완료일", "입고자",
}

var productExportHeaders = []string{
	"고객번호", "모델명", "해지요청일", "승인상태", "법인코드", "고객명", "위약금",
	"상태", "자동선정", "회수완료일", "발송일", "택배사", "송장번호", "입고완료일", "발송불가사유",
}

// ExportService builds Excel workbooks mirroring the upload schema.
type ExportService interface {
	UsageWorkbook(ctx context.Context, actor Actor, filter repository.UsageFilter) (*excelize.File, string, error)
	ProductWorkbook(ctx context.Context, actor Actor, filter repository.RecoveryFilter) (*excelize.File, string, error)
}

type exportService struct {
	usageRepo   repository.MaterialUsageRepository
	productRepo repository.ProductRecoveryRepository
}

func NewExportService(usageRepo repository.MaterialUsageRepository, productRepo repository.ProductRecoveryRepository) ExportService {
	return &exportService{usageRepo: usageRepo, productRepo: productRepo}
}

func newWorkbook(sheet string, headers []string) (*excelize.File, error) {
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheet)

	boldStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}

	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, boldStyle)
	}
	return f, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func (s *exportService) UsageWorkbook(ctx context.Context, actor Actor, filter repository.UsageFilter) (*excelize.File, string, error) {
	if !actor.IsAdmin() {
		filter.BranchCode = actor.BranchCode
	}

	usages, err := s.usageRepo.ListAll(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load rows: %w", err)
	}

	sheet := "자재회수"
	f, err := newWorkbook(sheet, usageExportHeaders)
	if err != nil {
		return nil, "", err
	}

	for rowIdx, u := range usages {
		row := rowIdx + 2
		values := []interface{}{
			u.RequestNumber, u.BranchCode, u.MaterialCode, u.MaterialName, u.Serial, u.Quantity,
			u.UsedDate.Format("2006-01-02"), u.Status,
			formatDate(u.CollectedAt), u.CollectedBy,
			formatDate(u.ShippedAt), u.ShippedBy, u.Carrier, u.TrackingNumber,
			formatDate(u.ReceivedAt), u.ReceivedBy,
		}
		for i, v := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	fileName := fmt.Sprintf("material_recovery_%s.xlsx", time.Now().Format("20060102"))
	return f, fileName, nil
}

func (s *exportService) ProductWorkbook(ctx context.Context, actor Actor, filter repository.RecoveryFilter) (*excelize.File, string, error) {
	if !actor.IsAdmin() {
		filter.BranchCode = actor.BranchCode
	}

	recoveries, err := s.productRepo.ListAll(ctx, filter)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load rows: %w", err)
	}

	sheet := "제품회수"
	f, err := newWorkbook(sheet, productExportHeaders)
	if err != nil {
		return nil, "", err
	}

	for rowIdx, p := range recoveries {
		row := rowIdx + 2
		autoSelected := ""
		if p.AutoSelected {
			autoSelected = "Y"
		}
		values := []interface{}{
			p.CustomerNumber, p.ModelName, p.TerminationRequestDate.Format("2006-01-02"),
			p.ApprovalStatus, p.BranchCode, p.CustomerName, p.PenaltyAmount.String(),
			p.Status, autoSelected,
			formatDate(p.CollectedAt),
			formatDate(p.ShippedAt), p.Carrier, p.TrackingNumber,
			formatDate(p.ReceivedAt), p.CancelReason,
		}
		for i, v := range values {
			col, _ := excelize.ColumnNumberToName(i + 1)
			f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), v)
		}
	}

	fileName := fmt.Sprintf("product_recovery_%s.xlsx", time.Now().Format("20060102"))
	return f, fileName, nil
}
