package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// DefaultModelPrefixes is the auto-selection prefix set used when
// RECOVERY_MODEL_PREFIXES is not configured.
var DefaultModelPrefixes = []string{"WP", "CP", "BP"}

// ErrContractDate is returned when a customer number does not embed a
// parseable contract date.
var ErrContractDate = errors.New("customer number has no parseable contract date")

// ProductService ingests termination requests and applies the
// auto-selection rule to decide which rows enter the recovery pipeline.
type ProductService interface {
	Upload(ctx context.Context, actor Actor, fileName string, f *excelize.File, overwrite bool) (*UploadResult, error)
	List(ctx context.Context, actor Actor, page, limit int, filter repository.RecoveryFilter) ([]model.ProductRecovery, int64, error)
	Get(ctx context.Context, actor Actor, id string) (*model.ProductRecovery, error)
}

type productService struct {
	productRepo   repository.ProductRecoveryRepository
	historyRepo   repository.HistoryRepository
	txManager     repository.TransactionManager
	modelPrefixes []string
	hub           *ws.Hub
}

func NewProductService(
	productRepo repository.ProductRecoveryRepository,
	historyRepo repository.HistoryRepository,
	txManager repository.TransactionManager,
	modelPrefixes []string,
	hub *ws.Hub,
) ProductService {
	if len(modelPrefixes) == 0 {
		modelPrefixes = DefaultModelPrefixes
	}
	return &productService{
		productRepo:   productRepo,
		historyRepo:   historyRepo,
		txManager:     txManager,
		modelPrefixes: modelPrefixes,
		hub:           hub,
	}
}

// ContractDateFromCustomerNumber derives the contract date embedded in a
// customer number. The third dash-separated segment is YYMMDD, e.g.
// "1-01-250201-0001" -> 2025-02-01.
func ContractDateFromCustomerNumber(customerNumber string) (time.Time, error) {
	parts := strings.Split(customerNumber, "-")
	if len(parts) < 3 || len(parts[2]) != 6 {
		return time.Time{}, ErrContractDate
	}
	t, err := time.Parse("060102", parts[2])
	if err != nil {
		return time.Time{}, ErrContractDate
	}
	return t, nil
}

// AutoSelect decides whether an uploaded termination row is automatically
// promoted to 회수대기: the request must be approved (승인), the model name
// must carry a configured prefix, and the termination request date must fall
// within one year of the contract date derived from the customer number.
func AutoSelect(modelPrefixes []string, customerNumber, modelName, approvalStatus string, terminationDate time.Time) bool {
	if approvalStatus != model.ApprovalApproved {
		return false
	}

	matched := false
	for _, prefix := range modelPrefixes {
		if strings.HasPrefix(modelName, prefix) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}

	contractDate, err := ContractDateFromCustomerNumber(customerNumber)
	if err != nil {
		return false
	}
	return terminationDate.Before(contractDate.AddDate(1, 0, 0))
}

// Upload parses termination request rows, deduplicates by (customer number,
// model name, termination date), evaluates auto-selection and stores each
// surviving row as 회수대기 (selected) or 미선택 (pending manual review).
func (s *productService) Upload(ctx context.Context, actor Actor, fileName string, f *excelize.File, overwrite bool) (*UploadResult, error) {
	rows, err := firstSheetRows(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoDataRows
	}

	columns := mapHeaders(rows[0], productHeaderAliases)

	result := &UploadResult{
		ByDate:   make(map[string]*UploadBreakdown),
		ByBranch: make(map[string]*UploadBreakdown),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, row := range rows[1:] {
			values := rowValues(row, columns)

			customerNumber := values["customer_number"]
			modelName := values["model_name"]
			terminationDate, hasDate := parseCellDate(values["termination_request_date"])
			if customerNumber == "" || modelName == "" || !hasDate {
				continue // required fields missing, drop silently
			}
			dateKey := terminationDate.Format("2006-01-02")
			branchCode := values["branch_code"]

			penalty := decimal.Zero
			if values["penalty_amount"] != "" {
				if p, err := decimal.NewFromString(values["penalty_amount"]); err == nil {
					penalty = p
				}
			}

			approval := values["approval_status"]
			selected := AutoSelect(s.modelPrefixes, customerNumber, modelName, approval, terminationDate)
			status := model.StatusUnselected
			if selected {
				status = model.StatusWaiting
			}

			existing, err := s.productRepo.FindByKey(txCtx, customerNumber, modelName, terminationDate)
			if err == nil {
				if !overwrite {
					result.Duplicates++
					continue
				}
				existing.ApprovalStatus = approval
				existing.BranchCode = branchCode
				existing.CustomerName = values["customer_name"]
				existing.CustomerAddress = values["customer_address"]
				existing.PenaltyAmount = penalty
				if err := s.productRepo.Update(txCtx, existing); err != nil {
					return fmt.Errorf("failed to overwrite row: %w", err)
				}
				result.Saved++
				bump(result.ByDate, dateKey, true)
				bump(result.ByBranch, branchCode, true)
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("duplicate lookup failed: %w", err)
			}

			recovery := &model.ProductRecovery{
				CustomerNumber:         customerNumber,
				ModelName:              modelName,
				TerminationRequestDate: terminationDate,
				ApprovalStatus:         approval,
				BranchCode:             branchCode,
				CustomerName:           values["customer_name"],
				CustomerAddress:        values["customer_address"],
				PenaltyAmount:          penalty,
				AutoSelected:           selected,
				Status:                 status,
			}
			if selected {
				now := time.Now()
				recovery.SelectedAt = &now
				recovery.SelectedBy = actor.UserCode
			}
			if err := s.productRepo.Create(txCtx, recovery); err != nil {
				return fmt.Errorf("failed to insert row: %w", err)
			}
			result.Saved++
			bump(result.ByDate, dateKey, true)
			bump(result.ByBranch, branchCode, true)
		}

		breakdown, _ := json.Marshal(map[string]interface{}{
			"by_date":   result.ByDate,
			"by_branch": result.ByBranch,
		})
		entry := &model.UploadHistory{
			Kind:       model.UploadKindProductRecovery,
			FileName:   fileName,
			ActorCode:  actor.UserCode,
			Saved:      result.Saved,
			Duplicates: result.Duplicates,
			Discarded:  result.Discarded,
			Breakdown:  string(breakdown),
		}
		if err := s.historyRepo.LogUpload(txCtx, entry); err != nil {
			return fmt.Errorf("failed to write upload history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notify()
	return result, nil
}

func (s *productService) List(ctx context.Context, actor Actor, page, limit int, filter repository.RecoveryFilter) ([]model.ProductRecovery, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if !actor.IsAdmin() {
		filter.BranchCode = actor.BranchCode
	}
	return s.productRepo.List(ctx, page, limit, filter)
}

func (s *productService) Get(ctx context.Context, actor Actor, id string) (*model.ProductRecovery, error) {
	recoveryID, err := parseID(id)
	if err != nil {
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
	return recovery, nil
}

func (s *productService) notify() {
	if s.hub == nil {
		return
	}
	msg, _ := json.Marshal(map[string]interface{}{"event": "product.uploaded"})
	select {
	case s.hub.Broadcast <- msg:
	default:
	}
}
