package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"backend/internal/model"
	"backend/internal/repository"
	ws "backend/internal/websocket"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid record id: %w", err)
	}
	return parsed, nil
}

// UploadBreakdown counts the fate of uploaded rows per date or per branch.
type UploadBreakdown struct {
	Saved     int `json:"saved"`
	Discarded int `json:"discarded"`
}

// UploadResult reports one ingest run. Discarded covers rows whose material
// code is not on the active allow-list (폐기); duplicates are rows whose
// composite key already exists.
type UploadResult struct {
	Saved      int                         `json:"saved"`
	Duplicates int                         `json:"duplicates"`
	Discarded  int                         `json:"discarded"`
	ByDate     map[string]*UploadBreakdown `json:"by_date"`
	ByBranch   map[string]*UploadBreakdown `json:"by_branch"`
}

// ErrNoDataRows is returned when the sheet has no rows past the header.
var ErrNoDataRows = errors.New("spreadsheet has no data rows")

// UsageService ingests and lists defective-part recovery records.
type UsageService interface {
	Upload(ctx context.Context, actor Actor, fileName string, f *excelize.File, overwrite bool) (*UploadResult, error)
	List(ctx context.Context, actor Actor, page, limit int, filter repository.UsageFilter) ([]model.MaterialUsage, int64, error)
	Get(ctx context.Context, actor Actor, id string) (*model.MaterialUsage, error)
}

type usageService struct {
	usageRepo    repository.MaterialUsageRepository
	materialRepo repository.RecoveryMaterialRepository
	historyRepo  repository.HistoryRepository
	txManager    repository.TransactionManager
	hub          *ws.Hub
}

func NewUsageService(
	usageRepo repository.MaterialUsageRepository,
	materialRepo repository.RecoveryMaterialRepository,
	historyRepo repository.HistoryRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) UsageService {
	return &usageService{
		usageRepo:    usageRepo,
		materialRepo: materialRepo,
		historyRepo:  historyRepo,
		txManager:    txManager,
		hub:          hub,
	}
}

// serialInRange applies the optional serial-number range of an allow-list
// entry. Bounds compare lexically and an empty bound is open; a row without
// a serial fails a bounded entry.
func serialInRange(material model.RecoveryMaterial, serial string) bool {
	if material.SerialFrom == "" && material.SerialTo == "" {
		return true
	}
	if serial == "" {
		return false
	}
	if material.SerialFrom != "" && serial < material.SerialFrom {
		return false
	}
	if material.SerialTo != "" && serial > material.SerialTo {
		return false
	}
	return true
}

// Upload parses the workbook, filters rows against the active allow-list,
// deduplicates against existing rows by (request number, branch, material
// code) and inserts survivors as 회수대기. Rows missing required fields are
// dropped silently. Returns per-date and per-branch counts.
func (s *usageService) Upload(ctx context.Context, actor Actor, fileName string, f *excelize.File, overwrite bool) (*UploadResult, error) {
	rows, err := firstSheetRows(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrNoDataRows
	}

	columns := mapHeaders(rows[0], usageHeaderAliases)
	allowList, err := s.materialRepo.ActiveCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load allow-list: %w", err)
	}

	result := &UploadResult{
		ByDate:   make(map[string]*UploadBreakdown),
		ByBranch: make(map[string]*UploadBreakdown),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for _, row := range rows[1:] {
			values := rowValues(row, columns)

			requestNumber := values["request_number"]
			branchCode := values["branch_code"]
			materialCode := values["material_code"]
			if requestNumber == "" || branchCode == "" || materialCode == "" {
				continue // required fields missing, drop silently
			}

			usedDate, hasDate := parseCellDate(values["used_date"])
			dateKey := ""
			if hasDate {
				dateKey = usedDate.Format("2006-01-02")
			}

			material, allowed := allowList[materialCode]
			if !allowed || !serialInRange(material, values["serial"]) {
				result.Discarded++
				bump(result.ByDate, dateKey, false)
				bump(result.ByBranch, branchCode, false)
				continue
			}

			quantity := 1
			if q, err := strconv.Atoi(values["quantity"]); err == nil && q > 0 {
				quantity = q
			}

			existing, err := s.usageRepo.FindByKey(txCtx, requestNumber, branchCode, materialCode)
			if err == nil {
				if !overwrite {
					result.Duplicates++
					continue
				}
				existing.MaterialName = material.MaterialName
				existing.Serial = values["serial"]
				existing.Quantity = quantity
				if hasDate {
					existing.UsedDate = usedDate
				}
				if err := s.usageRepo.Update(txCtx, existing); err != nil {
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

			usage := &model.MaterialUsage{
				RequestNumber: requestNumber,
				BranchCode:    branchCode,
				MaterialCode:  materialCode,
				MaterialName:  material.MaterialName,
				Serial:        values["serial"],
				Quantity:      quantity,
				UsedDate:      usedDate,
				Status:        model.StatusWaiting,
			}
			if err := s.usageRepo.Create(txCtx, usage); err != nil {
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
			Kind:       model.UploadKindMaterialUsage,
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

func bump(m map[string]*UploadBreakdown, key string, saved bool) {
	if key == "" {
		return
	}
	entry, ok := m[key]
	if !ok {
		entry = &UploadBreakdown{}
		m[key] = entry
	}
	if saved {
		entry.Saved++
	} else {
		entry.Discarded++
	}
}

func (s *usageService) List(ctx context.Context, actor Actor, page, limit int, filter repository.UsageFilter) ([]model.MaterialUsage, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	// Branch users only ever see their own rows.
	if !actor.IsAdmin() {
		filter.BranchCode = actor.BranchCode
	}
	return s.usageRepo.List(ctx, page, limit, filter)
}

func (s *usageService) Get(ctx context.Context, actor Actor, id string) (*model.MaterialUsage, error) {
	usage, err := findUsage(ctx, s.usageRepo, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && usage.BranchCode != actor.BranchCode {
		return nil, ErrBranchMismatch
	}
	return usage, nil
}

func findUsage(ctx context.Context, repo repository.MaterialUsageRepository, id string) (*model.MaterialUsage, error) {
	usageID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	usage, err := repo.FindByID(ctx, usageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("record not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return usage, nil
}

func (s *usageService) notify() {
	if s.hub == nil {
		return
	}
	msg, _ := json.Marshal(map[string]interface{}{"event": "material.uploaded"})
	select {
	case s.hub.Broadcast <- msg:
	default:
	}
}
