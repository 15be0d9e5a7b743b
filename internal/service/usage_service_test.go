package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testRepos bundles the repository layer over one in-memory database.
type testRepos struct {
	db           *gorm.DB
	usageRepo    repository.MaterialUsageRepository
	productRepo  repository.ProductRecoveryRepository
	materialRepo repository.RecoveryMaterialRepository
	historyRepo  repository.HistoryRepository
	backupRepo   repository.BackupRepository
	txManager    repository.TransactionManager
}

func newRepos(t *testing.T) *testRepos {
	db := newTestDB(t)
	return &testRepos{
		db:           db,
		usageRepo:    repository.NewMaterialUsageRepository(db),
		productRepo:  repository.NewProductRecoveryRepository(db),
		materialRepo: repository.NewRecoveryMaterialRepository(db),
		historyRepo:  repository.NewHistoryRepository(db),
		backupRepo:   repository.NewBackupRepository(db),
		txManager:    repository.NewTransactionManager(db),
	}
}

func newUsageService(r *testRepos) UsageService {
	return NewUsageService(r.usageRepo, r.materialRepo, r.historyRepo, r.txManager, nil)
}

func usageHeader() []interface{} {
	return []interface{}{"의뢰번호", "법인코드", "자재코드", "자재명", "시리얼", "수량", "사용일자"}
}

func TestUsageUpload_FiltersAgainstAllowList(t *testing.T) {
	repos := newRepos(t)
	seedMaterial(t, repos.db, "MAT-001", "필터 어셈블리")

	svc := newUsageService(repos)
	f := buildSheet(t, [][]interface{}{
		usageHeader(),
		{"REQ-1", "BR-01", "MAT-001", "필터 어셈블리", "SN100", 2, "2025-03-02"},
		{"REQ-2", "BR-01", "MAT-999", "미등록 부품", "SN101", 1, "2025-03-02"},
		{"REQ-3", "BR-02", "MAT-001", "필터 어셈블리", "SN102", 1, "2025-03-03"},
	})

	result, err := svc.Upload(context.Background(), adminActor(), "usage.xlsx", f, false)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 1, result.Discarded)
	assert.Equal(t, 0, result.Duplicates)
	require.Contains(t, result.ByBranch, "BR-01")
	assert.Equal(t, 1, result.ByBranch["BR-01"].Saved)
	assert.Equal(t, 1, result.ByBranch["BR-01"].Discarded)
	assert.Equal(t, 1, result.ByDate["2025-03-03"].Saved)

	saved, err := repos.usageRepo.FindByKey(context.Background(), "REQ-1", "BR-01", "MAT-001")
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaiting, saved.Status)
	assert.Equal(t, 2, saved.Quantity)

	uploads, total, err := repos.historyRepo.ListUploads(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "usage.xlsx", uploads[0].FileName)
	assert.Equal(t, 2, uploads[0].Saved)
	assert.Equal(t, 1, uploads[0].Discarded)
}

func TestUsageUpload_SerialRangeFiltersRows(t *testing.T) {
	repos := newRepos(t)
	require.NoError(t, repos.materialRepo.Create(context.Background(), &model.RecoveryMaterial{
		MaterialCode: "MAT-010",
		MaterialName: "컴프레서",
		SerialFrom:   "SN200",
		SerialTo:     "SN299",
		IsActive:     true,
	}))
	seedMaterial(t, repos.db, "MAT-001", "필터 어셈블리")
	svc := newUsageService(repos)

	f := buildSheet(t, [][]interface{}{
		usageHeader(),
		{"REQ-1", "BR-01", "MAT-010", "컴프레서", "SN250", 1, "2025-03-02"},
		{"REQ-2", "BR-01", "MAT-010", "컴프레서", "SN300", 1, "2025-03-02"},
		{"REQ-3", "BR-01", "MAT-010", "컴프레서", "", 1, "2025-03-02"},
		{"REQ-4", "BR-01", "MAT-001", "필터 어셈블리", "", 1, "2025-03-02"},
	})
	result, err := svc.Upload(context.Background(), adminActor(), "serials.xlsx", f, false)
	require.NoError(t, err)

	// Inside the range passes; outside or missing counts 폐기. An entry
	// without a range keeps accepting serial-less rows.
	assert.Equal(t, 2, result.Saved)
	assert.Equal(t, 2, result.Discarded)

	_, err = repos.usageRepo.FindByKey(context.Background(), "REQ-1", "BR-01", "MAT-010")
	require.NoError(t, err)
	_, err = repos.usageRepo.FindByKey(context.Background(), "REQ-2", "BR-01", "MAT-010")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUsageUpload_DuplicatesSkippedUnlessOverwrite(t *testing.T) {
	repos := newRepos(t)
	seedMaterial(t, repos.db, "MAT-001", "필터 어셈블리")
	svc := newUsageService(repos)

	first := buildSheet(t, [][]interface{}{
		usageHeader(),
		{"REQ-1", "BR-01", "MAT-001", "필터 어셈블리", "SN100", 1, "2025-03-02"},
	})
	_, err := svc.Upload(context.Background(), adminActor(), "first.xlsx", first, false)
	require.NoError(t, err)

	second := buildSheet(t, [][]interface{}{
		usageHeader(),
		{"REQ-1", "BR-01", "MAT-001", "필터 어셈블리", "SN200", 5, "2025-03-02"},
	})
	result, err := svc.Upload(context.Background(), adminActor(), "second.xlsx", second, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Saved)
	assert.Equal(t, 1, result.Duplicates)

	unchanged, err := repos.usageRepo.FindByKey(context.Background(), "REQ-1", "BR-01", "MAT-001")
	require.NoError(t, err)
	assert.Equal(t, 1, unchanged.Quantity)

	third := buildSheet(t, [][]interface{}{
		usageHeader(),
		{"REQ-1", "BR-01", "MAT-001", "필터 어셈블리", "SN200", 5, "2025-03-02"},
	})
	result, err = svc.Upload(context.Background(), adminActor(), "third.xlsx", third, true)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Saved)
	assert.Equal(t, 0, result.Duplicates)

	overwritten, err := repos.usageRepo.FindByKey(context.Background(), "REQ-1", "BR-01", "MAT-001")
	require.NoError(t, err)
	assert.Equal(t, 5, overwritten.Quantity)
	assert.Equal(t, "SN200", overwritten.Serial)
}

func TestUsageUpload_HeaderAliasesAndEmptySheet(t *testing.T) {
	repos := newRepos(t)
	seedMaterial(t, repos.db, "MAT-001", "필터 어셈블리")
	svc := newUsageService(repos)

	// Alternative header spellings still map to the same columns.
	aliased := buildSheet(t, [][]interface{}{
		{"요청번호", "설치법인", "부품코드", "부품명", "시리얼번호", "수량", "사용일"},
		{"REQ-9", "BR-03", "MAT-001", "필터 어셈블리", "SN900", 1, "2025.04.01"},
	})
	result, err := svc.Upload(context.Background(), adminActor(), "aliased.xlsx", aliased, false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Saved)

	empty := buildSheet(t, [][]interface{}{usageHeader()})
	_, err = svc.Upload(context.Background(), adminActor(), "empty.xlsx", empty, false)
	assert.ErrorIs(t, err, ErrNoDataRows)
}

func TestUsageList_BranchScoping(t *testing.T) {
	repos := newRepos(t)
	seedMaterial(t, repos.db, "MAT-001", "필터 어셈블리")
	svc := newUsageService(repos)

	f := buildSheet(t, [][]interface{}{
		usageHeader(),
		{"REQ-1", "BR-01", "MAT-001", "필터 어셈블리", "SN100", 1, "2025-03-02"},
		{"REQ-2", "BR-02", "MAT-001", "필터 어셈블리", "SN101", 1, "2025-03-02"},
	})
	_, err := svc.Upload(context.Background(), adminActor(), "usage.xlsx", f, false)
	require.NoError(t, err)

	all, total, err := svc.List(context.Background(), adminActor(), 1, 20, repository.UsageFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, all, 2)

	scoped, total, err := svc.List(context.Background(), branchActor("BR-01"), 1, 20, repository.UsageFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, scoped, 1)
	assert.Equal(t, "BR-01", scoped[0].BranchCode)

	// A branch user cannot fetch another branch's record by id.
	other, err := repos.usageRepo.FindByKey(context.Background(), "REQ-2", "BR-02", "MAT-001")
	require.NoError(t, err)
	_, err = svc.Get(context.Background(), branchActor("BR-01"), other.ID.String())
	assert.ErrorIs(t, err, ErrBranchMismatch)
}
