package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProductService(r *testRepos, prefixes []string) ProductService {
	return NewProductService(r.productRepo, r.historyRepo, r.txManager, prefixes, nil)
}

func productHeader() []interface{} {
	return []interface{}{"고객번호", "모델명", "해지요청일", "승인상태", "법인코드", "고객명", "설치주소", "위약금"}
}

func TestContractDateFromCustomerNumber(t *testing.T) {
	date, err := ContractDateFromCustomerNumber("1-01-250201-0001")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), date)

	_, err = ContractDateFromCustomerNumber("no-segments")
	assert.ErrorIs(t, err, ErrContractDate)

	_, err = ContractDateFromCustomerNumber("1-01-2502-0001")
	assert.ErrorIs(t, err, ErrContractDate)

	_, err = ContractDateFromCustomerNumber("1-01-25xx01-0001")
	assert.ErrorIs(t, err, ErrContractDate)
}

func TestAutoSelect(t *testing.T) {
	prefixes := []string{"WP", "CP"}
	customer := "1-01-250201-0001" // contract date 2025-02-01

	cases := []struct {
		name        string
		customer    string
		modelName   string
		approval    string
		termination time.Time
		want        bool
	}{
		{
			name:        "approved prefix match inside window",
			customer:    customer,
			modelName:   "WP-5000",
			approval:    model.ApprovalApproved,
			termination: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			want:        true,
		},
		{
			name:        "not approved",
			customer:    customer,
			modelName:   "WP-5000",
			approval:    "반려",
			termination: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			want:        false,
		},
		{
			name:        "prefix mismatch",
			customer:    customer,
			modelName:   "XX-5000",
			approval:    model.ApprovalApproved,
			termination: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			want:        false,
		},
		{
			name:        "termination past the one-year window",
			customer:    customer,
			modelName:   "WP-5000",
			approval:    model.ApprovalApproved,
			termination: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			want:        false,
		},
		{
			name:        "termination exactly one year after contract",
			customer:    customer,
			modelName:   "WP-5000",
			approval:    model.ApprovalApproved,
			termination: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
			want:        false,
		},
		{
			name:        "day before the window closes",
			customer:    customer,
			modelName:   "CP-100",
			approval:    model.ApprovalApproved,
			termination: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
			want:        true,
		},
		{
			name:        "unparseable customer number",
			customer:    "garbled",
			modelName:   "WP-5000",
			approval:    model.ApprovalApproved,
			termination: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
			want:        false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := AutoSelect(prefixes, tc.customer, tc.modelName, tc.approval, tc.termination)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestProductUpload_SelectionSplitsStatuses(t *testing.T) {
	repos := newRepos(t)
	svc := newProductService(repos, []string{"WP"})

	f := buildSheet(t, [][]interface{}{
		productHeader(),
		// Approved, prefix match, inside window -> auto-selected
		{"1-01-250201-0001", "WP-5000", "2025-06-01", "승인", "BR-01", "김고객", "서울시 강남구", "150000"},
		// Approved but prefix mismatch -> pending manual review
		{"1-01-250201-0002", "AB-1000", "2025-06-01", "승인", "BR-01", "이고객", "서울시 서초구", "90000"},
	})

	result, err := svc.Upload(context.Background(), adminActor(), "recovery.xlsx", f, false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved)

	selected, err := repos.productRepo.FindByKey(context.Background(), "1-01-250201-0001", "WP-5000",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaiting, selected.Status)
	assert.True(t, selected.AutoSelected)
	assert.Equal(t, "cs01", selected.SelectedBy)
	require.NotNil(t, selected.SelectedAt)
	assert.Equal(t, "150000", selected.PenaltyAmount.String())

	pending, err := repos.productRepo.FindByKey(context.Background(), "1-01-250201-0002", "AB-1000",
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, model.StatusUnselected, pending.Status)
	assert.False(t, pending.AutoSelected)
	assert.Nil(t, pending.SelectedAt)
}

func TestProductUpload_DuplicateKeySkipped(t *testing.T) {
	repos := newRepos(t)
	svc := newProductService(repos, nil)

	f := buildSheet(t, [][]interface{}{
		productHeader(),
		{"1-01-250201-0001", "WP-5000", "2025-06-01", "승인", "BR-01", "김고객", "서울시", "0"},
	})
	_, err := svc.Upload(context.Background(), adminActor(), "first.xlsx", f, false)
	require.NoError(t, err)

	again := buildSheet(t, [][]interface{}{
		productHeader(),
		{"1-01-250201-0001", "WP-5000", "2025-06-01", "승인", "BR-02", "김고객", "서울시", "0"},
	})
	result, err := svc.Upload(context.Background(), adminActor(), "again.xlsx", again, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Saved)
	assert.Equal(t, 1, result.Duplicates)
}

func TestProductUpload_RowsMissingRequiredFieldsDropped(t *testing.T) {
	repos := newRepos(t)
	svc := newProductService(repos, nil)

	f := buildSheet(t, [][]interface{}{
		productHeader(),
		{"", "WP-5000", "2025-06-01", "승인", "BR-01", "", "", ""},
		{"1-01-250201-0001", "", "2025-06-01", "승인", "BR-01", "", "", ""},
		{"1-01-250201-0001", "WP-5000", "not-a-date", "승인", "BR-01", "", "", ""},
	})
	result, err := svc.Upload(context.Background(), adminActor(), "broken.xlsx", f, false)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Saved)
	assert.Equal(t, 0, result.Duplicates)
	assert.Equal(t, 0, result.Discarded)
}
