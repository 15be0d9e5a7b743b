package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusCount(counts []model.StatusCount, status string) int64 {
	for _, c := range counts {
		if c.Status == status {
			return c.Count
		}
	}
	return 0
}

func TestMaterialSummary_CountsByStatusAndBranch(t *testing.T) {
	repos := newRepos(t)
	svc := NewReportService(repos.usageRepo, repos.productRepo)
	ctx := context.Background()

	seedUsage(t, repos, "REQ-1", "BR-01")
	seedUsage(t, repos, "REQ-2", "BR-01")
	collected := seedUsage(t, repos, "REQ-3", "BR-02")
	collected.Status = model.StatusCollected
	require.NoError(t, repos.usageRepo.Update(ctx, collected))

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)

	summary, err := svc.MaterialSummary(ctx, adminActor(), start, end)
	require.NoError(t, err)
	assert.EqualValues(t, 2, statusCount(summary.StatusCounts, model.StatusWaiting))
	assert.EqualValues(t, 1, statusCount(summary.StatusCounts, model.StatusCollected))
	assert.NotEmpty(t, summary.BranchCounts)
	require.NotEmpty(t, summary.MaterialCounts)
	assert.Equal(t, "MAT-001", summary.MaterialCounts[0].MaterialCode)
	assert.EqualValues(t, 3, summary.MaterialCounts[0].Count)

	// Branch users only see their own slice.
	scoped, err := svc.MaterialSummary(ctx, branchActor("BR-02"), start, end)
	require.NoError(t, err)
	assert.EqualValues(t, 0, statusCount(scoped.StatusCounts, model.StatusWaiting))
	assert.EqualValues(t, 1, statusCount(scoped.StatusCounts, model.StatusCollected))
}

func TestProductSummary_PenaltyAndCalendar(t *testing.T) {
	repos := newRepos(t)
	svc := NewReportService(repos.usageRepo, repos.productRepo)
	ctx := context.Background()

	first := seedRecovery(t, repos, "1-01-250201-0001", model.StatusWaiting)
	first.PenaltyAmount = decimal.NewFromInt(150000)
	first.AutoSelected = true
	require.NoError(t, repos.productRepo.Update(ctx, first))

	second := seedRecovery(t, repos, "1-01-250201-0002", model.StatusWaiting)
	second.PenaltyAmount = decimal.NewFromInt(50000)
	second.TerminationRequestDate = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repos.productRepo.Update(ctx, second))

	start := time.Now().Add(-time.Hour)
	end := time.Now().Add(time.Hour)

	summary, err := svc.ProductSummary(ctx, adminActor(), start, end)
	require.NoError(t, err)
	assert.EqualValues(t, 2, statusCount(summary.StatusCounts, model.StatusWaiting))
	assert.EqualValues(t, 1, summary.AutoSelectedCount)

	require.Len(t, summary.PenaltyTotals, 1)
	assert.Equal(t, model.StatusWaiting, summary.PenaltyTotals[0].Status)
	assert.True(t, summary.PenaltyTotals[0].Total.Equal(decimal.NewFromInt(200000)),
		"expected 200000, got %s", summary.PenaltyTotals[0].Total)

	// One calendar bucket per termination date, sorted ascending.
	require.Len(t, summary.CalendarCounts, 2)
	assert.Equal(t, "2025-06-01", summary.CalendarCounts[0].Date)
	assert.EqualValues(t, 1, summary.CalendarCounts[0].Count)
	assert.Equal(t, "2025-06-02", summary.CalendarCounts[1].Date)
}
