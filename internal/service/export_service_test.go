package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageWorkbook_HeadersAndRows(t *testing.T) {
	repos := newRepos(t)
	svc := NewExportService(repos.usageRepo, repos.productRepo)
	ctx := context.Background()

	usage := seedUsage(t, repos, "REQ-1", "BR-01")
	now := time.Now()
	usage.Status = model.StatusShipped
	usage.ShippedAt = &now
	usage.Carrier = "CJ대한통운"
	usage.TrackingNumber = "123456789"
	require.NoError(t, repos.usageRepo.Update(ctx, usage))

	f, fileName, err := svc.UsageWorkbook(ctx, adminActor(), repository.UsageFilter{})
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, fileName, "material_recovery_")
	assert.Contains(t, fileName, ".xlsx")

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, usageExportHeaders, rows[0][:len(usageExportHeaders)])
	assert.Equal(t, "REQ-1", rows[1][0])
	assert.Equal(t, "BR-01", rows[1][1])
	assert.Contains(t, rows[1], model.StatusShipped)
	assert.Contains(t, rows[1], "123456789")
}

func TestProductWorkbook_BranchScoped(t *testing.T) {
	repos := newRepos(t)
	svc := NewExportService(repos.usageRepo, repos.productRepo)
	ctx := context.Background()

	seedRecovery(t, repos, "1-01-250201-0001", model.StatusWaiting)
	foreign := seedRecovery(t, repos, "1-01-250201-0002", model.StatusWaiting)
	foreign.BranchCode = "BR-02"
	require.NoError(t, repos.productRepo.Update(ctx, foreign))

	f, fileName, err := svc.ProductWorkbook(ctx, branchActor("BR-01"), repository.RecoveryFilter{})
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, fileName, "product_recovery_")

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus the one row of the actor's branch")
	assert.Equal(t, productExportHeaders, rows[0][:len(productExportHeaders)])
	assert.Equal(t, "1-01-250201-0001", rows[1][0])
}
