package service

import (
	"context"
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMaterials(r *testRepos) MaterialService {
	return NewMaterialService(r.materialRepo, r.historyRepo, r.txManager)
}

func TestMaterialCreate_WritesSettingHistory(t *testing.T) {
	repos := newRepos(t)
	svc := newMaterials(repos)
	ctx := context.Background()

	material, err := svc.Create(ctx, adminActor(), CreateMaterialRequest{
		MaterialCode: "MAT-001",
		MaterialName: "필터 어셈블리",
		SerialFrom:   "SN000",
		SerialTo:     "SN999",
	})
	require.NoError(t, err)
	assert.True(t, material.IsActive)
	assert.Equal(t, "cs01", material.CreatedBy)

	_, err = svc.Create(ctx, adminActor(), CreateMaterialRequest{
		MaterialCode: "MAT-001",
		MaterialName: "중복 코드",
	})
	assert.Error(t, err)

	entries, total, err := repos.historyRepo.ListSettings(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, model.SettingActionCreate, entries[0].Action)
	assert.Equal(t, "MAT-001", entries[0].MaterialCode)
}

func TestMaterialSetActive_RemovesFromAllowList(t *testing.T) {
	repos := newRepos(t)
	svc := newMaterials(repos)
	ctx := context.Background()

	material, err := svc.Create(ctx, adminActor(), CreateMaterialRequest{
		MaterialCode: "MAT-001",
		MaterialName: "필터 어셈블리",
	})
	require.NoError(t, err)

	codes, err := repos.materialRepo.ActiveCodes(ctx)
	require.NoError(t, err)
	assert.Contains(t, codes, "MAT-001")

	deactivated, err := svc.SetActive(ctx, adminActor(), material.ID.String(), false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	codes, err = repos.materialRepo.ActiveCodes(ctx)
	require.NoError(t, err)
	assert.NotContains(t, codes, "MAT-001")

	// The row itself survives so past uploads keep their reference.
	active, total, err := svc.List(ctx, 1, 10, false)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, active, 1)

	onlyActive, total, err := svc.List(ctx, 1, 10, true)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
	assert.Empty(t, onlyActive)
}

func TestMaterialUpdate_LogsAction(t *testing.T) {
	repos := newRepos(t)
	svc := newMaterials(repos)
	ctx := context.Background()

	material, err := svc.Create(ctx, adminActor(), CreateMaterialRequest{
		MaterialCode: "MAT-001",
		MaterialName: "필터 어셈블리",
	})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, adminActor(), material.ID.String(), UpdateMaterialRequest{
		MaterialName: "필터 어셈블리 V2",
		Note:         "2차 개정",
	})
	require.NoError(t, err)
	assert.Equal(t, "필터 어셈블리 V2", updated.MaterialName)
	assert.Equal(t, "2차 개정", updated.Note)

	entries, total, err := repos.historyRepo.ListSettings(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	// Newest first
	assert.Equal(t, model.SettingActionUpdate, entries[0].Action)
}
