package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"backend/internal/database"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// newTestDB opens a named in-memory database so every test file gets an
// isolated schema while the gorm pool still shares one connection.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func adminActor() Actor {
	return Actor{UserCode: "cs01", Role: model.RoleAdminCS}
}

func branchActor(code string) Actor {
	return Actor{UserCode: "br01", Role: model.RoleBranch, BranchCode: code}
}

// buildSheet fills Sheet1 of a fresh workbook row by row.
func buildSheet(t *testing.T, rows [][]interface{}) *excelize.File {
	t.Helper()
	f := excelize.NewFile()
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue("Sheet1", cell, value))
		}
	}
	return f
}

func seedMaterial(t *testing.T, db *gorm.DB, code, name string) {
	t.Helper()
	repo := repository.NewRecoveryMaterialRepository(db)
	err := repo.Create(context.Background(), &model.RecoveryMaterial{
		MaterialCode: code,
		MaterialName: name,
		IsActive:     true,
		CreatedBy:    "cs01",
	})
	require.NoError(t, err)
}
