package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRouting() RoutingTable {
	return RoutingTable{
		Default: Destination{Name: "품질관리센터", Address: "서울시 금천구 가산디지털로 1", Phone: "02-000-0000"},
		Rules: []RoutingRule{
			{Prefix: "WP", Destination: Destination{Name: "정수기 품질센터", Address: "인천시 남동구 공단로 2", Phone: "032-111-1111"}},
		},
	}
}

func TestRoutingTable_PrefixFallsBackToDefault(t *testing.T) {
	routing := testRouting()
	assert.Equal(t, "정수기 품질센터", routing.Route("WP-5000").Name)
	assert.Equal(t, "품질관리센터", routing.Route("AB-1000").Name)
}

func TestRoutingTable_OverlappingPrefixesResolveInOrder(t *testing.T) {
	routing := RoutingTable{
		Default: Destination{Name: "품질관리센터"},
		Rules: []RoutingRule{
			{Prefix: "WP-5", Destination: Destination{Name: "대형 정수기센터"}},
			{Prefix: "WP", Destination: Destination{Name: "정수기 품질센터"}},
		},
	}
	for i := 0; i < 20; i++ {
		assert.Equal(t, "대형 정수기센터", routing.Route("WP-5000").Name)
	}
	assert.Equal(t, "정수기 품질센터", routing.Route("WP-100").Name)
}

func TestRenderSlip_UsesBranchReturnAddress(t *testing.T) {
	repos := newRepos(t)
	branchRepo := repository.NewBranchRepository(repos.db)
	svc := NewPackingService(repos.productRepo, branchRepo, testRouting())
	ctx := context.Background()

	require.NoError(t, branchRepo.Create(ctx, &model.Branch{
		Code: "BR-01",
		Name: "강남지점",
		Addresses: []model.BranchAddress{
			{AddressType: model.AddressTypeShipping, FullAddress: "서울시 강남구 테헤란로 10"},
			{AddressType: model.AddressTypeReturn, FullAddress: "서울시 강남구 반품로 20", IsDefault: true},
		},
	}))

	recovery := seedRecovery(t, repos, "1-01-250201-0001", model.StatusWaiting)

	html, err := svc.RenderSlip(ctx, adminActor(), recovery.ID.String())
	require.NoError(t, err)

	body := string(html)
	assert.Contains(t, body, "1-01-250201-0001")
	assert.Contains(t, body, "강남지점")
	assert.Contains(t, body, "서울시 강남구 반품로 20")
	assert.NotContains(t, body, "서울시 강남구 테헤란로 10")
	// WP model routes to the prefix destination, not the default.
	assert.Contains(t, body, "정수기 품질센터")
	assert.NotContains(t, body, "품질관리센터")
}

func TestRenderSlip_BranchScoped(t *testing.T) {
	repos := newRepos(t)
	branchRepo := repository.NewBranchRepository(repos.db)
	svc := NewPackingService(repos.productRepo, branchRepo, testRouting())

	recovery := seedRecovery(t, repos, "1-01-250201-0001", model.StatusWaiting)

	_, err := svc.RenderSlip(context.Background(), branchActor("BR-02"), recovery.ID.String())
	assert.ErrorIs(t, err, ErrBranchMismatch)

	html, err := svc.RenderSlip(context.Background(), branchActor("BR-01"), recovery.ID.String())
	require.NoError(t, err)
	// No branch row registered: the slip falls back to the branch code.
	assert.Contains(t, string(html), "BR-01")
}
