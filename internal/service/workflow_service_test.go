package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorkflow(r *testRepos) WorkflowService {
	return NewWorkflowService(r.usageRepo, r.productRepo, r.historyRepo, r.txManager, nil)
}

func seedUsage(t *testing.T, r *testRepos, requestNumber, branchCode string) *model.MaterialUsage {
	t.Helper()
	usage := &model.MaterialUsage{
		RequestNumber: requestNumber,
		BranchCode:    branchCode,
		MaterialCode:  "MAT-001",
		MaterialName:  "필터 어셈블리",
		Quantity:      1,
		UsedDate:      time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		Status:        model.StatusWaiting,
	}
	require.NoError(t, r.usageRepo.Create(context.Background(), usage))
	return usage
}

func seedRecovery(t *testing.T, r *testRepos, customerNumber, status string) *model.ProductRecovery {
	t.Helper()
	recovery := &model.ProductRecovery{
		CustomerNumber:         customerNumber,
		ModelName:              "WP-5000",
		TerminationRequestDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		ApprovalStatus:         model.ApprovalApproved,
		BranchCode:             "BR-01",
		Status:                 status,
	}
	require.NoError(t, r.productRepo.Create(context.Background(), recovery))
	return recovery
}

func TestTransitionMaterial_StampsActorAndHistory(t *testing.T) {
	repos := newRepos(t)
	svc := newWorkflow(repos)
	usage := seedUsage(t, repos, "REQ-1", "BR-01")

	updated, err := svc.TransitionMaterial(context.Background(), branchActor("BR-01"), usage.ID.String(),
		TransitionRequest{Status: model.StatusCollected})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCollected, updated.Status)
	assert.Equal(t, "br01", updated.CollectedBy)
	require.NotNil(t, updated.CollectedAt)

	entries, total, err := repos.historyRepo.ListStatus(context.Background(), 1, 10, &usage.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	assert.Equal(t, model.KindMaterial, entries[0].RecordKind)
	assert.Equal(t, model.StatusWaiting, entries[0].PreviousStatus)
	assert.Equal(t, model.StatusCollected, entries[0].NewStatus)
	assert.Equal(t, "br01", entries[0].ActorCode)
	// Carrier-less transitions still have to write valid JSON into the
	// jsonb payload column.
	assert.Equal(t, "{}", entries[0].Payload)
	assert.True(t, json.Valid([]byte(entries[0].Payload)))
}

func TestTransitionMaterial_ShippingRequiresCarrier(t *testing.T) {
	repos := newRepos(t)
	svc := newWorkflow(repos)
	usage := seedUsage(t, repos, "REQ-1", "BR-01")

	_, err := svc.TransitionMaterial(context.Background(), adminActor(), usage.ID.String(),
		TransitionRequest{Status: model.StatusShipped})
	assert.ErrorIs(t, err, ErrCarrierRequired)

	updated, err := svc.TransitionMaterial(context.Background(), adminActor(), usage.ID.String(),
		TransitionRequest{Status: model.StatusShipped, Carrier: "CJ대한통운", TrackingNumber: "123456789"})
	require.NoError(t, err)
	assert.Equal(t, "CJ대한통운", updated.Carrier)
	assert.Equal(t, "123456789", updated.TrackingNumber)
}

func TestTransitionMaterial_RejectsCancelAndForeignBranch(t *testing.T) {
	repos := newRepos(t)
	svc := newWorkflow(repos)
	usage := seedUsage(t, repos, "REQ-1", "BR-01")

	// 발송불가 exists only on the product side.
	_, err := svc.TransitionMaterial(context.Background(), adminActor(), usage.ID.String(),
		TransitionRequest{Status: model.StatusCancelled, Reason: "주소 불명"})
	assert.ErrorIs(t, err, ErrUnknownStatus)

	_, err = svc.TransitionMaterial(context.Background(), branchActor("BR-02"), usage.ID.String(),
		TransitionRequest{Status: model.StatusCollected})
	assert.ErrorIs(t, err, ErrBranchMismatch)

	_, err = svc.TransitionMaterial(context.Background(), adminActor(), usage.ID.String(),
		TransitionRequest{Status: "회수중"})
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestTransitionProduct_CancelRecordsReason(t *testing.T) {
	repos := newRepos(t)
	svc := newWorkflow(repos)
	recovery := seedRecovery(t, repos, "1-01-250201-0001", model.StatusWaiting)

	_, err := svc.TransitionProduct(context.Background(), adminActor(), recovery.ID.String(),
		TransitionRequest{Status: model.StatusCancelled})
	assert.ErrorIs(t, err, ErrReasonRequired)

	updated, err := svc.TransitionProduct(context.Background(), adminActor(), recovery.ID.String(),
		TransitionRequest{Status: model.StatusCancelled, Reason: "고객 부재", Detail: "3회 방문"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, updated.Status)
	assert.Equal(t, "고객 부재", updated.CancelReason)
	assert.Equal(t, "3회 방문", updated.CancelDetail)
	require.NotNil(t, updated.CancelledAt)

	entries, _, err := repos.historyRepo.ListStatus(context.Background(), 1, 10, &recovery.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].Payload, "고객 부재")
}

func TestTransitionProduct_BranchScoping(t *testing.T) {
	repos := newRepos(t)
	svc := newWorkflow(repos)
	recovery := seedRecovery(t, repos, "1-01-250201-0001", model.StatusWaiting)

	// Branch staff run collect/ship on their own rows.
	updated, err := svc.TransitionProduct(context.Background(), branchActor("BR-01"), recovery.ID.String(),
		TransitionRequest{Status: model.StatusCollected})
	require.NoError(t, err)
	assert.Equal(t, model.StatusCollected, updated.Status)
	assert.Equal(t, "br01", updated.CollectedBy)

	_, err = svc.TransitionProduct(context.Background(), branchActor("BR-02"), recovery.ID.String(),
		TransitionRequest{Status: model.StatusShipped, Carrier: "CJ대한통운", TrackingNumber: "987654321"})
	assert.ErrorIs(t, err, ErrBranchMismatch)
}

func TestBulkTransition_PartialFailure(t *testing.T) {
	repos := newRepos(t)
	svc := newWorkflow(repos)
	first := seedUsage(t, repos, "REQ-1", "BR-01")
	second := seedUsage(t, repos, "REQ-2", "BR-01")
	missing := uuid.New().String()

	result := svc.BulkTransitionMaterials(context.Background(), adminActor(), BulkTransitionRequest{
		IDs:               []string{first.ID.String(), missing, second.ID.String()},
		TransitionRequest: TransitionRequest{Status: model.StatusCollected},
	})

	assert.Len(t, result.Succeeded, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, missing, result.Failed[0].ID)

	// Successes before and after the failing id both stick.
	for _, usage := range []*model.MaterialUsage{first, second} {
		got, err := repos.usageRepo.FindByID(context.Background(), usage.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCollected, got.Status)
	}
}

func TestSelectProduct_PromotesUnselected(t *testing.T) {
	repos := newRepos(t)
	svc := newWorkflow(repos)
	recovery := seedRecovery(t, repos, "1-01-250201-0001", model.StatusUnselected)

	updated, err := svc.SelectProduct(context.Background(), adminActor(), recovery.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaiting, updated.Status)
	assert.Equal(t, "cs01", updated.SelectedBy)
	require.NotNil(t, updated.SelectedAt)

	entries, _, err := repos.historyRepo.ListStatus(context.Background(), 1, 10, &recovery.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.StatusUnselected, entries[0].PreviousStatus)
	assert.Equal(t, model.StatusWaiting, entries[0].NewStatus)
	assert.Equal(t, "{}", entries[0].Payload)
}
