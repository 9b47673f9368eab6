package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/core/domain"
)

func TestBatchStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from domain.BatchStatus
		to   domain.BatchStatus
		want bool
	}{
		{domain.BatchPending, domain.BatchProcessing, true},
		{domain.BatchPending, domain.BatchFailed, true},
		{domain.BatchPending, domain.BatchCompleted, false},
		{domain.BatchProcessing, domain.BatchCompleted, true},
		{domain.BatchProcessing, domain.BatchFailed, true},
		{domain.BatchProcessing, domain.BatchPending, false},
		{domain.BatchCompleted, domain.BatchFailed, false},
		{domain.BatchFailed, domain.BatchCompleted, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_to_"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestAuditBatch_TransitionTo(t *testing.T) {
	actor := domain.Actor{UserID: "u1", Role: domain.RoleManager, StoreID: "s1"}
	now := time.Now()

	b := domain.NewAuditBatch(actor, domain.BatchCycleCount, 20, nil)
	assert.Equal(t, domain.BatchPending, b.Status)

	err := b.TransitionTo(domain.BatchCompleted, now)
	assert.ErrorIs(t, err, domain.ErrInvalidBatchTransition)

	require.NoError(t, b.TransitionTo(domain.BatchProcessing, now))
	assert.Nil(t, b.CompletedAt)

	require.NoError(t, b.TransitionTo(domain.BatchCompleted, now))
	require.NotNil(t, b.CompletedAt)

	assert.ErrorIs(t, b.TransitionTo(domain.BatchFailed, now), domain.ErrBatchTerminal)
	assert.Equal(t, domain.BatchCompleted, b.Status)
}

func TestAuditSession_End(t *testing.T) {
	actor := domain.Actor{UserID: "u1", Role: domain.RoleStaff, DeviceID: "d1", StoreID: "s1"}
	s := domain.NewAuditSession(actor)

	assert.True(t, s.IsActive)
	assert.True(t, s.OwnedBy(actor))

	other := actor
	other.DeviceID = "d2"
	assert.False(t, s.OwnedBy(other))

	require.NoError(t, s.End(time.Now()))
	assert.False(t, s.IsActive)
	require.NotNil(t, s.EndedAt)
	assert.ErrorIs(t, s.End(time.Now()), domain.ErrSessionNotActive)
}

func TestCatalog_Parse(t *testing.T) {
	_, err := domain.ParseAdjustmentType("teleport")
	assert.ErrorIs(t, err, domain.ErrUnknownAdjustmentType)

	typ, err := domain.ParseAdjustmentType("transfer")
	require.NoError(t, err)
	assert.Equal(t, domain.TypeTransfer, typ)

	reason, err := domain.ParseAdjustmentReason("")
	require.NoError(t, err)
	assert.Empty(t, reason)

	_, err = domain.ParseAdjustmentReason("gremlins")
	assert.ErrorIs(t, err, domain.ErrUnknownAdjustmentReason)

	_, err = domain.ParseUserRole("owner")
	assert.ErrorIs(t, err, domain.ErrUnknownUserRole)

	_, err = domain.ParseBatchType("sweep")
	assert.ErrorIs(t, err, domain.ErrUnknownBatchType)
}

func TestAdjustmentReason_AlwaysRequiresApproval(t *testing.T) {
	for _, r := range []domain.AdjustmentReason{
		domain.ReasonDamaged, domain.ReasonExpired, domain.ReasonLost, domain.ReasonShrinkage,
	} {
		assert.True(t, r.AlwaysRequiresApproval(), r)
	}
	for _, r := range []domain.AdjustmentReason{
		domain.ReasonFound, domain.ReasonRecount, domain.ReasonTransferIn, "",
	} {
		assert.False(t, r.AlwaysRequiresApproval(), r)
	}
}

func TestAdjustmentTypes_AllHaveMetadata(t *testing.T) {
	for _, typ := range domain.AdjustmentTypes {
		info, ok := typ.Info()
		assert.True(t, ok, typ)
		assert.NotEmpty(t, info.Label, typ)
	}
}
