// internal/workers/approval_processor_test.go
package workers_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/adapters/memory"
	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func approvalTask(t *testing.T, rec *domain.AdjustmentRecord) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(ports.ApprovalRequestedPayload{
		RecordID:  rec.ID,
		StoreID:   rec.StoreID,
		ItemID:    rec.ItemID,
		UserID:    rec.UserID,
		Change:    rec.QuantityChange,
		CreatedAt: rec.CreatedAt,
	})
	require.NoError(t, err)
	return asynq.NewTask(ports.TaskApprovalRequested, payload)
}

func pendingRecord(t *testing.T, gw *memory.Gateway) *domain.AdjustmentRecord {
	t.Helper()
	svc := services.NewLedgerService(gw, nil, nil, services.DefaultOptions(), helpers.TestLogger())
	staff := helpers.CreateTestActor(helpers.WithRole(domain.RoleStaff))
	rec, err := svc.RecordAdjustment(context.Background(), staff, helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
		r.RequiresApproval = helpers.BoolPtr(true)
	}))
	require.NoError(t, err)
	require.True(t, rec.IsPendingApproval())
	return rec
}

func TestApprovalProcessor_NotifiesOnce(t *testing.T) {
	ctx := context.Background()
	gw := memory.NewGateway()
	rec := pendingRecord(t, gw)

	tr := helpers.SetupTestRedis(t)
	cache := redis_a.NewCache(tr.Client, 0, helpers.TestLogger())
	processor := workers.NewApprovalProcessor(gw, cache, helpers.TestLogger())

	require.NoError(t, processor.NotifyApprovers(ctx, approvalTask(t, rec)))

	key := redis_a.BuildKey(redis_a.PrefixApprovalNotice, rec.StoreID, rec.ID.String())
	assert.True(t, tr.Server.Exists(key))
	assert.Positive(t, tr.Server.TTL(key))

	// retried delivery finds the notice and stays quiet
	require.NoError(t, processor.NotifyApprovers(ctx, approvalTask(t, rec)))
}

func TestApprovalProcessor_Cases(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name        string
		setup       func(t *testing.T, gw *memory.Gateway, cache *mocks.MockCacheRepository) *asynq.Task
		expectError bool
		skipRetry   bool
	}{
		{
			name: "notifies_when_cache_is_down",
			setup: func(t *testing.T, gw *memory.Gateway, cache *mocks.MockCacheRepository) *asynq.Task {
				rec := pendingRecord(t, gw)
				cache.EXPECT().
					SetNX(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(false, assert.AnError)
				return approvalTask(t, rec)
			},
		},
		{
			name: "skips_records_already_approved",
			setup: func(t *testing.T, gw *memory.Gateway, _ *mocks.MockCacheRepository) *asynq.Task {
				rec := pendingRecord(t, gw)
				svc := services.NewLedgerService(gw, nil, nil, services.DefaultOptions(), helpers.TestLogger())
				admin := helpers.CreateTestActor(helpers.WithRole(domain.RoleAdmin))
				_, err := svc.ApproveAdjustment(ctx, admin, rec.ID, "ok")
				require.NoError(t, err)
				return approvalTask(t, rec)
			},
		},
		{
			name: "unknown_record_is_not_retried",
			setup: func(t *testing.T, _ *memory.Gateway, _ *mocks.MockCacheRepository) *asynq.Task {
				return approvalTask(t, &domain.AdjustmentRecord{ID: uuid.New(), StoreID: "store-123"})
			},
			expectError: true,
			skipRetry:   true,
		},
		{
			name: "malformed_payload_is_not_retried",
			setup: func(t *testing.T, _ *memory.Gateway, _ *mocks.MockCacheRepository) *asynq.Task {
				return asynq.NewTask(ports.TaskApprovalRequested, []byte("{"))
			},
			expectError: true,
			skipRetry:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			gw := memory.NewGateway()
			cache := mocks.NewMockCacheRepository(ctrl)
			task := tt.setup(t, gw, cache)

			processor := workers.NewApprovalProcessor(gw, cache, helpers.TestLogger())
			err := processor.NotifyApprovers(ctx, task)

			if !tt.expectError {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}
