// internal/workers/reconcile_processor_test.go
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

	"github.com/ammerola/stockledger/internal/adapters/memory"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/internal/workers"
	"github.com/ammerola/stockledger/test/helpers"
)

func reconcileTask(t *testing.T, payload ports.ReconcilePayload) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(ports.TaskReconcile, b)
}

func TestReconcileProcessor_RepairsSessionDrift(t *testing.T) {
	ctx := context.Background()
	gw := memory.NewGateway()
	svc := services.NewLedgerService(gw, nil, nil, services.DefaultOptions(), helpers.TestLogger())
	actor := helpers.CreateTestActor()

	session, err := svc.StartAuditSession(ctx, actor)
	require.NoError(t, err)

	_, err = svc.RecordAdjustment(ctx, actor, helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
		r.SessionID = &session.ID
	}))
	require.NoError(t, err)

	// a record written without its rollup increment
	orphan := domain.NewAdjustmentRecord(helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
		r.UserID = actor.UserID
		r.SessionID = &session.ID
		r.QuantityBefore = 20
		r.QuantityAfter = 18
	}), false)
	require.NoError(t, gw.Commit(ctx, ports.InsertRecord{Record: orphan}))

	processor := workers.NewReconcileProcessor(svc.Aggregator(), helpers.TestLogger())
	require.NoError(t, processor.Reconcile(ctx, reconcileTask(t, ports.ReconcilePayload{SessionID: &session.ID})))

	stored, err := gw.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalAdjustments)
	assert.Equal(t, -7, stored.TotalQuantityChange)
}

func TestReconcileProcessor_Errors(t *testing.T) {
	ctx := context.Background()
	missing := uuid.New()

	tests := []struct {
		name      string
		task      func(t *testing.T) *asynq.Task
		skipRetry bool
	}{
		{
			name: "empty_payload",
			task: func(t *testing.T) *asynq.Task {
				return reconcileTask(t, ports.ReconcilePayload{})
			},
			skipRetry: true,
		},
		{
			name: "unknown_session",
			task: func(t *testing.T) *asynq.Task {
				return reconcileTask(t, ports.ReconcilePayload{SessionID: &missing})
			},
			skipRetry: true,
		},
		{
			name: "unknown_batch",
			task: func(t *testing.T) *asynq.Task {
				return reconcileTask(t, ports.ReconcilePayload{BatchID: &missing})
			},
			skipRetry: true,
		},
		{
			name: "garbage",
			task: func(t *testing.T) *asynq.Task {
				return asynq.NewTask(ports.TaskReconcile, []byte("not json"))
			},
			skipRetry: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := services.NewAggregator(memory.NewGateway(), helpers.TestLogger())
			processor := workers.NewReconcileProcessor(agg, helpers.TestLogger())

			err := processor.Reconcile(ctx, tt.task(t))
			require.Error(t, err)
			assert.Equal(t, tt.skipRetry, errors.Is(err, asynq.SkipRetry))
		})
	}
}
