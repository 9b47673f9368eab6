package queue_test

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/adapters/queue"
	"github.com/ammerola/stockledger/internal/core/ports"
)

func TestNewTask(t *testing.T) {
	id := uuid.New()
	task, opts, err := queue.NewTask(ports.TaskReconcile, ports.ReconcilePayload{SessionID: &id})
	require.NoError(t, err)

	assert.Equal(t, ports.TaskReconcile, task.Type())
	assert.NotEmpty(t, opts)

	var payload ports.ReconcilePayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	require.NotNil(t, payload.SessionID)
	assert.Equal(t, id, *payload.SessionID)
	assert.Nil(t, payload.BatchID)
}

func TestNewTask_UnencodablePayload(t *testing.T) {
	_, _, err := queue.NewTask(ports.TaskExport, make(chan int))
	assert.Error(t, err)
}

func TestTaskOptions(t *testing.T) {
	tests := []struct {
		name      string
		taskType  string
		wantQueue string
	}{
		{name: "approvals_are_critical", taskType: ports.TaskApprovalRequested, wantQueue: queue.QueueCritical},
		{name: "reconcile_is_default", taskType: ports.TaskReconcile, wantQueue: queue.QueueDefault},
		{name: "exports_are_low", taskType: ports.TaskExport, wantQueue: queue.QueueLow},
		{name: "stale_sessions_are_low", taskType: ports.TaskCloseStaleSessions, wantQueue: queue.QueueLow},
		{name: "unknown_goes_to_default", taskType: "ledger:unknown", wantQueue: queue.QueueDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := queue.TaskOptions(tt.taskType)
			require.NotEmpty(t, opts)
			assert.Equal(t, tt.wantQueue, opts[0].Value())
		})
	}
}
