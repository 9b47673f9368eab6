// internal/core/ports/tasks.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Task types handled by the worker
const (
	TaskApprovalRequested  = "ledger:approval_requested"
	TaskReconcile          = "ledger:reconcile"
	TaskExport             = "ledger:export"
	TaskCloseStaleSessions = "ledger:close_stale_sessions"
)

// TaskPublisher enqueues background work. It returns the task id.
type TaskPublisher interface {
	Enqueue(ctx context.Context, taskType string, payload interface{}) (string, error)
}

// ApprovalRequestedPayload announces a record waiting for sign-off
type ApprovalRequestedPayload struct {
	RecordID  uuid.UUID `json:"recordId"`
	StoreID   string    `json:"storeId"`
	ItemID    string    `json:"itemId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Change    int       `json:"quantityChange"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReconcilePayload asks the worker to recompute session or batch totals
type ReconcilePayload struct {
	SessionID *uuid.UUID `json:"sessionId,omitempty"`
	BatchID   *uuid.UUID `json:"batchId,omitempty"`
}

// ExportPayload asks the worker to write matching records to a workbook
type ExportPayload struct {
	StoreID     string     `json:"storeId"`
	SessionID   *uuid.UUID `json:"sessionId,omitempty"`
	BatchID     *uuid.UUID `json:"batchId,omitempty"`
	Since       *time.Time `json:"since,omitempty"`
	Until       *time.Time `json:"until,omitempty"`
	RequestedBy string     `json:"requestedBy"`
}

// CloseStaleSessionsPayload ends sessions active for longer than MaxAge
type CloseStaleSessionsPayload struct {
	MaxAge time.Duration `json:"maxAge"`
}
