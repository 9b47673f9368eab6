// internal/core/domain/batch.go
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BatchStatus is the lifecycle state of an AuditBatch
type BatchStatus string

// Batch status constants
const (
	BatchPending    BatchStatus = "pending"
	BatchProcessing BatchStatus = "processing"
	BatchCompleted  BatchStatus = "completed"
	BatchFailed     BatchStatus = "failed"
)

// IsValid reports whether s is a known status
func (s BatchStatus) IsValid() bool {
	switch s {
	case BatchPending, BatchProcessing, BatchCompleted, BatchFailed:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible
func (s BatchStatus) IsTerminal() bool {
	return s == BatchCompleted || s == BatchFailed
}

// CanTransitionTo encodes pending -> processing -> {completed|failed}.
// A pending batch may also fail before any work was recorded.
func (s BatchStatus) CanTransitionTo(next BatchStatus) bool {
	switch s {
	case BatchPending:
		return next == BatchProcessing || next == BatchFailed
	case BatchProcessing:
		return next == BatchCompleted || next == BatchFailed
	}
	return false
}

// ParseBatchStatus converts a wire value into a BatchStatus
func ParseBatchStatus(s string) (BatchStatus, error) {
	st := BatchStatus(s)
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownBatchStatus, s)
	}
	return st, nil
}

// AuditBatch groups the adjustments of one planned bulk operation
type AuditBatch struct {
	ID        uuid.UUID  `json:"id"`
	StoreID   string     `json:"storeId"`
	SessionID *uuid.UUID `json:"sessionId,omitempty"`
	BatchType BatchType  `json:"batchType"`

	TotalItems     int         `json:"totalItems"`
	ProcessedItems int         `json:"processedItems"`
	Status         BatchStatus `json:"status"`

	TotalQuantityChange int             `json:"totalQuantityChange"`
	TotalCostImpact     decimal.Decimal `json:"totalCostImpact"`
	ErrorCount          int             `json:"errorCount"`

	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	Revision int64 `json:"revision"`
}

// NewAuditBatch returns a pending batch
func NewAuditBatch(actor Actor, batchType BatchType, totalItems int, sessionID *uuid.UUID) *AuditBatch {
	return &AuditBatch{
		ID:              uuid.New(),
		StoreID:         actor.StoreID,
		SessionID:       sessionID,
		BatchType:       batchType,
		TotalItems:      totalItems,
		Status:          BatchPending,
		TotalCostImpact: decimal.Zero,
		CreatedBy:       actor.UserID,
	}
}

// Rollup returns the batch's running totals. Count is the number of
// processed items.
func (b *AuditBatch) Rollup() Rollup {
	return Rollup{
		Count:          b.ProcessedItems,
		QuantityChange: b.TotalQuantityChange,
		CostImpact:     b.TotalCostImpact,
	}
}

// SetRollup replaces the running totals
func (b *AuditBatch) SetRollup(r Rollup) {
	b.ProcessedItems = r.Count
	b.TotalQuantityChange = r.QuantityChange
	b.TotalCostImpact = r.CostImpact
}

// TransitionTo moves the batch to next, stamping CompletedAt for terminal
// states
func (b *AuditBatch) TransitionTo(next BatchStatus, at time.Time) error {
	if b.Status.IsTerminal() {
		return ErrBatchTerminal
	}
	if !b.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidBatchTransition, b.Status, next)
	}
	b.Status = next
	if next.IsTerminal() {
		b.CompletedAt = &at
	}
	return nil
}
