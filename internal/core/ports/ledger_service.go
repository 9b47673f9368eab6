// internal/core/ports/ledger_service.go
package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// LedgerService is the application port used by handlers and workers.
// Every call names its actor explicitly.
type LedgerService interface {
	StartAuditSession(ctx context.Context, actor domain.Actor) (*domain.AuditSession, error)
	EndAuditSession(ctx context.Context, actor domain.Actor, sessionID uuid.UUID) (*domain.AuditSession, error)
	GetAuditSession(ctx context.Context, actor domain.Actor, sessionID uuid.UUID) (*domain.AuditSession, error)

	StartAuditBatch(ctx context.Context, actor domain.Actor, req StartBatchRequest) (*domain.AuditBatch, error)
	CompleteAuditBatch(ctx context.Context, actor domain.Actor, batchID uuid.UUID, status domain.BatchStatus) (*domain.AuditBatch, error)
	GetAuditBatch(ctx context.Context, actor domain.Actor, batchID uuid.UUID) (*domain.AuditBatch, error)

	RecordAdjustment(ctx context.Context, actor domain.Actor, req domain.AdjustmentRequest) (*domain.AdjustmentRecord, error)
	RecordSale(ctx context.Context, actor domain.Actor, req SaleRequest) (*domain.AdjustmentRecord, error)
	RecordReceive(ctx context.Context, actor domain.Actor, req ReceiveRequest) (*domain.AdjustmentRecord, error)
	RecordDamage(ctx context.Context, actor domain.Actor, req DamageRequest) (*domain.AdjustmentRecord, error)
	RecordTransfer(ctx context.Context, actor domain.Actor, req TransferRequest) (*TransferResult, error)
	RecordCycleCount(ctx context.Context, actor domain.Actor, req CycleCountRequest) (*CycleCountResult, error)

	ApproveAdjustment(ctx context.Context, actor domain.Actor, recordID uuid.UUID, notes string) (*domain.AdjustmentRecord, error)
	ReverseAdjustment(ctx context.Context, actor domain.Actor, recordID uuid.UUID, reason string) (*ReversalResult, error)

	GetAdjustment(ctx context.Context, actor domain.Actor, recordID uuid.UUID) (*domain.AdjustmentRecord, error)
	ListAdjustments(ctx context.Context, actor domain.Actor, q RecordQuery) ([]*domain.AdjustmentRecord, error)
	ListPendingApprovals(ctx context.Context, actor domain.Actor, limit int) ([]*domain.AdjustmentRecord, error)
	VerifyTransfer(ctx context.Context, actor domain.Actor, reference string) (*TransferCheck, error)

	GetSummary(ctx context.Context, actor domain.Actor, q SummaryQuery) (*Summary, error)
	WatchSummary(ctx context.Context, actor domain.Actor, q SummaryQuery) (<-chan SummaryUpdate, error)

	RequestExport(ctx context.Context, actor domain.Actor, req ExportPayload) (string, error)
}

// Grouping attaches an adjustment to a session and/or batch
type Grouping struct {
	SessionID *uuid.UUID `json:"sessionId,omitempty"`
	BatchID   *uuid.UUID `json:"batchId,omitempty"`
}

// StartBatchRequest opens a batch
type StartBatchRequest struct {
	BatchType  domain.BatchType
	TotalItems int
	SessionID  *uuid.UUID
}

// SaleRequest records stock leaving through a sale
type SaleRequest struct {
	Grouping
	ItemID         string
	LocationID     string
	QuantityBefore int
	QuantitySold   int
	UnitCost       *decimal.Decimal
	OrderReference string
	Notes          string
}

// ReceiveRequest records stock arriving from a supplier
type ReceiveRequest struct {
	Grouping
	ItemID           string
	LocationID       string
	QuantityBefore   int
	QuantityReceived int
	UnitCost         *decimal.Decimal
	PurchaseOrder    string
	Notes            string
}

// DamageRequest records stock written off. Reason defaults to damaged.
type DamageRequest struct {
	Grouping
	ItemID          string
	LocationID      string
	QuantityBefore  int
	QuantityDamaged int
	Reason          domain.AdjustmentReason
	UnitCost        *decimal.Decimal
	Notes           string
}

// TransferRequest moves stock between two locations of one store.
// DestinationQuantityBefore is the destination's prior on-hand quantity;
// when nil the incoming leg starts from zero.
type TransferRequest struct {
	Grouping
	ItemID                    string
	FromLocationID            string
	ToLocationID              string
	QuantityBefore            int
	QuantityMoved             int
	DestinationQuantityBefore *int
	UnitCost                  *decimal.Decimal
	Reference                 string
	Notes                     string
	RequiresApproval          *bool
}

// TransferResult holds both legs of a transfer
type TransferResult struct {
	Reference string                   `json:"reference"`
	Outgoing  *domain.AdjustmentRecord `json:"outgoing"`
	Incoming  *domain.AdjustmentRecord `json:"incoming"`
}

// TransferCheck reports whether the legs sharing a reference balance
type TransferCheck struct {
	Reference string                     `json:"reference"`
	Legs      []*domain.AdjustmentRecord `json:"legs"`
	Balanced  bool                       `json:"balanced"`
}

// CycleCountRequest records a physical count against the system quantity
type CycleCountRequest struct {
	Grouping
	ItemID          string
	LocationID      string
	SystemQuantity  int
	CountedQuantity int
	UnitCost        *decimal.Decimal
	Reference       string
	Notes           string
}

// CycleCountResult is the recorded count and its variance
type CycleCountResult struct {
	Record   *domain.AdjustmentRecord `json:"record"`
	Variance int                      `json:"variance"`
}

// ReversalResult holds the flagged original and its inverse entry
type ReversalResult struct {
	Original *domain.AdjustmentRecord `json:"original"`
	Reversal *domain.AdjustmentRecord `json:"reversal"`
}

// SummaryQuery scopes a summary to a store, session or batch
type SummaryQuery struct {
	SessionID   *uuid.UUID
	BatchID     *uuid.UUID
	RecentLimit int
}

// Summary is the read model exposed to the UI
type Summary struct {
	TotalAdjustments    int                        `json:"totalAdjustments"`
	TotalQuantityChange int                        `json:"totalQuantityChange"`
	TotalCostImpact     decimal.Decimal            `json:"totalCostImpact"`
	PendingApprovals    int                        `json:"pendingApprovals"`
	Recent              []*domain.AdjustmentRecord `json:"recent"`
}

// SummaryUpdate is one emission of WatchSummary
type SummaryUpdate struct {
	Summary *Summary
	Err     error
}
