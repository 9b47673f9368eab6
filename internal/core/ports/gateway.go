// internal/core/ports/gateway.go
package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// Write is one mutation inside an atomic commit
type Write interface {
	isWrite()
}

// InsertRecord creates a new adjustment record. CreatedAt and Revision are
// assigned by the gateway and written back into Record.
type InsertRecord struct{ Record *domain.AdjustmentRecord }

// UpdateRecord persists approval and reversal fields of an existing record.
// Record.Revision must match the stored revision; it is bumped on success.
type UpdateRecord struct{ Record *domain.AdjustmentRecord }

// InsertSession creates an active session. Starting a second active session
// for the same store, user and device fails with ErrSessionAlreadyActive.
type InsertSession struct{ Session *domain.AuditSession }

// UpdateSession persists lifecycle fields and absolute totals of a session,
// guarded by Session.Revision.
type UpdateSession struct{ Session *domain.AuditSession }

// InsertBatch creates a batch
type InsertBatch struct{ Batch *domain.AuditBatch }

// UpdateBatch persists status, progress and totals of a batch, guarded by
// Batch.Revision.
type UpdateBatch struct{ Batch *domain.AuditBatch }

// IncrementSession adds Delta to the stored session totals. It fails with
// ErrSessionNotActive when the session has ended.
type IncrementSession struct {
	SessionID uuid.UUID
	Delta     domain.Rollup
}

// IncrementBatch adds Delta to the stored batch totals (Delta.Count counts
// processed items) and Errors to its error count. A pending batch moves to
// processing when items are processed. Terminal batches fail with
// ErrBatchTerminal.
type IncrementBatch struct {
	BatchID uuid.UUID
	Delta   domain.Rollup
	Errors  int
}

func (InsertRecord) isWrite()     {}
func (UpdateRecord) isWrite()     {}
func (InsertSession) isWrite()    {}
func (UpdateSession) isWrite()    {}
func (InsertBatch) isWrite()      {}
func (UpdateBatch) isWrite()      {}
func (IncrementSession) isWrite() {}
func (IncrementBatch) isWrite()   {}

// RecordQuery filters adjustment records. Results are ordered by CreatedAt
// descending.
type RecordQuery struct {
	StoreID     string
	SessionID   *uuid.UUID
	BatchID     *uuid.UUID
	ItemID      string
	LocationID  string
	Reference   string
	Type        domain.AdjustmentType
	PendingOnly bool
	Since       *time.Time
	Until       *time.Time
	Limit       int
}

// SessionQuery filters audit sessions
type SessionQuery struct {
	StoreID       string
	UserID        string
	ActiveOnly    bool
	StartedBefore *time.Time
	Limit         int
}

// LedgerTotals aggregates the records matched by a query
type LedgerTotals struct {
	domain.Rollup
	PendingApprovals int `json:"pendingApprovals"`
}

// RecordSet is one emission of a subscription
type RecordSet struct {
	Records []*domain.AdjustmentRecord
	Err     error
}

// LedgerGateway is the persistence boundary of the ledger. Commit applies
// every write or none of them.
type LedgerGateway interface {
	Commit(ctx context.Context, writes ...Write) error

	GetRecord(ctx context.Context, id uuid.UUID) (*domain.AdjustmentRecord, error)
	GetSession(ctx context.Context, id uuid.UUID) (*domain.AuditSession, error)
	GetBatch(ctx context.Context, id uuid.UUID) (*domain.AuditBatch, error)
	FindActiveSession(ctx context.Context, storeID, userID, deviceID string) (*domain.AuditSession, error)

	ListRecords(ctx context.Context, q RecordQuery) ([]*domain.AdjustmentRecord, error)
	ListSessions(ctx context.Context, q SessionQuery) ([]*domain.AuditSession, error)
	Totals(ctx context.Context, q RecordQuery) (LedgerTotals, error)

	// Subscribe emits the current result set of q and a fresh one after each
	// commit that may have changed it. The channel closes when ctx is done.
	Subscribe(ctx context.Context, q RecordQuery) (<-chan RecordSet, error)
}
