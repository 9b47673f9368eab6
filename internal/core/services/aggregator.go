// internal/core/services/aggregator.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// Aggregator keeps session and batch totals equal to the sum of their
// records. Deltas travel in the same commit as the records they summarise;
// reconciliation recomputes totals from the records themselves.
type Aggregator struct {
	gateway ports.LedgerGateway
	logger  *slog.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(gateway ports.LedgerGateway, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		gateway: gateway,
		logger:  logger.With(slog.String("service", "aggregator")),
	}
}

// Contributions returns the increment writes for records, one per session
// and one per batch touched
func (a *Aggregator) Contributions(records ...*domain.AdjustmentRecord) []ports.Write {
	sessions := make(map[uuid.UUID]domain.Rollup)
	batches := make(map[uuid.UUID]domain.Rollup)
	var sessionOrder, batchOrder []uuid.UUID

	for _, r := range records {
		if r.SessionID != nil {
			if _, seen := sessions[*r.SessionID]; !seen {
				sessionOrder = append(sessionOrder, *r.SessionID)
			}
			sessions[*r.SessionID] = sessions[*r.SessionID].Add(domain.RollupOf(r))
		}
		if r.BatchID != nil {
			if _, seen := batches[*r.BatchID]; !seen {
				batchOrder = append(batchOrder, *r.BatchID)
			}
			batches[*r.BatchID] = batches[*r.BatchID].Add(domain.RollupOf(r))
		}
	}

	writes := make([]ports.Write, 0, len(sessionOrder)+len(batchOrder))
	for _, id := range sessionOrder {
		writes = append(writes, ports.IncrementSession{SessionID: id, Delta: sessions[id]})
	}
	for _, id := range batchOrder {
		writes = append(writes, ports.IncrementBatch{BatchID: id, Delta: batches[id]})
	}
	return writes
}

// RecordBatchError counts a failed batch item
func (a *Aggregator) RecordBatchError(ctx context.Context, batchID uuid.UUID) error {
	if err := a.gateway.Commit(ctx, ports.IncrementBatch{BatchID: batchID, Errors: 1}); err != nil {
		return fmt.Errorf("failed to record batch error: %w", err)
	}
	return nil
}

// UpdateAuditSession stores absolute totals on a session. The write fails
// with ErrConcurrentModification if the session changed since it was read.
func (a *Aggregator) UpdateAuditSession(ctx context.Context, session *domain.AuditSession, totals domain.Rollup) error {
	session.SetRollup(totals)
	if err := a.gateway.Commit(ctx, ports.UpdateSession{Session: session}); err != nil {
		return fmt.Errorf("failed to update audit session totals: %w", err)
	}
	return nil
}

// UpdateAuditBatch stores absolute totals on a batch under the same
// revision check
func (a *Aggregator) UpdateAuditBatch(ctx context.Context, batch *domain.AuditBatch, totals domain.Rollup) error {
	batch.SetRollup(totals)
	if err := a.gateway.Commit(ctx, ports.UpdateBatch{Batch: batch}); err != nil {
		return fmt.Errorf("failed to update audit batch totals: %w", err)
	}
	return nil
}

// Reconciliation compares stored totals with the sum of records
type Reconciliation struct {
	Stored   domain.Rollup `json:"stored"`
	Expected domain.Rollup `json:"expected"`
	Drift    bool          `json:"drift"`
	Repaired bool          `json:"repaired"`
}

// ReconcileSession recomputes a session's totals from the records created
// while it was active and repairs them on drift
func (a *Aggregator) ReconcileSession(ctx context.Context, sessionID uuid.UUID) (*Reconciliation, error) {
	session, err := a.gateway.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit session: %w", err)
	}

	q := ports.RecordQuery{SessionID: &session.ID, Since: &session.StartedAt, Until: session.EndedAt}
	totals, err := a.gateway.Totals(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to sum session records: %w", err)
	}

	rec := &Reconciliation{Stored: session.Rollup(), Expected: totals.Rollup}
	rec.Drift = !rec.Stored.Equal(rec.Expected)
	if !rec.Drift {
		return rec, nil
	}

	a.logger.WarnContext(ctx, "session totals drifted",
		slog.String("session_id", session.ID.String()),
		slog.Int("stored_count", rec.Stored.Count),
		slog.Int("expected_count", rec.Expected.Count))

	if err := a.UpdateAuditSession(ctx, session, rec.Expected); err != nil {
		return rec, err
	}
	rec.Repaired = true
	return rec, nil
}

// ReconcileBatch recomputes a batch's totals from its records. Terminal
// batches are reported but left untouched.
func (a *Aggregator) ReconcileBatch(ctx context.Context, batchID uuid.UUID) (*Reconciliation, error) {
	batch, err := a.gateway.GetBatch(ctx, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load audit batch: %w", err)
	}

	totals, err := a.gateway.Totals(ctx, ports.RecordQuery{BatchID: &batch.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to sum batch records: %w", err)
	}

	rec := &Reconciliation{Stored: batch.Rollup(), Expected: totals.Rollup}
	rec.Drift = !rec.Stored.Equal(rec.Expected)
	if !rec.Drift || batch.Status.IsTerminal() {
		return rec, nil
	}

	a.logger.WarnContext(ctx, "batch totals drifted",
		slog.String("batch_id", batch.ID.String()),
		slog.Int("stored_count", rec.Stored.Count),
		slog.Int("expected_count", rec.Expected.Count))

	if err := a.UpdateAuditBatch(ctx, batch, rec.Expected); err != nil {
		return rec, err
	}
	rec.Repaired = true
	return rec, nil
}
