// internal/workers/reconcile_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
)

// ReconcileProcessor repairs session and batch totals that drifted from
// their records
type ReconcileProcessor struct {
	aggregator *services.Aggregator
	logger     *slog.Logger
}

// NewReconcileProcessor creates a new reconcile processor
func NewReconcileProcessor(aggregator *services.Aggregator, logger *slog.Logger) *ReconcileProcessor {
	return &ReconcileProcessor{
		aggregator: aggregator,
		logger:     logger.With(slog.String("processor", "reconcile")),
	}
}

// Reconcile handles ledger:reconcile
func (p *ReconcileProcessor) Reconcile(ctx context.Context, t *asynq.Task) error {
	var payload ports.ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.SessionID == nil && payload.BatchID == nil {
		return fmt.Errorf("reconcile task names no session or batch: %w", asynq.SkipRetry)
	}

	var errs []error

	if payload.SessionID != nil {
		rec, err := p.aggregator.ReconcileSession(ctx, *payload.SessionID)
		if err != nil {
			errs = append(errs, skipMissing(err, domain.ErrSessionNotFound))
		} else {
			p.report(ctx, "session", payload.SessionID.String(), rec)
		}
	}

	if payload.BatchID != nil {
		rec, err := p.aggregator.ReconcileBatch(ctx, *payload.BatchID)
		if err != nil {
			errs = append(errs, skipMissing(err, domain.ErrBatchNotFound))
		} else {
			p.report(ctx, "batch", payload.BatchID.String(), rec)
		}
	}

	return errors.Join(errs...)
}

func (p *ReconcileProcessor) report(ctx context.Context, kind, id string, rec *services.Reconciliation) {
	level := slog.LevelDebug
	if rec.Drift {
		level = slog.LevelInfo
	}
	p.logger.Log(ctx, level, "totals reconciled",
		slog.String("kind", kind),
		slog.String("id", id),
		slog.Bool("drift", rec.Drift),
		slog.Bool("repaired", rec.Repaired))
}

// skipMissing stops asynq from retrying lookups that can never succeed
func skipMissing(err, missing error) error {
	if errors.Is(err, missing) {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	return err
}
