// internal/core/services/ledger_writer.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// LedgerWriter turns requests into derived records and persists them in a
// single commit
type LedgerWriter struct {
	gateway ports.LedgerGateway
	logger  *slog.Logger
}

// NewLedgerWriter creates a new ledger writer
func NewLedgerWriter(gateway ports.LedgerGateway, logger *slog.Logger) *LedgerWriter {
	return &LedgerWriter{
		gateway: gateway,
		logger:  logger.With(slog.String("service", "ledger_writer")),
	}
}

// BuildRecord derives a record without persisting it
func (w *LedgerWriter) BuildRecord(req domain.AdjustmentRequest, requiresApproval bool) *domain.AdjustmentRecord {
	return domain.NewAdjustmentRecord(req, requiresApproval)
}

// CreateRecord persists one record together with extra writes. There is no
// retry; on error nothing was written.
func (w *LedgerWriter) CreateRecord(ctx context.Context, req domain.AdjustmentRequest, requiresApproval bool, extra ...ports.Write) (*domain.AdjustmentRecord, error) {
	record := w.BuildRecord(req, requiresApproval)
	if err := w.CommitRecords(ctx, []*domain.AdjustmentRecord{record}, extra...); err != nil {
		return nil, err
	}
	return record, nil
}

// CommitRecords inserts already built records and extra writes atomically
func (w *LedgerWriter) CommitRecords(ctx context.Context, records []*domain.AdjustmentRecord, extra ...ports.Write) error {
	writes := make([]ports.Write, 0, len(records)+len(extra))
	for _, r := range records {
		writes = append(writes, ports.InsertRecord{Record: r})
	}
	writes = append(writes, extra...)

	if err := w.gateway.Commit(ctx, writes...); err != nil {
		return fmt.Errorf("failed to commit adjustment records: %w", err)
	}

	for _, r := range records {
		w.logger.InfoContext(ctx, "adjustment recorded",
			slog.String("record_id", r.ID.String()),
			slog.String("store_id", r.StoreID),
			slog.String("item_id", r.ItemID),
			slog.String("type", string(r.Type)),
			slog.Int("quantity_change", r.QuantityChange),
			slog.Bool("requires_approval", r.RequiresApproval))
	}
	return nil
}
