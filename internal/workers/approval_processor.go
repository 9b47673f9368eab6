// internal/workers/approval_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// ApprovalProcessor tells approvers about adjustments waiting for sign-off
type ApprovalProcessor struct {
	gateway   ports.LedgerGateway
	cache     ports.CacheRepository
	noticeTTL time.Duration
	logger    *slog.Logger
}

// NewApprovalProcessor creates a new approval processor. cache may be nil,
// in which case retried tasks can notify twice.
func NewApprovalProcessor(gateway ports.LedgerGateway, cache ports.CacheRepository, logger *slog.Logger) *ApprovalProcessor {
	return &ApprovalProcessor{
		gateway:   gateway,
		cache:     cache,
		noticeTTL: 24 * time.Hour,
		logger:    logger.With(slog.String("processor", "approval")),
	}
}

// NotifyApprovers handles ledger:approval_requested
func (p *ApprovalProcessor) NotifyApprovers(ctx context.Context, t *asynq.Task) error {
	var payload ports.ApprovalRequestedPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	record, err := p.gateway.GetRecord(ctx, payload.RecordID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return fmt.Errorf("record %s: %v: %w", payload.RecordID, err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load record: %w", err)
	}

	if !record.IsPendingApproval() {
		p.logger.DebugContext(ctx, "record no longer pending",
			slog.String("record_id", record.ID.String()))
		return nil
	}

	if p.cache != nil {
		key := redis_a.BuildKey(redis_a.PrefixApprovalNotice, record.StoreID, record.ID.String())
		first, err := p.cache.SetNX(ctx, key, time.Now().UTC(), p.noticeTTL)
		if err != nil {
			// Redis outages should not hold back the notice
			p.logger.WarnContext(ctx, "failed to record approval notice",
				slog.String("key", key),
				slog.String("error", err.Error()))
		} else if !first {
			p.logger.DebugContext(ctx, "approvers already notified",
				slog.String("record_id", record.ID.String()))
			return nil
		}
	}

	p.logger.InfoContext(ctx, "adjustment awaiting approval",
		slog.String("record_id", record.ID.String()),
		slog.String("store_id", record.StoreID),
		slog.String("item_id", record.ItemID),
		slog.String("type", string(record.Type)),
		slog.String("reason", string(record.Reason)),
		slog.Int("quantity_change", record.QuantityChange),
		slog.String("requested_by", record.UserName),
		slog.Time("created_at", record.CreatedAt))

	return nil
}
