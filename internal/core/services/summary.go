// internal/core/services/summary.go
package services

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const summaryKeyPrefix = "ledger:summary:"

func summaryKey(storeID string, q ports.SummaryQuery) string {
	session, batch := "-", "-"
	if q.SessionID != nil {
		session = q.SessionID.String()
	}
	if q.BatchID != nil {
		batch = q.BatchID.String()
	}
	return fmt.Sprintf("%s%s:%s:%s:%d", summaryKeyPrefix, storeID, session, batch, q.RecentLimit)
}

func (s *LedgerService) recordQuery(storeID string, q ports.SummaryQuery) ports.RecordQuery {
	return ports.RecordQuery{StoreID: storeID, SessionID: q.SessionID, BatchID: q.BatchID}
}

// GetSummary returns totals, pending approvals and the most recent records
// for the actor's store, optionally narrowed to a session or batch
func (s *LedgerService) GetSummary(ctx context.Context, actor domain.Actor, q ports.SummaryQuery) (*ports.Summary, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if q.RecentLimit <= 0 {
		q.RecentLimit = s.opts.RecentLimit
	}

	key := summaryKey(actor.StoreID, q)
	load := func() (interface{}, error) {
		// shared by every waiter on key, so one caller's cancellation must
		// not fail the others
		v, err, _ := s.flight.Do(key, func() (interface{}, error) {
			return s.computeSummary(context.WithoutCancel(ctx), actor.StoreID, q)
		})
		return v, err
	}

	if s.cache == nil {
		v, err := load()
		if err != nil {
			return nil, err
		}
		return v.(*ports.Summary), nil
	}

	var (
		summary  ports.Summary
		fetchErr error
	)
	err := s.cache.GetOrSet(ctx, key, &summary, func() (interface{}, error) {
		v, err := load()
		fetchErr = err
		return v, err
	}, s.opts.SummaryTTL)
	if fetchErr != nil {
		return nil, fetchErr
	}
	if err != nil {
		s.logger.WarnContext(ctx, "summary cache unavailable, reading ledger directly",
			slog.String("key", key),
			slog.String("error", err.Error()))
		v, err := load()
		if err != nil {
			return nil, err
		}
		return v.(*ports.Summary), nil
	}
	return &summary, nil
}

// computeSummary reads totals and recent records concurrently
func (s *LedgerService) computeSummary(ctx context.Context, storeID string, q ports.SummaryQuery) (*ports.Summary, error) {
	rq := s.recordQuery(storeID, q)

	var (
		totals ports.LedgerTotals
		recent []*domain.AdjustmentRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		totals, err = s.gateway.Totals(gctx, rq)
		if err != nil {
			return fmt.Errorf("failed to load ledger totals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		recentQuery := rq
		recentQuery.Limit = q.RecentLimit
		var err error
		recent, err = s.gateway.ListRecords(gctx, recentQuery)
		if err != nil {
			return fmt.Errorf("failed to load recent adjustments: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ports.Summary{
		TotalAdjustments:    totals.Count,
		TotalQuantityChange: totals.QuantityChange,
		TotalCostImpact:     totals.CostImpact,
		PendingApprovals:    totals.PendingApprovals,
		Recent:              recent,
	}, nil
}

// SummarizeRecords builds a summary from a full result set. Records must be
// ordered newest first.
func SummarizeRecords(records []*domain.AdjustmentRecord, recentLimit int) *ports.Summary {
	totals := domain.SumRecords(records)
	pending := 0
	for _, r := range records {
		if r.IsPendingApproval() {
			pending++
		}
	}
	recent := records
	if recentLimit > 0 && len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return &ports.Summary{
		TotalAdjustments:    totals.Count,
		TotalQuantityChange: totals.QuantityChange,
		TotalCostImpact:     totals.CostImpact,
		PendingApprovals:    pending,
		Recent:              recent,
	}
}

// WatchSummary streams a fresh summary every time the underlying read
// query emits. Updates are eventual and never synchronous with a write.
func (s *LedgerService) WatchSummary(ctx context.Context, actor domain.Actor, q ports.SummaryQuery) (<-chan ports.SummaryUpdate, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if q.RecentLimit <= 0 {
		q.RecentLimit = s.opts.RecentLimit
	}

	sets, err := s.gateway.Subscribe(ctx, s.recordQuery(actor.StoreID, q))
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe to ledger: %w", err)
	}

	out := make(chan ports.SummaryUpdate, 1)
	go func() {
		defer close(out)
		for set := range sets {
			update := ports.SummaryUpdate{Err: set.Err}
			if set.Err == nil {
				update.Summary = SummarizeRecords(set.Records, q.RecentLimit)
			}
			select {
			case out <- update:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// invalidateSummaries drops cached summaries of a store
func (s *LedgerService) invalidateSummaries(ctx context.Context, storeID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeletePattern(ctx, summaryKeyPrefix+storeID+":*"); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate summary cache",
			slog.String("store_id", storeID),
			slog.String("error", err.Error()))
	}
}
