// internal/core/services/ledger.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/policy"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// Options tunes the ledger service
type Options struct {
	Thresholds  policy.Thresholds
	SummaryTTL  time.Duration
	RecentLimit int
	// MaxCommitAttempts bounds retries of revision-guarded lifecycle writes.
	MaxCommitAttempts int
}

// DefaultOptions returns the production defaults
func DefaultOptions() Options {
	return Options{
		Thresholds:        policy.DefaultThresholds(),
		SummaryTTL:        30 * time.Second,
		RecentLimit:       10,
		MaxCommitAttempts: 3,
	}
}

// LedgerService is the entry point for recording and supervising inventory
// adjustments
type LedgerService struct {
	gateway    ports.LedgerGateway
	writer     *LedgerWriter
	aggregator *Aggregator
	transfers  *TransferCoordinator
	policy     *policy.Engine
	cache      ports.CacheRepository
	tasks      ports.TaskPublisher
	opts       Options
	now        func() time.Time
	flight     singleflight.Group
	logger     *slog.Logger
}

// Statically assert that *LedgerService implements the LedgerService interface.
var _ ports.LedgerService = (*LedgerService)(nil)

// NewLedgerService wires the ledger components. cache and tasks may be nil.
func NewLedgerService(gateway ports.LedgerGateway, cache ports.CacheRepository, tasks ports.TaskPublisher, opts Options, logger *slog.Logger) *LedgerService {
	if opts.MaxCommitAttempts < 1 {
		opts.MaxCommitAttempts = 1
	}
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = DefaultOptions().RecentLimit
	}

	writer := NewLedgerWriter(gateway, logger)
	aggregator := NewAggregator(gateway, logger)

	return &LedgerService{
		gateway:    gateway,
		writer:     writer,
		aggregator: aggregator,
		transfers:  NewTransferCoordinator(writer, aggregator, gateway, logger),
		policy:     policy.NewEngine(opts.Thresholds),
		cache:      cache,
		tasks:      tasks,
		opts:       opts,
		now:        time.Now,
		logger:     logger.With(slog.String("service", "ledger")),
	}
}

// Aggregator exposes the rollup component for background reconciliation
func (s *LedgerService) Aggregator() *Aggregator {
	return s.aggregator
}

func checkActor(actor domain.Actor) error {
	if err := actor.Validate(); err != nil {
		return domain.NewValidationError(err.Error())
	}
	return nil
}

// StartAuditSession opens a session for the actor. A second session while
// one is active is rejected with ErrSessionAlreadyActive.
func (s *LedgerService) StartAuditSession(ctx context.Context, actor domain.Actor) (*domain.AuditSession, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	existing, err := s.gateway.FindActiveSession(ctx, actor.StoreID, actor.UserID, actor.DeviceID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionAlreadyActive, existing.ID)
	case !errors.Is(err, domain.ErrSessionNotFound):
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}

	session := domain.NewAuditSession(actor)
	if err := s.gateway.Commit(ctx, ports.InsertSession{Session: session}); err != nil {
		return nil, fmt.Errorf("failed to start audit session: %w", err)
	}

	s.logger.InfoContext(ctx, "audit session started",
		slog.String("session_id", session.ID.String()),
		slog.String("store_id", session.StoreID),
		slog.String("user_id", session.UserID))

	return session, nil
}

// EndAuditSession closes an active session owned by the actor. Admins may
// close any session of their store.
func (s *LedgerService) EndAuditSession(ctx context.Context, actor domain.Actor, sessionID uuid.UUID) (*domain.AuditSession, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	var session *domain.AuditSession
	err := s.retryOnConflict(ctx, func() error {
		var err error
		session, err = s.loadSession(ctx, actor, sessionID)
		if err != nil {
			return err
		}
		if !session.OwnedBy(actor) && actor.Role != domain.RoleAdmin {
			return domain.ErrSessionOwnership
		}
		if err := session.End(s.now().UTC()); err != nil {
			return err
		}
		return s.gateway.Commit(ctx, ports.UpdateSession{Session: session})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to end audit session: %w", err)
	}

	s.logger.InfoContext(ctx, "audit session ended",
		slog.String("session_id", session.ID.String()),
		slog.Int("total_adjustments", session.TotalAdjustments),
		slog.Int("total_quantity_change", session.TotalQuantityChange))

	s.enqueue(ctx, ports.TaskReconcile, ports.ReconcilePayload{SessionID: &session.ID})
	return session, nil
}

// GetAuditSession returns a session of the actor's store
func (s *LedgerService) GetAuditSession(ctx context.Context, actor domain.Actor, sessionID uuid.UUID) (*domain.AuditSession, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	return s.loadSession(ctx, actor, sessionID)
}

func (s *LedgerService) loadSession(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.AuditSession, error) {
	session, err := s.gateway.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.StoreID != actor.StoreID {
		return nil, domain.ErrStoreMismatch
	}
	return session, nil
}

// StartAuditBatch creates a pending batch
func (s *LedgerService) StartAuditBatch(ctx context.Context, actor domain.Actor, req ports.StartBatchRequest) (*domain.AuditBatch, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	var errs []string
	if !req.BatchType.IsValid() {
		errs = append(errs, fmt.Sprintf("unknown batch type %q", req.BatchType))
	}
	if req.TotalItems < 0 {
		errs = append(errs, "total items cannot be negative")
	}
	if len(errs) > 0 {
		return nil, domain.NewValidationError(errs...)
	}

	if req.SessionID != nil {
		session, err := s.loadSession(ctx, actor, *req.SessionID)
		if err != nil {
			return nil, err
		}
		if !session.IsActive {
			return nil, domain.ErrSessionNotActive
		}
	}

	batch := domain.NewAuditBatch(actor, req.BatchType, req.TotalItems, req.SessionID)
	if err := s.gateway.Commit(ctx, ports.InsertBatch{Batch: batch}); err != nil {
		return nil, fmt.Errorf("failed to start audit batch: %w", err)
	}

	s.logger.InfoContext(ctx, "audit batch started",
		slog.String("batch_id", batch.ID.String()),
		slog.String("batch_type", string(batch.BatchType)),
		slog.Int("total_items", batch.TotalItems))

	return batch, nil
}

// CompleteAuditBatch moves a batch into a terminal status. It succeeds at
// most once per batch.
func (s *LedgerService) CompleteAuditBatch(ctx context.Context, actor domain.Actor, batchID uuid.UUID, status domain.BatchStatus) (*domain.AuditBatch, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if !status.IsTerminal() {
		return nil, fmt.Errorf("%w: %q is not a terminal status", domain.ErrInvalidBatchTransition, status)
	}

	var batch *domain.AuditBatch
	err := s.retryOnConflict(ctx, func() error {
		var err error
		batch, err = s.loadBatch(ctx, actor, batchID)
		if err != nil {
			return err
		}
		if err := batch.TransitionTo(status, s.now().UTC()); err != nil {
			return err
		}
		return s.gateway.Commit(ctx, ports.UpdateBatch{Batch: batch})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to complete audit batch: %w", err)
	}

	s.logger.InfoContext(ctx, "audit batch completed",
		slog.String("batch_id", batch.ID.String()),
		slog.String("status", string(batch.Status)),
		slog.Int("processed_items", batch.ProcessedItems),
		slog.Int("error_count", batch.ErrorCount))

	s.enqueue(ctx, ports.TaskReconcile, ports.ReconcilePayload{BatchID: &batch.ID})
	return batch, nil
}

// GetAuditBatch returns a batch of the actor's store
func (s *LedgerService) GetAuditBatch(ctx context.Context, actor domain.Actor, batchID uuid.UUID) (*domain.AuditBatch, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	return s.loadBatch(ctx, actor, batchID)
}

func (s *LedgerService) loadBatch(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.AuditBatch, error) {
	batch, err := s.gateway.GetBatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if batch.StoreID != actor.StoreID {
		return nil, domain.ErrStoreMismatch
	}
	return batch, nil
}

// retryOnConflict reruns fn while a revision check fails
func (s *LedgerService) retryOnConflict(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= s.opts.MaxCommitAttempts; attempt++ {
		err = fn()
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return err
		}
		s.logger.DebugContext(ctx, "revision conflict, retrying", slog.Int("attempt", attempt))
	}
	return err
}

// enqueue publishes a background task. Failures are logged only since the
// ledger write already happened.
func (s *LedgerService) enqueue(ctx context.Context, taskType string, payload interface{}) {
	if s.tasks == nil {
		return
	}
	if _, err := s.tasks.Enqueue(ctx, taskType, payload); err != nil {
		s.logger.WarnContext(ctx, "failed to enqueue task",
			slog.String("task_type", taskType),
			slog.String("error", err.Error()))
	}
}
