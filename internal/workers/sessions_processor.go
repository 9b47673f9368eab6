// internal/workers/sessions_processor.go
package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
)

const maxCloseAttempts = 3

// SessionsProcessor ends audit sessions that were left open
type SessionsProcessor struct {
	gateway    ports.LedgerGateway
	aggregator *services.Aggregator
	maxAge     time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

// NewSessionsProcessor creates a new sessions processor. maxAge applies when
// a task does not carry its own.
func NewSessionsProcessor(gateway ports.LedgerGateway, aggregator *services.Aggregator, maxAge time.Duration, logger *slog.Logger) *SessionsProcessor {
	return &SessionsProcessor{
		gateway:    gateway,
		aggregator: aggregator,
		maxAge:     maxAge,
		now:        time.Now,
		logger:     logger.With(slog.String("processor", "sessions")),
	}
}

// CloseStaleSessions handles ledger:close_stale_sessions
func (p *SessionsProcessor) CloseStaleSessions(ctx context.Context, t *asynq.Task) error {
	var payload ports.CloseStaleSessionsPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("failed to unmarshal payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	maxAge := payload.MaxAge
	if maxAge <= 0 {
		maxAge = p.maxAge
	}
	if maxAge <= 0 {
		return fmt.Errorf("no session age limit configured: %w", asynq.SkipRetry)
	}

	cutoff := p.now().Add(-maxAge)
	stale, err := p.gateway.ListSessions(ctx, ports.SessionQuery{ActiveOnly: true, StartedBefore: &cutoff})
	if err != nil {
		return fmt.Errorf("failed to list stale sessions: %w", err)
	}

	p.logger.InfoContext(ctx, "closing stale sessions",
		slog.Int("count", len(stale)),
		slog.Time("cutoff", cutoff))

	var errs []error
	closed := 0
	for _, s := range stale {
		ok, err := p.closeSession(ctx, s.ID)
		if err != nil {
			p.logger.WarnContext(ctx, "failed to close session",
				slog.String("session_id", s.ID.String()),
				slog.String("error", err.Error()))
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		closed++

		if _, err := p.aggregator.ReconcileSession(ctx, s.ID); err != nil {
			p.logger.WarnContext(ctx, "failed to reconcile closed session",
				slog.String("session_id", s.ID.String()),
				slog.String("error", err.Error()))
		}
	}

	p.logger.InfoContext(ctx, "stale sessions closed", slog.Int("closed", closed))
	return errors.Join(errs...)
}

// closeSession ends one session, reloading it when a concurrent write bumped
// its revision. It reports false when the session had already ended.
func (p *SessionsProcessor) closeSession(ctx context.Context, id uuid.UUID) (bool, error) {
	var err error
	for attempt := 0; attempt < maxCloseAttempts; attempt++ {
		var session *domain.AuditSession
		session, err = p.gateway.GetSession(ctx, id)
		if err != nil {
			return false, err
		}
		if !session.IsActive {
			return false, nil
		}
		if err = session.End(p.now().UTC()); err != nil {
			return false, err
		}

		err = p.gateway.Commit(ctx, ports.UpdateSession{Session: session})
		if err == nil {
			p.logger.InfoContext(ctx, "session closed",
				slog.String("session_id", session.ID.String()),
				slog.String("user_id", session.UserID),
				slog.String("device_id", session.DeviceID),
				slog.Time("started_at", session.StartedAt))
			return true, nil
		}
		if !errors.Is(err, domain.ErrConcurrentModification) {
			return false, err
		}
	}
	return false, err
}
