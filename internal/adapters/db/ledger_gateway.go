// internal/adapters/db/ledger_gateway.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const (
	// NotifyChannel carries the store id of every committed record write
	NotifyChannel = "ledger_changes"

	activeSessionIndex = "idx_audit_sessions_active"
	uniqueViolation    = "23505"
)

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

var recordColumns = []string{
	"id", "store_id", "item_id", "location_id",
	"quantity_before", "quantity_after", "quantity_change",
	"adjustment_type", "reason",
	"user_id", "user_name", "user_role", "device_id", "created_at",
	"unit_cost", "total_cost_impact",
	"session_id", "batch_id",
	"requires_approval", "approved_by", "approved_at", "approval_notes",
	"is_reversed", "reversal_reference", "reverses_id",
	"reference", "notes", "version", "revision",
}

var sessionColumns = []string{
	"id", "store_id", "user_id", "user_name", "user_role", "device_id",
	"started_at", "ended_at", "is_active",
	"total_adjustments", "total_quantity_change", "total_cost_impact", "revision",
}

var batchColumns = []string{
	"id", "store_id", "session_id", "batch_type",
	"total_items", "processed_items", "status",
	"total_quantity_change", "total_cost_impact", "error_count",
	"created_by", "created_at", "completed_at", "revision",
}

// LedgerGateway implements ports.LedgerGateway on PostgreSQL
type LedgerGateway struct {
	db     *Database
	logger *slog.Logger
}

var _ ports.LedgerGateway = (*LedgerGateway)(nil)

// NewLedgerGateway creates a new PostgreSQL ledger gateway
func NewLedgerGateway(db *Database, logger *slog.Logger) *LedgerGateway {
	return &LedgerGateway{
		db:     db,
		logger: logger.With(slog.String("repository", "ledger")),
	}
}

// Commit applies writes inside one transaction. Values assigned by the
// database are copied back into the written entities after the commit.
func (g *LedgerGateway) Commit(ctx context.Context, writes ...ports.Write) error {
	if len(writes) == 0 {
		return nil
	}

	var after []func()
	err := g.db.Transaction(ctx, func(tx pgx.Tx) error {
		after = after[:0]
		for i, w := range writes {
			fn, err := g.apply(ctx, tx, w)
			if err != nil {
				return fmt.Errorf("write %d (%T): %w", i, w, err)
			}
			if fn != nil {
				after = append(after, fn)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, fn := range after {
		fn()
	}
	return nil
}

func (g *LedgerGateway) apply(ctx context.Context, tx pgx.Tx, w ports.Write) (func(), error) {
	switch w := w.(type) {
	case ports.InsertRecord:
		return g.insertRecord(ctx, tx, w.Record)
	case ports.UpdateRecord:
		return g.updateRecord(ctx, tx, w.Record)
	case ports.InsertSession:
		return g.insertSession(ctx, tx, w.Session)
	case ports.UpdateSession:
		return g.updateSession(ctx, tx, w.Session)
	case ports.InsertBatch:
		return g.insertBatch(ctx, tx, w.Batch)
	case ports.UpdateBatch:
		return g.updateBatch(ctx, tx, w.Batch)
	case ports.IncrementSession:
		return nil, g.incrementSession(ctx, tx, w)
	case ports.IncrementBatch:
		return nil, g.incrementBatch(ctx, tx, w)
	}
	return nil, fmt.Errorf("unsupported write %T", w)
}

func (g *LedgerGateway) insertRecord(ctx context.Context, tx pgx.Tx, r *domain.AdjustmentRecord) (func(), error) {
	// created_at never moves backwards within a store
	query := `
		INSERT INTO adjustment_records (
			id, store_id, item_id, location_id,
			quantity_before, quantity_after, quantity_change,
			adjustment_type, reason,
			user_id, user_name, user_role, device_id,
			unit_cost, total_cost_impact, session_id, batch_id,
			requires_approval, approved_by, approved_at, approval_notes,
			is_reversed, reversal_reference, reverses_id,
			reference, notes, version, revision, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, 1,
			GREATEST(
				clock_timestamp(),
				(SELECT MAX(created_at) + INTERVAL '1 microsecond' FROM adjustment_records WHERE store_id = $2)
			)
		) RETURNING created_at, revision`

	var (
		createdAt = r.CreatedAt
		revision  int64
	)
	err := tx.QueryRow(ctx, query,
		r.ID, r.StoreID, r.ItemID, r.LocationID,
		r.QuantityBefore, r.QuantityAfter, r.QuantityChange,
		string(r.Type), string(r.Reason),
		r.UserID, r.UserName, string(r.UserRole), r.DeviceID,
		nullDecimal(r.UnitCost), nullDecimal(r.TotalCostImpact), r.SessionID, r.BatchID,
		r.RequiresApproval, r.ApprovedBy, r.ApprovedAt, r.ApprovalNotes,
		r.IsReversed, r.ReversalReference, r.ReversesID,
		r.Reference, r.Notes, r.Version,
	).Scan(&createdAt, &revision)
	if err != nil {
		return nil, fmt.Errorf("failed to insert adjustment record: %w", err)
	}

	return func() {
		r.CreatedAt = createdAt
		r.Revision = revision
	}, nil
}

func (g *LedgerGateway) updateRecord(ctx context.Context, tx pgx.Tx, r *domain.AdjustmentRecord) (func(), error) {
	query := `
		UPDATE adjustment_records SET
			approved_by = $3, approved_at = $4, approval_notes = $5,
			is_reversed = $6, reversal_reference = $7,
			revision = revision + 1
		WHERE id = $1 AND revision = $2
		RETURNING revision`

	var revision int64
	err := tx.QueryRow(ctx, query,
		r.ID, r.Revision,
		r.ApprovedBy, r.ApprovedAt, r.ApprovalNotes,
		r.IsReversed, r.ReversalReference,
	).Scan(&revision)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, g.missingOrStale(ctx, tx, "adjustment_records", r.ID, domain.ErrRecordNotFound)
		}
		return nil, fmt.Errorf("failed to update adjustment record: %w", err)
	}
	return func() { r.Revision = revision }, nil
}

func (g *LedgerGateway) insertSession(ctx context.Context, tx pgx.Tx, s *domain.AuditSession) (func(), error) {
	query := `
		INSERT INTO audit_sessions (
			id, store_id, user_id, user_name, user_role, device_id,
			is_active, total_adjustments, total_quantity_change, total_cost_impact
		) VALUES ($1, $2, $3, $4, $5, $6, TRUE, $7, $8, $9)
		RETURNING started_at, revision`

	var (
		startedAt = s.StartedAt
		revision  int64
	)
	err := tx.QueryRow(ctx, query,
		s.ID, s.StoreID, s.UserID, s.UserName, string(s.UserRole), s.DeviceID,
		s.TotalAdjustments, s.TotalQuantityChange, s.TotalCostImpact,
	).Scan(&startedAt, &revision)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && pgErr.ConstraintName == activeSessionIndex {
			return nil, domain.ErrSessionAlreadyActive
		}
		return nil, fmt.Errorf("failed to insert audit session: %w", err)
	}

	return func() {
		s.StartedAt = startedAt
		s.IsActive = true
		s.Revision = revision
	}, nil
}

func (g *LedgerGateway) updateSession(ctx context.Context, tx pgx.Tx, s *domain.AuditSession) (func(), error) {
	query := `
		UPDATE audit_sessions SET
			ended_at = $3, is_active = $4,
			total_adjustments = $5, total_quantity_change = $6, total_cost_impact = $7,
			revision = revision + 1
		WHERE id = $1 AND revision = $2
		RETURNING revision`

	var revision int64
	err := tx.QueryRow(ctx, query,
		s.ID, s.Revision,
		s.EndedAt, s.IsActive,
		s.TotalAdjustments, s.TotalQuantityChange, s.TotalCostImpact,
	).Scan(&revision)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, g.missingOrStale(ctx, tx, "audit_sessions", s.ID, domain.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("failed to update audit session: %w", err)
	}
	return func() { s.Revision = revision }, nil
}

func (g *LedgerGateway) insertBatch(ctx context.Context, tx pgx.Tx, b *domain.AuditBatch) (func(), error) {
	query := `
		INSERT INTO audit_batches (
			id, store_id, session_id, batch_type, total_items, processed_items,
			status, total_quantity_change, total_cost_impact, error_count, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, revision`

	var (
		createdAt = b.CreatedAt
		revision  int64
	)
	err := tx.QueryRow(ctx, query,
		b.ID, b.StoreID, b.SessionID, string(b.BatchType), b.TotalItems, b.ProcessedItems,
		string(b.Status), b.TotalQuantityChange, b.TotalCostImpact, b.ErrorCount, b.CreatedBy,
	).Scan(&createdAt, &revision)
	if err != nil {
		return nil, fmt.Errorf("failed to insert audit batch: %w", err)
	}

	return func() {
		b.CreatedAt = createdAt
		b.Revision = revision
	}, nil
}

func (g *LedgerGateway) updateBatch(ctx context.Context, tx pgx.Tx, b *domain.AuditBatch) (func(), error) {
	query := `
		UPDATE audit_batches SET
			status = $3, processed_items = $4,
			total_quantity_change = $5, total_cost_impact = $6,
			error_count = $7, completed_at = $8,
			revision = revision + 1
		WHERE id = $1 AND revision = $2
		RETURNING revision`

	var revision int64
	err := tx.QueryRow(ctx, query,
		b.ID, b.Revision,
		string(b.Status), b.ProcessedItems,
		b.TotalQuantityChange, b.TotalCostImpact,
		b.ErrorCount, b.CompletedAt,
	).Scan(&revision)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, g.missingOrStale(ctx, tx, "audit_batches", b.ID, domain.ErrBatchNotFound)
		}
		return nil, fmt.Errorf("failed to update audit batch: %w", err)
	}
	return func() { b.Revision = revision }, nil
}

func (g *LedgerGateway) incrementSession(ctx context.Context, tx pgx.Tx, w ports.IncrementSession) error {
	tag, err := tx.Exec(ctx, `
		UPDATE audit_sessions SET
			total_adjustments = total_adjustments + $2,
			total_quantity_change = total_quantity_change + $3,
			total_cost_impact = total_cost_impact + $4,
			revision = revision + 1
		WHERE id = $1 AND is_active`,
		w.SessionID, w.Delta.Count, w.Delta.QuantityChange, w.Delta.CostImpact)
	if err != nil {
		return fmt.Errorf("failed to increment audit session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return g.missingOr(ctx, tx, "audit_sessions", w.SessionID, domain.ErrSessionNotFound, domain.ErrSessionNotActive)
	}
	return nil
}

func (g *LedgerGateway) incrementBatch(ctx context.Context, tx pgx.Tx, w ports.IncrementBatch) error {
	tag, err := tx.Exec(ctx, `
		UPDATE audit_batches SET
			processed_items = processed_items + $2,
			total_quantity_change = total_quantity_change + $3,
			total_cost_impact = total_cost_impact + $4,
			error_count = error_count + $5,
			status = CASE WHEN $2 > 0 AND status = 'pending' THEN 'processing' ELSE status END,
			revision = revision + 1
		WHERE id = $1 AND status IN ('pending', 'processing')`,
		w.BatchID, w.Delta.Count, w.Delta.QuantityChange, w.Delta.CostImpact, w.Errors)
	if err != nil {
		return fmt.Errorf("failed to increment audit batch: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return g.missingOr(ctx, tx, "audit_batches", w.BatchID, domain.ErrBatchNotFound, domain.ErrBatchTerminal)
	}
	return nil
}

// missingOrStale explains a guarded update that touched no row
func (g *LedgerGateway) missingOrStale(ctx context.Context, tx pgx.Tx, table string, id uuid.UUID, notFound error) error {
	return g.missingOr(ctx, tx, table, id, notFound, domain.ErrConcurrentModification)
}

func (g *LedgerGateway) missingOr(ctx context.Context, tx pgx.Tx, table string, id uuid.UUID, notFound, otherwise error) error {
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", table)
	if err := tx.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return otherwise
}

// GetRecord retrieves an adjustment record by ID
func (g *LedgerGateway) GetRecord(ctx context.Context, id uuid.UUID) (*domain.AdjustmentRecord, error) {
	sql, args, err := psql.Select(recordColumns...).From("adjustment_records").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	r, err := scanRecord(g.db.Pool().QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
		}
		return nil, fmt.Errorf("failed to get adjustment record: %w", err)
	}
	return r, nil
}

// GetSession retrieves an audit session by ID
func (g *LedgerGateway) GetSession(ctx context.Context, id uuid.UUID) (*domain.AuditSession, error) {
	sql, args, err := psql.Select(sessionColumns...).From("audit_sessions").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	s, err := scanSession(g.db.Pool().QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get audit session: %w", err)
	}
	return s, nil
}

// GetBatch retrieves an audit batch by ID
func (g *LedgerGateway) GetBatch(ctx context.Context, id uuid.UUID) (*domain.AuditBatch, error) {
	sql, args, err := psql.Select(batchColumns...).From("audit_batches").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	b, err := scanBatch(g.db.Pool().QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, id)
		}
		return nil, fmt.Errorf("failed to get audit batch: %w", err)
	}
	return b, nil
}

// FindActiveSession returns the active session of a user on a device
func (g *LedgerGateway) FindActiveSession(ctx context.Context, storeID, userID, deviceID string) (*domain.AuditSession, error) {
	sql, args, err := psql.Select(sessionColumns...).
		From("audit_sessions").
		Where(squirrel.Eq{"store_id": storeID, "user_id": userID, "device_id": deviceID, "is_active": true}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	s, err := scanSession(g.db.Pool().QueryRow(ctx, sql, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find active session: %w", err)
	}
	return s, nil
}

// recordFilter applies q's filters to a builder
func recordFilter(qb squirrel.SelectBuilder, q ports.RecordQuery) squirrel.SelectBuilder {
	if q.StoreID != "" {
		qb = qb.Where(squirrel.Eq{"store_id": q.StoreID})
	}
	if q.SessionID != nil {
		qb = qb.Where(squirrel.Eq{"session_id": *q.SessionID})
	}
	if q.BatchID != nil {
		qb = qb.Where(squirrel.Eq{"batch_id": *q.BatchID})
	}
	if q.ItemID != "" {
		qb = qb.Where(squirrel.Eq{"item_id": q.ItemID})
	}
	if q.LocationID != "" {
		qb = qb.Where(squirrel.Eq{"location_id": q.LocationID})
	}
	if q.Reference != "" {
		qb = qb.Where(squirrel.Eq{"reference": q.Reference})
	}
	if q.Type != "" {
		qb = qb.Where(squirrel.Eq{"adjustment_type": string(q.Type)})
	}
	if q.PendingOnly {
		qb = qb.Where("requires_approval AND approved_at IS NULL AND NOT is_reversed")
	}
	if q.Since != nil {
		qb = qb.Where(squirrel.GtOrEq{"created_at": *q.Since})
	}
	if q.Until != nil {
		qb = qb.Where(squirrel.LtOrEq{"created_at": *q.Until})
	}
	return qb
}

// ListRecords returns matching records, newest first
func (g *LedgerGateway) ListRecords(ctx context.Context, q ports.RecordQuery) ([]*domain.AdjustmentRecord, error) {
	qb := recordFilter(psql.Select(recordColumns...).From("adjustment_records"), q).
		OrderBy("created_at DESC", "id DESC")
	if q.Limit > 0 {
		qb = qb.Limit(uint64(q.Limit))
	}

	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := g.db.Pool().Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustment records: %w", err)
	}
	records, err := ScanMany(rows, func(rows pgx.Rows) (*domain.AdjustmentRecord, error) {
		return scanRecord(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan adjustment records: %w", err)
	}
	return records, nil
}

// ListSessions returns matching sessions, most recently started first
func (g *LedgerGateway) ListSessions(ctx context.Context, q ports.SessionQuery) ([]*domain.AuditSession, error) {
	qb := psql.Select(sessionColumns...).From("audit_sessions").OrderBy("started_at DESC")
	if q.StoreID != "" {
		qb = qb.Where(squirrel.Eq{"store_id": q.StoreID})
	}
	if q.UserID != "" {
		qb = qb.Where(squirrel.Eq{"user_id": q.UserID})
	}
	if q.ActiveOnly {
		qb = qb.Where(squirrel.Eq{"is_active": true})
	}
	if q.StartedBefore != nil {
		qb = qb.Where(squirrel.Lt{"started_at": *q.StartedBefore})
	}
	if q.Limit > 0 {
		qb = qb.Limit(uint64(q.Limit))
	}

	sql, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := g.db.Pool().Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit sessions: %w", err)
	}
	sessions, err := ScanMany(rows, func(rows pgx.Rows) (*domain.AuditSession, error) {
		return scanSession(rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit sessions: %w", err)
	}
	return sessions, nil
}

// Totals sums every record matching q, ignoring q.Limit
func (g *LedgerGateway) Totals(ctx context.Context, q ports.RecordQuery) (ports.LedgerTotals, error) {
	qb := recordFilter(psql.Select(
		"COUNT(*)",
		"COALESCE(SUM(quantity_change), 0)",
		"COALESCE(SUM(total_cost_impact), 0)",
		"COUNT(*) FILTER (WHERE requires_approval AND approved_at IS NULL AND NOT is_reversed)",
	).From("adjustment_records"), q)

	sql, args, err := qb.ToSql()
	if err != nil {
		return ports.LedgerTotals{}, fmt.Errorf("failed to build query: %w", err)
	}

	var totals ports.LedgerTotals
	err = g.db.Pool().QueryRow(ctx, sql, args...).Scan(
		&totals.Count, &totals.QuantityChange, &totals.CostImpact, &totals.PendingApprovals,
	)
	if err != nil {
		return ports.LedgerTotals{}, fmt.Errorf("failed to sum adjustment records: %w", err)
	}
	return totals, nil
}

func scanRecord(row pgx.Row) (*domain.AdjustmentRecord, error) {
	var (
		r                     domain.AdjustmentRecord
		adjType, reason, role string
		unitCost, costImpact  decimal.NullDecimal
	)
	err := row.Scan(
		&r.ID, &r.StoreID, &r.ItemID, &r.LocationID,
		&r.QuantityBefore, &r.QuantityAfter, &r.QuantityChange,
		&adjType, &reason,
		&r.UserID, &r.UserName, &role, &r.DeviceID, &r.CreatedAt,
		&unitCost, &costImpact,
		&r.SessionID, &r.BatchID,
		&r.RequiresApproval, &r.ApprovedBy, &r.ApprovedAt, &r.ApprovalNotes,
		&r.IsReversed, &r.ReversalReference, &r.ReversesID,
		&r.Reference, &r.Notes, &r.Version, &r.Revision,
	)
	if err != nil {
		return nil, err
	}

	r.Type = domain.AdjustmentType(adjType)
	r.Reason = domain.AdjustmentReason(reason)
	r.UserRole = domain.UserRole(role)
	if unitCost.Valid {
		r.UnitCost = &unitCost.Decimal
	}
	if costImpact.Valid {
		r.TotalCostImpact = &costImpact.Decimal
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return &r, nil
}

func scanSession(row pgx.Row) (*domain.AuditSession, error) {
	var (
		s    domain.AuditSession
		role string
	)
	err := row.Scan(
		&s.ID, &s.StoreID, &s.UserID, &s.UserName, &role, &s.DeviceID,
		&s.StartedAt, &s.EndedAt, &s.IsActive,
		&s.TotalAdjustments, &s.TotalQuantityChange, &s.TotalCostImpact, &s.Revision,
	)
	if err != nil {
		return nil, err
	}
	s.UserRole = domain.UserRole(role)
	return &s, nil
}

func scanBatch(row pgx.Row) (*domain.AuditBatch, error) {
	var (
		b                 domain.AuditBatch
		batchType, status string
	)
	err := row.Scan(
		&b.ID, &b.StoreID, &b.SessionID, &batchType,
		&b.TotalItems, &b.ProcessedItems, &status,
		&b.TotalQuantityChange, &b.TotalCostImpact, &b.ErrorCount,
		&b.CreatedBy, &b.CreatedAt, &b.CompletedAt, &b.Revision,
	)
	if err != nil {
		return nil, err
	}
	b.BatchType = domain.BatchType(batchType)
	b.Status = domain.BatchStatus(status)
	return &b, nil
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}
