// internal/adapters/memory/gateway.go

// Package memory provides an in-process LedgerGateway for tests, local
// development and seeding dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// Gateway keeps ledger state in maps guarded by a single lock. Commits are
// staged on copies and applied only when every write succeeds.
type Gateway struct {
	mu       sync.RWMutex
	records  map[uuid.UUID]*domain.AdjustmentRecord
	order    []uuid.UUID
	sessions map[uuid.UUID]*domain.AuditSession
	batches  map[uuid.UUID]*domain.AuditBatch

	clock func() time.Time
	last  time.Time

	subs    map[int]*subscription
	nextSub int
}

var _ ports.LedgerGateway = (*Gateway)(nil)

// Option configures a Gateway
type Option func(*Gateway)

// WithClock replaces the wall clock, mostly for tests
func WithClock(clock func() time.Time) Option {
	return func(g *Gateway) { g.clock = clock }
}

// NewGateway creates an empty gateway
func NewGateway(opts ...Option) *Gateway {
	g := &Gateway{
		records:  make(map[uuid.UUID]*domain.AdjustmentRecord),
		sessions: make(map[uuid.UUID]*domain.AuditSession),
		batches:  make(map[uuid.UUID]*domain.AuditBatch),
		clock:    time.Now,
		subs:     make(map[int]*subscription),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// tick returns a timestamp strictly after the previous one
func (g *Gateway) tick() time.Time {
	now := g.clock().UTC()
	if !now.After(g.last) {
		now = g.last.Add(time.Microsecond)
	}
	g.last = now
	return now
}

// staged holds the copies a commit works on
type staged struct {
	g        *Gateway
	records  map[uuid.UUID]*domain.AdjustmentRecord
	inserted []uuid.UUID
	sessions map[uuid.UUID]*domain.AuditSession
	batches  map[uuid.UUID]*domain.AuditBatch
	after    []func()
}

func (s *staged) session(id uuid.UUID) (*domain.AuditSession, error) {
	if cur, ok := s.sessions[id]; ok {
		return cur, nil
	}
	stored, ok := s.g.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	cp := *stored
	s.sessions[id] = &cp
	return &cp, nil
}

func (s *staged) batch(id uuid.UUID) (*domain.AuditBatch, error) {
	if cur, ok := s.batches[id]; ok {
		return cur, nil
	}
	stored, ok := s.g.batches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, id)
	}
	cp := *stored
	s.batches[id] = &cp
	return &cp, nil
}

func (s *staged) record(id uuid.UUID) (*domain.AdjustmentRecord, error) {
	if cur, ok := s.records[id]; ok {
		return cur, nil
	}
	stored, ok := s.g.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	cp := *stored
	s.records[id] = &cp
	return &cp, nil
}

func (s *staged) hasActiveSession(storeID, userID, deviceID string) bool {
	match := func(sess *domain.AuditSession) bool {
		return sess.IsActive && sess.StoreID == storeID && sess.UserID == userID && sess.DeviceID == deviceID
	}
	for _, sess := range s.sessions {
		if match(sess) {
			return true
		}
	}
	for id, sess := range s.g.sessions {
		if _, shadowed := s.sessions[id]; !shadowed && match(sess) {
			return true
		}
	}
	return false
}

// Commit applies writes atomically
func (g *Gateway) Commit(ctx context.Context, writes ...ports.Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	st := &staged{
		g:        g,
		records:  make(map[uuid.UUID]*domain.AdjustmentRecord),
		sessions: make(map[uuid.UUID]*domain.AuditSession),
		batches:  make(map[uuid.UUID]*domain.AuditBatch),
	}

	for i, w := range writes {
		if err := g.apply(st, w); err != nil {
			return fmt.Errorf("write %d (%T): %w", i, w, err)
		}
	}

	for id, r := range st.records {
		g.records[id] = r
	}
	g.order = append(g.order, st.inserted...)
	for id, s := range st.sessions {
		g.sessions[id] = s
	}
	for id, b := range st.batches {
		g.batches[id] = b
	}
	for _, fn := range st.after {
		fn()
	}

	g.notifyLocked(st.records)
	return nil
}

func (g *Gateway) apply(st *staged, w ports.Write) error {
	switch w := w.(type) {
	case ports.InsertRecord:
		r := w.Record
		if _, exists := g.records[r.ID]; exists {
			return fmt.Errorf("record %s already exists", r.ID)
		}
		if _, exists := st.records[r.ID]; exists {
			return fmt.Errorf("record %s already exists", r.ID)
		}
		cp := *r
		cp.CreatedAt = g.tick()
		cp.Revision = 1
		st.records[r.ID] = &cp
		st.inserted = append(st.inserted, r.ID)
		st.after = append(st.after, func() {
			r.CreatedAt = cp.CreatedAt
			r.Revision = cp.Revision
		})

	case ports.UpdateRecord:
		r := w.Record
		cur, err := st.record(r.ID)
		if err != nil {
			return err
		}
		if cur.Revision != r.Revision {
			return domain.ErrConcurrentModification
		}
		cur.ApprovedBy = r.ApprovedBy
		cur.ApprovedAt = r.ApprovedAt
		cur.ApprovalNotes = r.ApprovalNotes
		cur.IsReversed = r.IsReversed
		cur.ReversalReference = r.ReversalReference
		cur.Revision++
		rev := cur.Revision
		st.after = append(st.after, func() { r.Revision = rev })

	case ports.InsertSession:
		s := w.Session
		if st.hasActiveSession(s.StoreID, s.UserID, s.DeviceID) {
			return domain.ErrSessionAlreadyActive
		}
		cp := *s
		cp.StartedAt = g.tick()
		cp.IsActive = true
		cp.Revision = 1
		st.sessions[s.ID] = &cp
		st.after = append(st.after, func() {
			s.StartedAt = cp.StartedAt
			s.IsActive = true
			s.Revision = cp.Revision
		})

	case ports.UpdateSession:
		s := w.Session
		cur, err := st.session(s.ID)
		if err != nil {
			return err
		}
		if cur.Revision != s.Revision {
			return domain.ErrConcurrentModification
		}
		rev := cur.Revision + 1
		cp := *s
		cp.Revision = rev
		st.sessions[s.ID] = &cp
		st.after = append(st.after, func() { s.Revision = rev })

	case ports.InsertBatch:
		b := w.Batch
		if _, exists := g.batches[b.ID]; exists {
			return fmt.Errorf("batch %s already exists", b.ID)
		}
		cp := *b
		cp.CreatedAt = g.tick()
		cp.Revision = 1
		st.batches[b.ID] = &cp
		st.after = append(st.after, func() {
			b.CreatedAt = cp.CreatedAt
			b.Revision = cp.Revision
		})

	case ports.UpdateBatch:
		b := w.Batch
		cur, err := st.batch(b.ID)
		if err != nil {
			return err
		}
		if cur.Revision != b.Revision {
			return domain.ErrConcurrentModification
		}
		rev := cur.Revision + 1
		cp := *b
		cp.Revision = rev
		st.batches[b.ID] = &cp
		st.after = append(st.after, func() { b.Revision = rev })

	case ports.IncrementSession:
		cur, err := st.session(w.SessionID)
		if err != nil {
			return err
		}
		if !cur.IsActive {
			return domain.ErrSessionNotActive
		}
		cur.SetRollup(cur.Rollup().Add(w.Delta))
		cur.Revision++

	case ports.IncrementBatch:
		cur, err := st.batch(w.BatchID)
		if err != nil {
			return err
		}
		if cur.Status.IsTerminal() {
			return domain.ErrBatchTerminal
		}
		cur.SetRollup(cur.Rollup().Add(w.Delta))
		cur.ErrorCount += w.Errors
		if w.Delta.Count > 0 && cur.Status == domain.BatchPending {
			cur.Status = domain.BatchProcessing
		}
		cur.Revision++

	default:
		return fmt.Errorf("unsupported write %T", w)
	}
	return nil
}

// GetRecord returns a copy of the stored record
func (g *Gateway) GetRecord(_ context.Context, id uuid.UUID) (*domain.AdjustmentRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	r, ok := g.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrRecordNotFound, id)
	}
	cp := *r
	return &cp, nil
}

// GetSession returns a copy of the stored session
func (g *Gateway) GetSession(_ context.Context, id uuid.UUID) (*domain.AuditSession, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s, ok := g.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	cp := *s
	return &cp, nil
}

// GetBatch returns a copy of the stored batch
func (g *Gateway) GetBatch(_ context.Context, id uuid.UUID) (*domain.AuditBatch, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	b, ok := g.batches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrBatchNotFound, id)
	}
	cp := *b
	return &cp, nil
}

// FindActiveSession returns the active session of a user on a device
func (g *Gateway) FindActiveSession(_ context.Context, storeID, userID, deviceID string) (*domain.AuditSession, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for _, s := range g.sessions {
		if s.IsActive && s.StoreID == storeID && s.UserID == userID && s.DeviceID == deviceID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

// ListRecords returns matching records, newest first
func (g *Gateway) ListRecords(_ context.Context, q ports.RecordQuery) ([]*domain.AdjustmentRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.listLocked(q), nil
}

func (g *Gateway) listLocked(q ports.RecordQuery) []*domain.AdjustmentRecord {
	result := make([]*domain.AdjustmentRecord, 0)
	for i := len(g.order) - 1; i >= 0; i-- {
		r := g.records[g.order[i]]
		if !Matches(q, r) {
			continue
		}
		cp := *r
		result = append(result, &cp)
		if q.Limit > 0 && len(result) == q.Limit {
			break
		}
	}
	return result
}

// ListSessions returns matching sessions, most recently started first
func (g *Gateway) ListSessions(_ context.Context, q ports.SessionQuery) ([]*domain.AuditSession, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var result []*domain.AuditSession
	for _, s := range g.sessions {
		if q.StoreID != "" && s.StoreID != q.StoreID {
			continue
		}
		if q.UserID != "" && s.UserID != q.UserID {
			continue
		}
		if q.ActiveOnly && !s.IsActive {
			continue
		}
		if q.StartedBefore != nil && !s.StartedAt.Before(*q.StartedBefore) {
			continue
		}
		cp := *s
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt.After(result[j].StartedAt)
	})
	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result, nil
}

// Totals sums every record matching q, ignoring q.Limit
func (g *Gateway) Totals(_ context.Context, q ports.RecordQuery) (ports.LedgerTotals, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	q.Limit = 0
	var totals ports.LedgerTotals
	for _, r := range g.listLocked(q) {
		totals.Rollup = totals.Rollup.Add(domain.RollupOf(r))
		if r.IsPendingApproval() {
			totals.PendingApprovals++
		}
	}
	return totals, nil
}

// Matches reports whether r satisfies q
func Matches(q ports.RecordQuery, r *domain.AdjustmentRecord) bool {
	if q.StoreID != "" && r.StoreID != q.StoreID {
		return false
	}
	if q.SessionID != nil && (r.SessionID == nil || *r.SessionID != *q.SessionID) {
		return false
	}
	if q.BatchID != nil && (r.BatchID == nil || *r.BatchID != *q.BatchID) {
		return false
	}
	if q.ItemID != "" && r.ItemID != q.ItemID {
		return false
	}
	if q.LocationID != "" && r.LocationID != q.LocationID {
		return false
	}
	if q.Reference != "" && r.Reference != q.Reference {
		return false
	}
	if q.Type != "" && r.Type != q.Type {
		return false
	}
	if q.PendingOnly && !r.IsPendingApproval() {
		return false
	}
	if q.Since != nil && r.CreatedAt.Before(*q.Since) {
		return false
	}
	if q.Until != nil && r.CreatedAt.After(*q.Until) {
		return false
	}
	return true
}
