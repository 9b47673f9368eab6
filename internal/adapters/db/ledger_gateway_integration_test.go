//go:build integration
// +build integration

package db_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/ammerola/stockledger/internal/adapters/db"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/policy"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/test/helpers"
)

type LedgerGatewaySuite struct {
	suite.Suite
	testDB  *helpers.TestDB
	gateway *db.LedgerGateway
	ctx     context.Context
}

func (s *LedgerGatewaySuite) SetupSuite() {
	s.testDB = helpers.SetupTestDB(s.T())
	s.gateway = db.NewLedgerGateway(s.testDB.Database, helpers.TestLogger())
	s.ctx = context.Background()
}

func (s *LedgerGatewaySuite) SetupTest() {
	helpers.TruncateAllTables(s.T(), s.testDB.PgxPool)
}

func (s *LedgerGatewaySuite) record(mod ...func(*domain.AdjustmentRequest)) *domain.AdjustmentRecord {
	req := helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
		r.UserID = "user-1"
		r.UserName = "Pat"
		r.UserRole = domain.RoleManager
		r.UnitCost = helpers.Decimal("2.50")
	})
	for _, m := range mod {
		m(&req)
	}
	return domain.NewAdjustmentRecord(req, false)
}

func (s *LedgerGatewaySuite) TestInsertAndGetRecord() {
	r := s.record()
	s.Require().NoError(s.gateway.Commit(s.ctx, ports.InsertRecord{Record: r}))
	s.False(r.CreatedAt.IsZero())
	s.EqualValues(1, r.Revision)

	got, err := s.gateway.GetRecord(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Equal(r.ItemID, got.ItemID)
	s.Equal(-5, got.QuantityChange)
	s.Require().NotNil(got.UnitCost)
	s.True(got.UnitCost.Equal(*r.UnitCost))
	s.Require().NotNil(got.TotalCostImpact)
	s.Equal("-12.5", got.TotalCostImpact.String())
	s.Equal(domain.TypeSale, got.Type)

	_, err = s.gateway.GetRecord(s.ctx, uuid.New())
	s.ErrorIs(err, domain.ErrRecordNotFound)
}

func (s *LedgerGatewaySuite) TestStoredCostsRederiveUnchanged() {
	r := s.record(func(req *domain.AdjustmentRequest) {
		req.QuantityBefore = 7
		req.QuantityAfter = 10
		req.Type = domain.TypeAdjustment
		req.Reason = domain.ReasonFound
		req.UnitCost = helpers.Decimal("0.3333")
	})
	s.Require().True(policy.ValidateAdjustmentRequest(domain.AdjustmentRequest{
		StoreID: r.StoreID, ItemID: r.ItemID, LocationID: r.LocationID,
		QuantityBefore: r.QuantityBefore, QuantityAfter: r.QuantityAfter,
		Type: r.Type, Reason: r.Reason, UnitCost: r.UnitCost,
	}).IsValid)
	s.Require().NoError(s.gateway.Commit(s.ctx, ports.InsertRecord{Record: r}))

	got, err := s.gateway.GetRecord(s.ctx, r.ID)
	s.Require().NoError(err)
	s.Require().NotNil(got.TotalCostImpact)
	stored := *got.TotalCostImpact
	s.True(stored.Equal(*r.TotalCostImpact), "stored %s, written %s", stored, r.TotalCostImpact)

	got.Derive()
	s.True(got.TotalCostImpact.Equal(stored), "rederived %s, stored %s", got.TotalCostImpact, stored)
}

func (s *LedgerGatewaySuite) TestCreatedAtIsMonotonic() {
	var last time.Time
	for i := 0; i < 20; i++ {
		r := s.record()
		s.Require().NoError(s.gateway.Commit(s.ctx, ports.InsertRecord{Record: r}))
		s.True(r.CreatedAt.After(last))
		last = r.CreatedAt
	}
}

func (s *LedgerGatewaySuite) TestCommitIsAtomic() {
	session := domain.NewAuditSession(helpers.CreateTestActor())
	s.Require().NoError(s.gateway.Commit(s.ctx, ports.InsertSession{Session: session}))

	r := s.record(func(req *domain.AdjustmentRequest) { req.SessionID = &session.ID })
	err := s.gateway.Commit(s.ctx,
		ports.InsertRecord{Record: r},
		ports.IncrementSession{SessionID: session.ID, Delta: domain.RollupOf(r)},
		ports.IncrementBatch{BatchID: uuid.New(), Delta: domain.RollupOf(r)},
	)
	s.ErrorIs(err, domain.ErrBatchNotFound)

	_, err = s.gateway.GetRecord(s.ctx, r.ID)
	s.ErrorIs(err, domain.ErrRecordNotFound)

	stored, err := s.gateway.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Zero(stored.TotalAdjustments)
}

func (s *LedgerGatewaySuite) TestOneActiveSessionPerDevice() {
	actor := helpers.CreateTestActor()
	first := domain.NewAuditSession(actor)
	s.Require().NoError(s.gateway.Commit(s.ctx, ports.InsertSession{Session: first}))

	err := s.gateway.Commit(s.ctx, ports.InsertSession{Session: domain.NewAuditSession(actor)})
	s.ErrorIs(err, domain.ErrSessionAlreadyActive)

	active, err := s.gateway.FindActiveSession(s.ctx, actor.StoreID, actor.UserID, actor.DeviceID)
	s.Require().NoError(err)
	s.Equal(first.ID, active.ID)

	s.Require().NoError(first.End(time.Now()))
	s.Require().NoError(s.gateway.Commit(s.ctx, ports.UpdateSession{Session: first}))
	s.Require().NoError(s.gateway.Commit(s.ctx, ports.InsertSession{Session: domain.NewAuditSession(actor)}))
}

func (s *LedgerGatewaySuite) TestRevisionGuard() {
	session := domain.NewAuditSession(helpers.CreateTestActor())
	s.Require().NoError(s.gateway.Commit(s.ctx, ports.InsertSession{Session: session}))

	stale := *session
	s.Require().NoError(s.gateway.Commit(s.ctx, ports.IncrementSession{
		SessionID: session.ID,
		Delta:     domain.Rollup{Count: 1, QuantityChange: -1},
	}))

	err := s.gateway.Commit(s.ctx, ports.UpdateSession{Session: &stale})
	s.ErrorIs(err, domain.ErrConcurrentModification)
}

func (s *LedgerGatewaySuite) TestConcurrentServiceWrites() {
	svc := services.NewLedgerService(s.gateway, nil, nil, services.DefaultOptions(), helpers.TestLogger())
	actor := helpers.CreateTestActor()
	session, err := svc.StartAuditSession(s.ctx, actor)
	s.Require().NoError(err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordAdjustment(s.ctx, actor, helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
				r.SessionID = &session.ID
			}))
			s.NoError(err)
		}()
	}
	wg.Wait()

	stored, err := s.gateway.GetSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.Equal(10, stored.TotalAdjustments)
	s.Equal(-50, stored.TotalQuantityChange)

	rec, err := svc.Aggregator().ReconcileSession(s.ctx, session.ID)
	s.Require().NoError(err)
	s.False(rec.Drift)
}

func (s *LedgerGatewaySuite) TestBatchIncrements() {
	batch := domain.NewAuditBatch(helpers.CreateTestActor(), domain.BatchBulkAdjustment, 2, nil)
	s.Require().NoError(s.gateway.Commit(s.ctx, ports.InsertBatch{Batch: batch}))

	s.Require().NoError(s.gateway.Commit(s.ctx, ports.IncrementBatch{BatchID: batch.ID, Errors: 1}))
	stored, err := s.gateway.GetBatch(s.ctx, batch.ID)
	s.Require().NoError(err)
	s.Equal(domain.BatchPending, stored.Status)
	s.Equal(1, stored.ErrorCount)

	s.Require().NoError(s.gateway.Commit(s.ctx, ports.IncrementBatch{
		BatchID: batch.ID,
		Delta:   domain.Rollup{Count: 1, QuantityChange: 4},
	}))
	stored, err = s.gateway.GetBatch(s.ctx, batch.ID)
	s.Require().NoError(err)
	s.Equal(domain.BatchProcessing, stored.Status)
	s.Equal(1, stored.ProcessedItems)

	s.Require().NoError(stored.TransitionTo(domain.BatchCompleted, time.Now()))
	s.Require().NoError(s.gateway.Commit(s.ctx, ports.UpdateBatch{Batch: stored}))

	err = s.gateway.Commit(s.ctx, ports.IncrementBatch{BatchID: batch.ID, Errors: 1})
	s.ErrorIs(err, domain.ErrBatchTerminal)
}

func (s *LedgerGatewaySuite) TestListAndTotals() {
	for i, change := range []int{-3, 4, -10} {
		i, change := i, change
		r := s.record(func(req *domain.AdjustmentRequest) {
			req.QuantityBefore = 20
			req.QuantityAfter = 20 + change
			req.Reference = "REF-A"
			if i == 2 {
				req.Reference = "REF-B"
			}
		})
		r.RequiresApproval = change < -5
		s.Require().NoError(s.gateway.Commit(s.ctx, ports.InsertRecord{Record: r}))
	}

	all, err := s.gateway.ListRecords(s.ctx, ports.RecordQuery{StoreID: "store-123"})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal(-10, all[0].QuantityChange)

	limited, err := s.gateway.ListRecords(s.ctx, ports.RecordQuery{Reference: "REF-A", Limit: 1})
	s.Require().NoError(err)
	s.Require().Len(limited, 1)
	s.Equal(4, limited[0].QuantityChange)

	pending, err := s.gateway.ListRecords(s.ctx, ports.RecordQuery{PendingOnly: true})
	s.Require().NoError(err)
	s.Len(pending, 1)

	totals, err := s.gateway.Totals(s.ctx, ports.RecordQuery{StoreID: "store-123", Limit: 1})
	s.Require().NoError(err)
	s.Equal(3, totals.Count)
	s.Equal(-9, totals.QuantityChange)
	s.Equal("-22.5", totals.CostImpact.String())
	s.Equal(1, totals.PendingApprovals)
}

func (s *LedgerGatewaySuite) TestSubscribe() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	sets, err := s.gateway.Subscribe(ctx, ports.RecordQuery{StoreID: "store-123"})
	s.Require().NoError(err)

	initial := <-sets
	s.NoError(initial.Err)
	s.Empty(initial.Records)

	s.Require().NoError(s.gateway.Commit(s.ctx, ports.InsertRecord{Record: s.record()}))

	select {
	case set := <-sets:
		s.NoError(set.Err)
		s.Len(set.Records, 1)
	case <-time.After(5 * time.Second):
		s.Fail("no emission after commit")
	}

	cancel()
	helpers.AssertEventuallyWithTimeout(s.T(), func() bool {
		_, open := <-sets
		return !open
	}, 5*time.Second, "subscription channel should close")
}

func TestLedgerGatewaySuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}
	suite.Run(t, new(LedgerGatewaySuite))
}
