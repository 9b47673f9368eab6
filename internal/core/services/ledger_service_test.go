// internal/core/services/ledger_service_test.go
package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/stockledger/internal/adapters/memory"
	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/test/helpers"
	"github.com/ammerola/stockledger/test/mocks"
)

func newService(t *testing.T) (*services.LedgerService, *memory.Gateway) {
	t.Helper()
	gw := memory.NewGateway()
	return services.NewLedgerService(gw, nil, nil, services.DefaultOptions(), helpers.TestLogger()), gw
}

func validationErrors(t *testing.T, err error) []string {
	t.Helper()
	var ve *domain.ValidationError
	require.True(t, errors.As(err, &ve), "expected validation error, got %v", err)
	return ve.Errors
}

func TestLedgerService_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	actor := helpers.CreateTestActor()

	session, err := svc.StartAuditSession(ctx, actor)
	require.NoError(t, err)
	assert.True(t, session.IsActive)
	assert.False(t, session.StartedAt.IsZero())

	_, err = svc.StartAuditSession(ctx, actor)
	assert.ErrorIs(t, err, domain.ErrSessionAlreadyActive)

	other := helpers.CreateTestActor(func(a *domain.Actor) { a.UserID = "someone-else" })
	_, err = svc.EndAuditSession(ctx, other, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionOwnership)

	ended, err := svc.EndAuditSession(ctx, actor, session.ID)
	require.NoError(t, err)
	assert.False(t, ended.IsActive)
	require.NotNil(t, ended.EndedAt)

	_, err = svc.EndAuditSession(ctx, actor, session.ID)
	assert.ErrorIs(t, err, domain.ErrSessionNotActive)

	_, err = svc.RecordAdjustment(ctx, actor, helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
		r.SessionID = &session.ID
	}))
	assert.ErrorIs(t, err, domain.ErrSessionNotActive)

	next, err := svc.StartAuditSession(ctx, actor)
	require.NoError(t, err)
	assert.NotEqual(t, session.ID, next.ID)
}

func TestLedgerService_SessionRollupMatchesRecords(t *testing.T) {
	ctx := context.Background()
	svc, gw := newService(t)
	actor := helpers.CreateTestActor()

	session, err := svc.StartAuditSession(ctx, actor)
	require.NoError(t, err)

	changes := []struct {
		before, after int
		cost          *decimal.Decimal
	}{
		{100, 95, helpers.Decimal("2.50")},
		{95, 97, nil},
		{40, 10, helpers.Decimal("1.10")},
		{0, 0, helpers.Decimal("9")},
	}
	for _, c := range changes {
		_, err := svc.RecordAdjustment(ctx, actor, helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
			r.Type = domain.TypeAdjustment
			r.Reason = domain.ReasonRecount
			r.QuantityBefore = c.before
			r.QuantityAfter = c.after
			r.UnitCost = c.cost
			r.SessionID = &session.ID
		}))
		require.NoError(t, err)
	}

	stored, err := gw.GetSession(ctx, session.ID)
	require.NoError(t, err)

	records, err := gw.ListRecords(ctx, ports.RecordQuery{SessionID: &session.ID})
	require.NoError(t, err)
	require.Len(t, records, len(changes))

	want := domain.SumRecords(records)
	assert.True(t, want.Equal(stored.Rollup()), "want %+v got %+v", want, stored.Rollup())
	assert.Equal(t, 4, stored.TotalAdjustments)
	assert.Equal(t, -33, stored.TotalQuantityChange)
	assert.True(t, decimal.RequireFromString("-45.5").Equal(stored.TotalCostImpact))
}

func TestLedgerService_ConcurrentAdjustmentsDoNotLoseRollups(t *testing.T) {
	ctx := context.Background()
	svc, gw := newService(t)
	actor := helpers.CreateTestActor()

	session, err := svc.StartAuditSession(ctx, actor)
	require.NoError(t, err)
	batch, err := svc.StartAuditBatch(ctx, actor, ports.StartBatchRequest{BatchType: domain.BatchBulkAdjustment, TotalItems: 25})
	require.NoError(t, err)

	const workers = 25
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.RecordAdjustment(ctx, actor, helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
				r.QuantityBefore = 10
				r.QuantityAfter = 8
				r.SessionID = &session.ID
				r.BatchID = &batch.ID
			}))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	storedSession, err := gw.GetSession(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, storedSession.TotalAdjustments)
	assert.Equal(t, -2*workers, storedSession.TotalQuantityChange)

	storedBatch, err := gw.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, workers, storedBatch.ProcessedItems)
	assert.Equal(t, -2*workers, storedBatch.TotalQuantityChange)
}

func TestLedgerService_BatchLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	actor := helpers.CreateTestActor()

	batch, err := svc.StartAuditBatch(ctx, actor, ports.StartBatchRequest{BatchType: domain.BatchCycleCount, TotalItems: 3})
	require.NoError(t, err)
	assert.Equal(t, domain.BatchPending, batch.Status)

	_, err = svc.CompleteAuditBatch(ctx, actor, batch.ID, domain.BatchCompleted)
	assert.ErrorIs(t, err, domain.ErrInvalidBatchTransition, "pending batches cannot skip processing")

	_, err = svc.RecordCycleCount(ctx, actor, ports.CycleCountRequest{
		Grouping:        ports.Grouping{BatchID: &batch.ID},
		ItemID:          "item-1",
		LocationID:      "loc-1",
		SystemQuantity:  10,
		CountedQuantity: 10,
	})
	require.NoError(t, err)

	processing, err := svc.GetAuditBatch(ctx, actor, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchProcessing, processing.Status)
	assert.Equal(t, 1, processing.ProcessedItems)

	_, err = svc.CompleteAuditBatch(ctx, actor, batch.ID, domain.BatchProcessing)
	assert.ErrorIs(t, err, domain.ErrInvalidBatchTransition)

	done, err := svc.CompleteAuditBatch(ctx, actor, batch.ID, domain.BatchCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	_, err = svc.CompleteAuditBatch(ctx, actor, batch.ID, domain.BatchFailed)
	assert.ErrorIs(t, err, domain.ErrBatchTerminal)

	_, err = svc.RecordAdjustment(ctx, actor, helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
		r.BatchID = &batch.ID
	}))
	assert.ErrorIs(t, err, domain.ErrBatchTerminal)
}

func TestLedgerService_BatchCanFailBeforeWork(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	actor := helpers.CreateTestActor()

	batch, err := svc.StartAuditBatch(ctx, actor, ports.StartBatchRequest{BatchType: domain.BatchReceiving})
	require.NoError(t, err)

	failed, err := svc.CompleteAuditBatch(ctx, actor, batch.ID, domain.BatchFailed)
	require.NoError(t, err)
	assert.Equal(t, domain.BatchFailed, failed.Status)
}

func TestLedgerService_BatchCountsValidationErrors(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	actor := helpers.CreateTestActor()

	batch, err := svc.StartAuditBatch(ctx, actor, ports.StartBatchRequest{BatchType: domain.BatchCycleCount, TotalItems: 2})
	require.NoError(t, err)

	_, err = svc.RecordCycleCount(ctx, actor, ports.CycleCountRequest{
		Grouping:        ports.Grouping{BatchID: &batch.ID},
		ItemID:          "",
		LocationID:      "loc-1",
		SystemQuantity:  5,
		CountedQuantity: -1,
	})
	msgs := validationErrors(t, err)
	assert.Len(t, msgs, 2)

	stored, err := svc.GetAuditBatch(ctx, actor, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ErrorCount)
	assert.Equal(t, 0, stored.ProcessedItems)
	assert.Equal(t, domain.BatchPending, stored.Status)
}

func TestLedgerService_StartAuditBatchValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	actor := helpers.CreateTestActor()

	_, err := svc.StartAuditBatch(ctx, actor, ports.StartBatchRequest{BatchType: "sweep", TotalItems: -1})
	assert.Len(t, validationErrors(t, err), 2)

	missing := uuid.New()
	_, err = svc.StartAuditBatch(ctx, actor, ports.StartBatchRequest{BatchType: domain.BatchTransfer, SessionID: &missing})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestLedgerService_RecordAdjustment(t *testing.T) {
	tests := []struct {
		name         string
		actor        domain.Actor
		request      domain.AdjustmentRequest
		wantApproval bool
		wantErrMsgs  []string
	}{
		{
			name:    "sale_below_thresholds",
			actor:   helpers.CreateTestActor(),
			request: helpers.CreateTestAdjustmentRequest(),
		},
		{
			name:         "staff_over_staff_limit",
			actor:        helpers.CreateTestActor(helpers.WithRole(domain.RoleStaff)),
			request:      helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) { r.QuantityAfter = 80 }),
			wantApproval: true,
		},
		{
			name:  "high_value_change",
			actor: helpers.CreateTestActor(),
			request: helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
				r.QuantityAfter = 50
				r.UnitCost = helpers.Decimal("25")
			}),
			wantApproval: true,
		},
		{
			name:  "staff_cannot_lower_policy_decision",
			actor: helpers.CreateTestActor(helpers.WithRole(domain.RoleStaff)),
			request: helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
				r.QuantityAfter = 80
				r.RequiresApproval = helpers.BoolPtr(false)
			}),
			wantApproval: true,
		},
		{
			name:  "admin_may_waive_approval",
			actor: helpers.CreateTestActor(helpers.WithRole(domain.RoleAdmin)),
			request: helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
				r.QuantityBefore = 500
				r.QuantityAfter = 0
				r.RequiresApproval = helpers.BoolPtr(false)
			}),
			wantApproval: false,
		},
		{
			name:  "anyone_may_escalate",
			actor: helpers.CreateTestActor(helpers.WithRole(domain.RoleStaff)),
			request: helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
				r.RequiresApproval = helpers.BoolPtr(true)
			}),
			wantApproval: true,
		},
		{
			name:  "collects_all_validation_errors",
			actor: helpers.CreateTestActor(),
			request: helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
				r.ItemID = ""
				r.LocationID = ""
				r.Type = domain.TypeAdjustment
				r.Reason = ""
			}),
			wantErrMsgs: []string{"item id", "location id", "reason is required"},
		},
		{
			name:  "permission_reported_as_validation_error",
			actor: helpers.CreateTestActor(helpers.WithRole(domain.RoleStaff)),
			request: helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
				r.Type = domain.TypeCorrection
			}),
			wantErrMsgs: []string{"not permitted"},
		},
		{
			name:  "store_must_match_caller",
			actor: helpers.CreateTestActor(),
			request: helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
				r.StoreID = "store-999"
			}),
			wantErrMsgs: []string{"caller's store"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, gw := newService(t)
			ctx := context.Background()

			record, err := svc.RecordAdjustment(ctx, tt.actor, tt.request)
			if len(tt.wantErrMsgs) > 0 {
				msgs := validationErrors(t, err)
				joined := strings.Join(msgs, "|")
				for _, m := range tt.wantErrMsgs {
					assert.Contains(t, joined, m)
				}
				list, _ := gw.ListRecords(ctx, ports.RecordQuery{})
				assert.Empty(t, list, "invalid requests must not reach the gateway")
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantApproval, record.RequiresApproval)
			assert.Equal(t, tt.actor.UserID, record.UserID)
			assert.Equal(t, tt.actor.Role, record.UserRole)
			assert.Equal(t, record.QuantityAfter-record.QuantityBefore, record.QuantityChange)
			assert.False(t, record.CreatedAt.IsZero())

			stored, err := gw.GetRecord(ctx, record.ID)
			require.NoError(t, err)
			assert.Equal(t, record.QuantityChange, stored.QuantityChange)
		})
	}
}

func TestLedgerService_RecordAdjustmentPublishesApprovalTask(t *testing.T) {
	ctrl := gomock.NewController(t)
	tasks := mocks.NewMockTaskPublisher(ctrl)
	ctx := context.Background()

	svc := services.NewLedgerService(memory.NewGateway(), nil, tasks, services.DefaultOptions(), helpers.TestLogger())
	actor := helpers.CreateTestActor(helpers.WithRole(domain.RoleStaff))

	tasks.EXPECT().
		Enqueue(gomock.Any(), ports.TaskApprovalRequested, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ string, payload interface{}) (string, error) {
			p, ok := payload.(ports.ApprovalRequestedPayload)
			require.True(t, ok)
			assert.Equal(t, -40, p.Change)
			assert.Equal(t, actor.UserID, p.UserID)
			return "task-1", nil
		})

	record, err := svc.RecordAdjustment(ctx, actor, helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
		r.QuantityAfter = 60
	}))
	require.NoError(t, err)
	assert.True(t, record.RequiresApproval)

	// no task for records that need no approval
	_, err = svc.RecordAdjustment(ctx, actor, helpers.CreateTestAdjustmentRequest())
	require.NoError(t, err)
}

func TestLedgerService_TaskFailureDoesNotFailWrite(t *testing.T) {
	ctrl := gomock.NewController(t)
	tasks := mocks.NewMockTaskPublisher(ctrl)
	gw := memory.NewGateway()
	svc := services.NewLedgerService(gw, nil, tasks, services.DefaultOptions(), helpers.TestLogger())

	tasks.EXPECT().Enqueue(gomock.Any(), gomock.Any(), gomock.Any()).Return("", errors.New("redis down"))

	record, err := svc.RecordAdjustment(context.Background(), helpers.CreateTestActor(), helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
		r.Type = domain.TypeDamage
		r.Reason = domain.ReasonDamaged
	}))
	require.NoError(t, err)

	_, err = gw.GetRecord(context.Background(), record.ID)
	assert.NoError(t, err)
}

func TestLedgerService_PersistenceFailurePropagates(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockLedgerGateway(ctrl)
	svc := services.NewLedgerService(gw, nil, nil, services.DefaultOptions(), helpers.TestLogger())

	boom := errors.New("connection reset")
	gw.EXPECT().Commit(gomock.Any(), gomock.Any()).Return(boom)

	_, err := svc.RecordAdjustment(context.Background(), helpers.CreateTestActor(), helpers.CreateTestAdjustmentRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestLedgerService_ConvenienceWrappers(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)
	actor := helpers.CreateTestActor(helpers.WithRole(domain.RoleStaff))

	sale, err := svc.RecordSale(ctx, actor, ports.SaleRequest{
		ItemID: "item-1", LocationID: "loc-1", QuantityBefore: 20, QuantitySold: 3, OrderReference: "ORD-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeSale, sale.Type)
	assert.Equal(t, -3, sale.QuantityChange)
	assert.Equal(t, "ORD-1", sale.Reference)

	recv, err := svc.RecordReceive(ctx, actor, ports.ReceiveRequest{
		ItemID: "item-1", LocationID: "loc-1", QuantityBefore: 17, QuantityReceived: 5, PurchaseOrder: "PO-7",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeReceive, recv.Type)
	assert.Equal(t, domain.ReasonPurchaseReceived, recv.Reason)
	assert.Equal(t, 5, recv.QuantityChange)

	dmg, err := svc.RecordDamage(ctx, actor, ports.DamageRequest{
		ItemID: "item-1", LocationID: "loc-1", QuantityBefore: 22, QuantityDamaged: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonDamaged, dmg.Reason)
	assert.True(t, dmg.RequiresApproval)
}

func TestLedgerService_CycleCount(t *testing.T) {
	tests := []struct {
		name         string
		system       int
		counted      int
		wantReason   domain.AdjustmentReason
		wantVariance int
		wantApproval bool
	}{
		{name: "large_shrinkage", system: 100, counted: 85, wantReason: domain.ReasonShrinkage, wantVariance: -15, wantApproval: true},
		{name: "small_shrinkage_follows_policy", system: 100, counted: 95, wantReason: domain.ReasonShrinkage, wantVariance: -5, wantApproval: true},
		{name: "small_found", system: 100, counted: 105, wantReason: domain.ReasonFound, wantVariance: 5, wantApproval: false},
		{name: "large_found", system: 100, counted: 112, wantReason: domain.ReasonFound, wantVariance: 12, wantApproval: true},
		{name: "exact_count_is_recorded", system: 40, counted: 40, wantReason: domain.ReasonRecount, wantVariance: 0, wantApproval: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService(t)
			res, err := svc.RecordCycleCount(context.Background(), helpers.CreateTestActor(), ports.CycleCountRequest{
				ItemID:          "item-1",
				LocationID:      "loc-1",
				SystemQuantity:  tt.system,
				CountedQuantity: tt.counted,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantVariance, res.Variance)
			assert.Equal(t, tt.wantReason, res.Record.Reason)
			assert.Equal(t, domain.TypeCount, res.Record.Type)
			assert.Equal(t, tt.wantVariance, res.Record.QuantityChange)
			assert.Equal(t, tt.wantApproval, res.Record.RequiresApproval)
		})
	}
}

func TestCountReason(t *testing.T) {
	assert.Equal(t, domain.ReasonShrinkage, services.CountReason(-1))
	assert.Equal(t, domain.ReasonFound, services.CountReason(1))
	assert.Equal(t, domain.ReasonRecount, services.CountReason(0))
}

func TestLedgerService_BatchErrorsStayInOwnStore(t *testing.T) {
	ctx := context.Background()
	svc, gw := newService(t)
	owner := helpers.CreateTestActor(func(a *domain.Actor) { a.StoreID = "store-b" })
	outsider := helpers.CreateTestActor()

	batch, err := svc.StartAuditBatch(ctx, owner, ports.StartBatchRequest{BatchType: domain.BatchCycleCount, TotalItems: 3})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := svc.RecordAdjustment(ctx, outsider, helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
			r.ItemID = ""
			r.BatchID = &batch.ID
		}))
		assert.True(t, domain.IsValidationError(err), "got %v", err)
	}

	_, err = svc.RecordTransfer(ctx, outsider, ports.TransferRequest{
		Grouping:       ports.Grouping{BatchID: &batch.ID},
		ItemID:         "item-1",
		FromLocationID: "loc-a",
		ToLocationID:   "loc-a",
		QuantityBefore: 10,
		QuantityMoved:  2,
	})
	require.Error(t, err)

	stored, err := gw.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ErrorCount)
}

func TestLedgerService_BatchErrorsSkipTerminalBatch(t *testing.T) {
	ctx := context.Background()
	svc, gw := newService(t)
	actor := helpers.CreateTestActor()

	batch, err := svc.StartAuditBatch(ctx, actor, ports.StartBatchRequest{BatchType: domain.BatchCycleCount})
	require.NoError(t, err)
	_, err = svc.CompleteAuditBatch(ctx, actor, batch.ID, domain.BatchFailed)
	require.NoError(t, err)

	_, err = svc.RecordAdjustment(ctx, actor, helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
		r.ItemID = ""
		r.BatchID = &batch.ID
	}))
	require.Error(t, err)

	stored, err := gw.GetBatch(ctx, batch.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ErrorCount)
}

func TestLedgerService_RecordAdjustmentRejectsReversalType(t *testing.T) {
	ctx := context.Background()
	svc, gw := newService(t)
	manager := helpers.CreateTestActor()

	_, err := svc.RecordAdjustment(ctx, manager, helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
		r.Type = domain.TypeReversal
		r.QuantityBefore = 100
		r.QuantityAfter = 150
	}))
	msgs := validationErrors(t, err)
	assert.Contains(t, strings.Join(msgs, "; "), "reversing a record")

	records, err := gw.ListRecords(ctx, ports.RecordQuery{StoreID: manager.StoreID})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLedgerService_RecordAdjustmentRejectsUnstorableCost(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.RecordAdjustment(ctx, helpers.CreateTestActor(), helpers.CreateTestAdjustmentRequest(func(r *domain.AdjustmentRequest) {
		r.QuantityBefore = 10
		r.QuantityAfter = 13
		r.Type = domain.TypeAdjustment
		r.Reason = domain.ReasonFound
		r.UnitCost = helpers.Decimal("0.33335")
	}))
	assert.Contains(t, strings.Join(validationErrors(t, err), "; "), "decimal places")
}
