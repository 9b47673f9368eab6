package domain_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/core/domain"
)

func costPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestNewAdjustmentRecord_DerivesFields(t *testing.T) {
	tests := []struct {
		name       string
		before     int
		after      int
		unitCost   *decimal.Decimal
		wantChange int
		wantImpact *decimal.Decimal
	}{
		{
			name:       "decrease_without_cost",
			before:     100,
			after:      95,
			wantChange: -5,
		},
		{
			name:       "increase_with_cost",
			before:     10,
			after:      25,
			unitCost:   costPtr("2.50"),
			wantChange: 15,
			wantImpact: costPtr("37.5"),
		},
		{
			name:       "decrease_with_cost_is_negative_impact",
			before:     40,
			after:      0,
			unitCost:   costPtr("12.25"),
			wantChange: -40,
			wantImpact: costPtr("-490"),
		},
		{
			name:       "zero_before",
			before:     0,
			after:      7,
			wantChange: 7,
		},
		{
			name:       "no_change_with_zero_cost",
			before:     5,
			after:      5,
			unitCost:   costPtr("0"),
			wantChange: 0,
			wantImpact: costPtr("0"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := domain.NewAdjustmentRecord(domain.AdjustmentRequest{
				StoreID:        "store-1",
				ItemID:         "item-1",
				LocationID:     "loc-1",
				QuantityBefore: tt.before,
				QuantityAfter:  tt.after,
				Type:           domain.TypeAdjustment,
				Reason:         domain.ReasonRecount,
				UnitCost:       tt.unitCost,
			}, false)

			assert.Equal(t, tt.wantChange, rec.QuantityChange)
			if tt.wantImpact == nil {
				assert.Nil(t, rec.TotalCostImpact, "cost impact must stay unset without a unit cost")
			} else {
				require.NotNil(t, rec.TotalCostImpact)
				assert.True(t, tt.wantImpact.Equal(*rec.TotalCostImpact),
					"want %s got %s", tt.wantImpact, rec.TotalCostImpact)
			}
			assert.NotEqual(t, uuid.Nil, rec.ID)
			assert.Equal(t, domain.RecordSchemaVersion, rec.Version)
			assert.Nil(t, rec.ApprovedAt)
			assert.False(t, rec.IsReversed)
		})
	}
}

func TestNewAdjustmentRecord_CopiesUnitCost(t *testing.T) {
	cost := decimal.NewFromInt(3)
	rec := domain.NewAdjustmentRecord(domain.AdjustmentRequest{
		QuantityBefore: 1,
		QuantityAfter:  2,
		UnitCost:       &cost,
	}, false)

	cost = decimal.NewFromInt(99)
	assert.True(t, rec.UnitCost.Equal(decimal.NewFromInt(3)))
}

func TestAdjustmentRecord_DeriveSurvivesRoundTrip(t *testing.T) {
	rec := domain.NewAdjustmentRecord(domain.AdjustmentRequest{
		StoreID:        "store-1",
		ItemID:         "item-1",
		LocationID:     "loc-1",
		QuantityBefore: 12,
		QuantityAfter:  3,
		Type:           domain.TypeDamage,
		Reason:         domain.ReasonDamaged,
		UnitCost:       costPtr("19.99"),
	}, true)

	raw, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded domain.AdjustmentRecord
	require.NoError(t, json.Unmarshal(raw, &decoded))

	change, impact := decoded.QuantityChange, *decoded.TotalCostImpact
	decoded.Derive()

	assert.Equal(t, change, decoded.QuantityChange)
	assert.True(t, impact.Equal(*decoded.TotalCostImpact))
	assert.True(t, rec.TotalCostImpact.Equal(*decoded.TotalCostImpact))
}

func TestAdjustmentRecord_Approve(t *testing.T) {
	now := time.Now()

	t.Run("approves_once", func(t *testing.T) {
		rec := &domain.AdjustmentRecord{UserID: "u1", RequiresApproval: true}
		require.NoError(t, rec.Approve("u2", "ok", now))
		assert.Equal(t, "u2", rec.ApprovedBy)
		assert.True(t, rec.IsApproved())
		assert.False(t, rec.IsPendingApproval())

		err := rec.Approve("u3", "again", now)
		assert.ErrorIs(t, err, domain.ErrAlreadyApproved)
		assert.Equal(t, "u2", rec.ApprovedBy)
	})

	t.Run("rejects_when_not_required", func(t *testing.T) {
		rec := &domain.AdjustmentRecord{UserID: "u1"}
		assert.ErrorIs(t, rec.Approve("u2", "", now), domain.ErrApprovalNotRequired)
	})

	t.Run("rejects_self_approval", func(t *testing.T) {
		rec := &domain.AdjustmentRecord{UserID: "u1", RequiresApproval: true}
		assert.ErrorIs(t, rec.Approve("u1", "", now), domain.ErrSelfApproval)
		assert.Nil(t, rec.ApprovedAt)
	})
}

func TestAdjustmentRecord_MarkReversed(t *testing.T) {
	rec := &domain.AdjustmentRecord{Type: domain.TypeSale}
	require.NoError(t, rec.MarkReversed("REV-1"))
	assert.True(t, rec.IsReversed)
	assert.ErrorIs(t, rec.MarkReversed("REV-2"), domain.ErrAlreadyReversed)
	assert.Equal(t, "REV-1", rec.ReversalReference)

	reversal := &domain.AdjustmentRecord{Type: domain.TypeReversal}
	assert.ErrorIs(t, reversal.MarkReversed("x"), domain.ErrReversalOfReversal)
}

func TestAdjustmentRecord_ReversalRequest(t *testing.T) {
	orig := domain.NewAdjustmentRecord(domain.AdjustmentRequest{
		StoreID:        "store-1",
		ItemID:         "item-1",
		LocationID:     "loc-1",
		QuantityBefore: 50,
		QuantityAfter:  30,
		Type:           domain.TypeSale,
		UnitCost:       costPtr("4"),
	}, false)

	actor := domain.Actor{UserID: "mgr", UserName: "Manager", Role: domain.RoleManager, StoreID: "store-1"}
	rev := domain.NewAdjustmentRecord(orig.ReversalRequest(actor, "customer cancelled"), false)

	assert.Equal(t, domain.TypeReversal, rev.Type)
	assert.Equal(t, 30, rev.QuantityBefore)
	assert.Equal(t, 50, rev.QuantityAfter)
	assert.Equal(t, -orig.QuantityChange, rev.QuantityChange)
	assert.True(t, orig.CostImpact().Neg().Equal(rev.CostImpact()))
	assert.Equal(t, orig.ID.String(), rev.Reference)
	assert.Equal(t, "mgr", rev.UserID)
}

func TestSumRecords(t *testing.T) {
	records := []*domain.AdjustmentRecord{
		domain.NewAdjustmentRecord(domain.AdjustmentRequest{QuantityBefore: 10, QuantityAfter: 5, UnitCost: costPtr("2")}, false),
		domain.NewAdjustmentRecord(domain.AdjustmentRequest{QuantityBefore: 0, QuantityAfter: 8}, false),
		domain.NewAdjustmentRecord(domain.AdjustmentRequest{QuantityBefore: 3, QuantityAfter: 4, UnitCost: costPtr("1.5")}, false),
	}

	got := domain.SumRecords(records)
	want := domain.Rollup{Count: 3, QuantityChange: 4, CostImpact: decimal.RequireFromString("-8.5")}

	assert.True(t, want.Equal(got), "want %+v got %+v", want, got)
	assert.True(t, domain.SumRecords(nil).IsZero())
}
