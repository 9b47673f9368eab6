// internal/core/domain/rollup.go
package domain

import "github.com/shopspring/decimal"

// Rollup is the running total kept by sessions and batches
type Rollup struct {
	Count          int             `json:"count"`
	QuantityChange int             `json:"quantityChange"`
	CostImpact     decimal.Decimal `json:"costImpact"`
}

// RollupOf returns the contribution of a single record
func RollupOf(r *AdjustmentRecord) Rollup {
	return Rollup{
		Count:          1,
		QuantityChange: r.QuantityChange,
		CostImpact:     r.CostImpact(),
	}
}

// SumRecords sums the contributions of records
func SumRecords(records []*AdjustmentRecord) Rollup {
	var total Rollup
	for _, r := range records {
		total = total.Add(RollupOf(r))
	}
	return total
}

// Add returns r + o
func (r Rollup) Add(o Rollup) Rollup {
	return Rollup{
		Count:          r.Count + o.Count,
		QuantityChange: r.QuantityChange + o.QuantityChange,
		CostImpact:     r.CostImpact.Add(o.CostImpact),
	}
}

// Equal compares rollups numerically
func (r Rollup) Equal(o Rollup) bool {
	return r.Count == o.Count &&
		r.QuantityChange == o.QuantityChange &&
		r.CostImpact.Equal(o.CostImpact)
}

// IsZero reports whether nothing has been accumulated
func (r Rollup) IsZero() bool {
	return r.Count == 0 && r.QuantityChange == 0 && r.CostImpact.IsZero()
}
