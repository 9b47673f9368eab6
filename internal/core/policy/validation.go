// internal/core/policy/validation.go
package policy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// CostScale is the number of decimal places stored for unit costs and cost
// impacts. Amounts must stay below MaxCostAmount to fit the ledger columns.
const CostScale = 4

var MaxCostAmount = decimal.New(1, 10)

// Result is the outcome of validating an adjustment request
type Result struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Err returns a *domain.ValidationError when the result is invalid
func (r Result) Err() error {
	if r.IsValid {
		return nil
	}
	return domain.NewValidationError(r.Errors...)
}

// ValidateAdjustmentRequest checks every rule and collects all failures
func ValidateAdjustmentRequest(req domain.AdjustmentRequest) Result {
	var errs []string

	if req.StoreID == "" {
		errs = append(errs, "store id is required")
	}
	if req.ItemID == "" {
		errs = append(errs, "item id is required")
	}
	if req.LocationID == "" {
		errs = append(errs, "location id is required")
	}
	if req.QuantityBefore < 0 {
		errs = append(errs, "quantity before cannot be negative")
	}
	if req.QuantityAfter < 0 {
		errs = append(errs, "quantity after cannot be negative")
	}

	switch {
	case req.Type == "":
		errs = append(errs, "adjustment type is required")
	case !req.Type.IsValid():
		errs = append(errs, fmt.Sprintf("unknown adjustment type %q", req.Type))
	case req.Type == domain.TypeReversal:
		errs = append(errs, "reversal entries can only be created by reversing a record")
	}

	if req.Reason != "" && !req.Reason.IsValid() {
		errs = append(errs, fmt.Sprintf("unknown adjustment reason %q", req.Reason))
	}
	if req.Type == domain.TypeAdjustment && req.Reason == "" {
		errs = append(errs, "reason is required for manual adjustments")
	}
	if req.UnitCost != nil {
		errs = append(errs, validateUnitCost(*req.UnitCost, req.QuantityChange())...)
	}

	if req.UserID != "" && req.UserRole != "" {
		if !req.UserRole.IsValid() {
			errs = append(errs, fmt.Sprintf("unknown user role %q", req.UserRole))
		} else if req.Type != "" && !CanPerformAdjustment(req.UserRole, req.Type) {
			errs = append(errs, fmt.Sprintf("role %s is not permitted to perform %s adjustments", req.UserRole, req.Type))
		}
	}

	return Result{IsValid: len(errs) == 0, Errors: errs}
}

func validateUnitCost(cost decimal.Decimal, change int) []string {
	var errs []string
	if cost.IsNegative() {
		errs = append(errs, "unit cost cannot be negative")
	}
	if !cost.Equal(cost.Round(CostScale)) {
		errs = append(errs, fmt.Sprintf("unit cost cannot have more than %d decimal places", CostScale))
	}
	if cost.Abs().GreaterThanOrEqual(MaxCostAmount) {
		errs = append(errs, fmt.Sprintf("unit cost must be below %s", MaxCostAmount))
	} else if cost.Mul(decimal.NewFromInt(int64(change))).Abs().GreaterThanOrEqual(MaxCostAmount) {
		errs = append(errs, fmt.Sprintf("total cost impact must be below %s", MaxCostAmount))
	}
	return errs
}
