// internal/core/policy/policy.go

// Package policy decides who may perform which adjustment and which
// adjustments need a second-party approval. Everything here is pure.
package policy

import (
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// Permission is a capability granted to a role
type Permission string

// Permission constants
const (
	PermAllAdjustments       Permission = "all_adjustments"
	PermManualAdjustments    Permission = "manual_adjustments"
	PermApproveSmallChanges  Permission = "approve_small_changes"
	PermCycleCounts          Permission = "cycle_counts"
	PermTransfers            Permission = "transfers"
	PermBasicAdjustments     Permission = "basic_adjustments"
	PermSales                Permission = "sales"
	PermReceiving            Permission = "receiving"
	PermAutomatedAdjustments Permission = "automated_adjustments"
	PermCorrections          Permission = "corrections"
)

// Permissions returns the permission set granted to role
func Permissions(role domain.UserRole) []Permission {
	switch role {
	case domain.RoleAdmin:
		return []Permission{PermAllAdjustments}
	case domain.RoleManager:
		return []Permission{PermManualAdjustments, PermApproveSmallChanges, PermCycleCounts, PermTransfers}
	case domain.RoleStaff:
		return []Permission{PermBasicAdjustments, PermSales, PermReceiving}
	case domain.RoleSystem:
		return []Permission{PermAutomatedAdjustments, PermSales, PermCorrections}
	}
	return nil
}

// HasPermission reports whether role holds perm. all_adjustments implies
// every other permission.
func HasPermission(role domain.UserRole, perm Permission) bool {
	for _, p := range Permissions(role) {
		if p == perm || p == PermAllAdjustments {
			return true
		}
	}
	return false
}

// acceptedPermissions lists the permissions any one of which allows an
// adjustment type. Unknown types fall back to all_adjustments.
func acceptedPermissions(t domain.AdjustmentType) []Permission {
	switch t {
	case domain.TypeAdjustment:
		return []Permission{PermManualAdjustments, PermBasicAdjustments, PermAutomatedAdjustments}
	case domain.TypeSale:
		return []Permission{PermSales, PermManualAdjustments}
	case domain.TypeReceive:
		return []Permission{PermReceiving, PermManualAdjustments}
	case domain.TypeTransfer:
		return []Permission{PermTransfers}
	case domain.TypeCount:
		return []Permission{PermCycleCounts, PermBasicAdjustments}
	case domain.TypeDamage:
		return []Permission{PermManualAdjustments, PermBasicAdjustments}
	case domain.TypeReturn:
		return []Permission{PermManualAdjustments, PermBasicAdjustments, PermSales}
	case domain.TypeCorrection:
		return []Permission{PermCorrections, PermManualAdjustments}
	case domain.TypeReversal:
		return []Permission{PermManualAdjustments}
	}
	return []Permission{PermAllAdjustments}
}

// CanPerformAdjustment reports whether role may record an adjustment of type t
func CanPerformAdjustment(role domain.UserRole, t domain.AdjustmentType) bool {
	for _, perm := range acceptedPermissions(t) {
		if HasPermission(role, perm) {
			return true
		}
	}
	return false
}

// Thresholds are the limits above which an adjustment needs approval
type Thresholds struct {
	// LargeQuantity is the absolute quantity change above which any role needs approval.
	LargeQuantity int
	// HighValue is the absolute cost impact above which approval is needed.
	HighValue decimal.Decimal
	// StaffQuantity is the lower quantity limit applied to staff.
	StaffQuantity int
	// CountVariance is the cycle-count variance that forces a review.
	CountVariance int
}

// DefaultThresholds returns the standard store limits
func DefaultThresholds() Thresholds {
	return Thresholds{
		LargeQuantity: 100,
		HighValue:     decimal.NewFromInt(1000),
		StaffQuantity: 10,
		CountVariance: 10,
	}
}

// Engine evaluates approval rules against a set of thresholds
type Engine struct {
	thresholds Thresholds
}

// NewEngine creates an engine for the given thresholds
func NewEngine(t Thresholds) *Engine {
	return &Engine{thresholds: t}
}

// Default is the engine configured with DefaultThresholds
var Default = NewEngine(DefaultThresholds())

// Thresholds returns the configured limits
func (e *Engine) Thresholds() Thresholds {
	return e.thresholds
}

// RequiresApproval is the OR of four independent conditions: a large
// quantity change, a high cost impact, a reason that always needs approval,
// and a staff change above the staff limit. reason, role and unitCost are
// optional.
func (e *Engine) RequiresApproval(quantityChange int, reason domain.AdjustmentReason, role domain.UserRole, unitCost *decimal.Decimal) bool {
	magnitude := abs(quantityChange)

	if magnitude > e.thresholds.LargeQuantity {
		return true
	}
	if unitCost != nil {
		impact := decimal.NewFromInt(int64(quantityChange)).Mul(*unitCost).Abs()
		if impact.GreaterThan(e.thresholds.HighValue) {
			return true
		}
	}
	if reason.AlwaysRequiresApproval() {
		return true
	}
	if role == domain.RoleStaff && magnitude > e.thresholds.StaffQuantity {
		return true
	}
	return false
}

// CountNeedsReview reports whether a cycle-count variance is large enough to
// force approval regardless of the general rules
func (e *Engine) CountNeedsReview(variance int) bool {
	return abs(variance) > e.thresholds.CountVariance
}

// IsSmallChange reports whether a manager may sign off on the record alone
func (e *Engine) IsSmallChange(r *domain.AdjustmentRecord) bool {
	if abs(r.QuantityChange) > e.thresholds.LargeQuantity {
		return false
	}
	return !r.CostImpact().Abs().GreaterThan(e.thresholds.HighValue)
}

// CanApprove reports whether role may approve r. Admins approve anything,
// managers only small changes.
func (e *Engine) CanApprove(role domain.UserRole, r *domain.AdjustmentRecord) bool {
	if HasPermission(role, PermAllAdjustments) {
		return true
	}
	return HasPermission(role, PermApproveSmallChanges) && e.IsSmallChange(r)
}

// RequiresApproval evaluates the default thresholds
func RequiresApproval(quantityChange int, reason domain.AdjustmentReason, role domain.UserRole, unitCost *decimal.Decimal) bool {
	return Default.RequiresApproval(quantityChange, reason, role, unitCost)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
