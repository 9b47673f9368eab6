// internal/core/domain/catalog.go
package domain

import "fmt"

// AdjustmentType classifies what caused a quantity change
type AdjustmentType string

// Adjustment type constants
const (
	TypeAdjustment AdjustmentType = "adjustment"
	TypeSale       AdjustmentType = "sale"
	TypeReceive    AdjustmentType = "receive"
	TypeTransfer   AdjustmentType = "transfer"
	TypeCount      AdjustmentType = "count"
	TypeDamage     AdjustmentType = "damage"
	TypeReturn     AdjustmentType = "return"
	TypeCorrection AdjustmentType = "correction"
	TypeReversal   AdjustmentType = "reversal"
)

// AdjustmentTypes lists every known adjustment type in display order
var AdjustmentTypes = []AdjustmentType{
	TypeAdjustment, TypeSale, TypeReceive, TypeTransfer, TypeCount,
	TypeDamage, TypeReturn, TypeCorrection, TypeReversal,
}

// TypeInfo is the display metadata attached to an adjustment type
type TypeInfo struct {
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Info returns the metadata for t. ok is false for unknown types.
func (t AdjustmentType) Info() (info TypeInfo, ok bool) {
	switch t {
	case TypeAdjustment:
		return TypeInfo{"Manual Adjustment", "Manual quantity adjustment"}, true
	case TypeSale:
		return TypeInfo{"Sale", "Stock sold to a customer"}, true
	case TypeReceive:
		return TypeInfo{"Receive", "Stock received from a supplier"}, true
	case TypeTransfer:
		return TypeInfo{"Transfer", "Stock moved between locations"}, true
	case TypeCount:
		return TypeInfo{"Cycle Count", "Physical count reconciliation"}, true
	case TypeDamage:
		return TypeInfo{"Damage", "Stock damaged or destroyed"}, true
	case TypeReturn:
		return TypeInfo{"Return", "Stock returned by a customer or to a supplier"}, true
	case TypeCorrection:
		return TypeInfo{"Correction", "System or data correction"}, true
	case TypeReversal:
		return TypeInfo{"Reversal", "Inverse entry rescinding an earlier adjustment"}, true
	}
	return TypeInfo{}, false
}

// IsValid reports whether t is a known adjustment type
func (t AdjustmentType) IsValid() bool {
	_, ok := t.Info()
	return ok
}

// ParseAdjustmentType converts a wire value into an AdjustmentType
func ParseAdjustmentType(s string) (AdjustmentType, error) {
	t := AdjustmentType(s)
	if !t.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAdjustmentType, s)
	}
	return t, nil
}

// AdjustmentReason explains why a quantity changed
type AdjustmentReason string

// Adjustment reason constants
const (
	ReasonDamaged          AdjustmentReason = "damaged"
	ReasonExpired          AdjustmentReason = "expired"
	ReasonLost             AdjustmentReason = "lost"
	ReasonShrinkage        AdjustmentReason = "shrinkage"
	ReasonFound            AdjustmentReason = "found"
	ReasonTheftRecovered   AdjustmentReason = "theft_recovered"
	ReasonTransferIn       AdjustmentReason = "transfer_in"
	ReasonTransferOut      AdjustmentReason = "transfer_out"
	ReasonSale             AdjustmentReason = "sale"
	ReasonPurchaseReceived AdjustmentReason = "purchase_received"
	ReasonCustomerReturn   AdjustmentReason = "customer_return"
	ReasonSupplierReturn   AdjustmentReason = "supplier_return"
	ReasonRecount          AdjustmentReason = "recount"
	ReasonDataCorrection   AdjustmentReason = "data_correction"
	ReasonSample           AdjustmentReason = "sample"
	ReasonOther            AdjustmentReason = "other"
)

// ReasonInfo is the display metadata attached to an adjustment reason
type ReasonInfo struct {
	Label                  string `json:"label"`
	Description            string `json:"description"`
	AlwaysRequiresApproval bool   `json:"alwaysRequiresApproval"`
}

// Info returns the metadata for r. ok is false for unknown reasons.
func (r AdjustmentReason) Info() (info ReasonInfo, ok bool) {
	switch r {
	case ReasonDamaged:
		return ReasonInfo{"Damaged", "Item damaged and no longer sellable", true}, true
	case ReasonExpired:
		return ReasonInfo{"Expired", "Item past its expiry date", true}, true
	case ReasonLost:
		return ReasonInfo{"Lost", "Item cannot be located", true}, true
	case ReasonShrinkage:
		return ReasonInfo{"Shrinkage", "Unexplained loss found during a count", true}, true
	case ReasonFound:
		return ReasonInfo{"Found", "Previously missing stock located", false}, true
	case ReasonTheftRecovered:
		return ReasonInfo{"Theft Recovered", "Stolen stock recovered", false}, true
	case ReasonTransferIn:
		return ReasonInfo{"Transfer In", "Received from another location", false}, true
	case ReasonTransferOut:
		return ReasonInfo{"Transfer Out", "Sent to another location", false}, true
	case ReasonSale:
		return ReasonInfo{"Sale", "Sold to a customer", false}, true
	case ReasonPurchaseReceived:
		return ReasonInfo{"Purchase Received", "Purchase order delivered", false}, true
	case ReasonCustomerReturn:
		return ReasonInfo{"Customer Return", "Returned by a customer", false}, true
	case ReasonSupplierReturn:
		return ReasonInfo{"Supplier Return", "Returned to a supplier", false}, true
	case ReasonRecount:
		return ReasonInfo{"Recount", "Quantity confirmed by recount", false}, true
	case ReasonDataCorrection:
		return ReasonInfo{"Data Correction", "Fix for a data entry error", false}, true
	case ReasonSample:
		return ReasonInfo{"Sample", "Used as a sample or demo", false}, true
	case ReasonOther:
		return ReasonInfo{"Other", "Other reason, see notes", false}, true
	}
	return ReasonInfo{}, false
}

// IsValid reports whether r is a known reason
func (r AdjustmentReason) IsValid() bool {
	_, ok := r.Info()
	return ok
}

// AlwaysRequiresApproval reports whether every adjustment with this reason
// needs a second-party sign-off
func (r AdjustmentReason) AlwaysRequiresApproval() bool {
	info, _ := r.Info()
	return info.AlwaysRequiresApproval
}

// ParseAdjustmentReason converts a wire value into an AdjustmentReason.
// An empty string is accepted and means no reason.
func ParseAdjustmentReason(s string) (AdjustmentReason, error) {
	if s == "" {
		return "", nil
	}
	r := AdjustmentReason(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownAdjustmentReason, s)
	}
	return r, nil
}

// UserRole is the role supplied by the identity provider
type UserRole string

// Role constants
const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleStaff   UserRole = "staff"
	RoleSystem  UserRole = "system"
)

// IsValid reports whether r is a known role
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleStaff, RoleSystem:
		return true
	}
	return false
}

// ParseUserRole converts a wire value into a UserRole
func ParseUserRole(s string) (UserRole, error) {
	r := UserRole(s)
	if !r.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownUserRole, s)
	}
	return r, nil
}

// BatchType classifies a planned bulk operation
type BatchType string

// Batch type constants
const (
	BatchBulkAdjustment BatchType = "bulk_adjustment"
	BatchCycleCount     BatchType = "cycle_count"
	BatchTransfer       BatchType = "transfer"
	BatchReceiving      BatchType = "receiving"
)

// Label returns the display label for b
func (b BatchType) Label() string {
	switch b {
	case BatchBulkAdjustment:
		return "Bulk Adjustment"
	case BatchCycleCount:
		return "Cycle Count"
	case BatchTransfer:
		return "Transfer"
	case BatchReceiving:
		return "Receiving"
	}
	return ""
}

// IsValid reports whether b is a known batch type
func (b BatchType) IsValid() bool {
	return b.Label() != ""
}

// ParseBatchType converts a wire value into a BatchType
func ParseBatchType(s string) (BatchType, error) {
	b := BatchType(s)
	if !b.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownBatchType, s)
	}
	return b, nil
}
