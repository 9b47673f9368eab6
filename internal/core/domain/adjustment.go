// internal/core/domain/adjustment.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordSchemaVersion is stamped on every new record
const RecordSchemaVersion = 1

// AdjustmentRequest is the raw caller input for one quantity change.
// Derived fields are never accepted from the caller.
type AdjustmentRequest struct {
	StoreID        string
	ItemID         string
	LocationID     string
	QuantityBefore int
	QuantityAfter  int
	Type           AdjustmentType
	Reason         AdjustmentReason
	UnitCost       *decimal.Decimal

	UserID   string
	UserName string
	UserRole UserRole
	DeviceID string

	SessionID *uuid.UUID
	BatchID   *uuid.UUID

	Reference string
	Notes     string

	// RequiresApproval overrides the policy decision when set.
	RequiresApproval *bool
}

// WithActor copies the actor's provenance into the request
func (r AdjustmentRequest) WithActor(a Actor) AdjustmentRequest {
	r.UserID = a.UserID
	r.UserName = a.UserName
	r.UserRole = a.Role
	r.DeviceID = a.DeviceID
	if r.StoreID == "" {
		r.StoreID = a.StoreID
	}
	return r
}

// QuantityChange returns quantityAfter - quantityBefore
func (r AdjustmentRequest) QuantityChange() int {
	return r.QuantityAfter - r.QuantityBefore
}

// AdjustmentRecord is one entry in the inventory audit trail
type AdjustmentRecord struct {
	ID         uuid.UUID `json:"id"`
	StoreID    string    `json:"storeId"`
	ItemID     string    `json:"itemId"`
	LocationID string    `json:"locationId"`

	QuantityBefore int `json:"quantityBefore"`
	QuantityAfter  int `json:"quantityAfter"`
	QuantityChange int `json:"quantityChange"`

	Type   AdjustmentType   `json:"type"`
	Reason AdjustmentReason `json:"reason,omitempty"`

	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	UserRole  UserRole  `json:"userRole"`
	DeviceID  string    `json:"deviceId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	UnitCost        *decimal.Decimal `json:"unitCost,omitempty"`
	TotalCostImpact *decimal.Decimal `json:"totalCostImpact,omitempty"`

	SessionID *uuid.UUID `json:"sessionId,omitempty"`
	BatchID   *uuid.UUID `json:"batchId,omitempty"`

	RequiresApproval bool       `json:"requiresApproval"`
	ApprovedBy       string     `json:"approvedBy,omitempty"`
	ApprovedAt       *time.Time `json:"approvedAt,omitempty"`
	ApprovalNotes    string     `json:"approvalNotes,omitempty"`

	IsReversed        bool       `json:"isReversed"`
	ReversalReference string     `json:"reversalReference,omitempty"`
	ReversesID        *uuid.UUID `json:"reversesId,omitempty"`

	Reference string `json:"reference,omitempty"`
	Notes     string `json:"notes,omitempty"`

	Version  int   `json:"version"`
	Revision int64 `json:"revision"`
}

// NewAdjustmentRecord builds a record from a request. Derived fields are
// computed here and approval/reversal state starts unset. CreatedAt is left
// zero for the persistence layer to assign.
func NewAdjustmentRecord(req AdjustmentRequest, requiresApproval bool) *AdjustmentRecord {
	r := &AdjustmentRecord{
		ID:               uuid.New(),
		StoreID:          req.StoreID,
		ItemID:           req.ItemID,
		LocationID:       req.LocationID,
		QuantityBefore:   req.QuantityBefore,
		QuantityAfter:    req.QuantityAfter,
		Type:             req.Type,
		Reason:           req.Reason,
		UserID:           req.UserID,
		UserName:         req.UserName,
		UserRole:         req.UserRole,
		DeviceID:         req.DeviceID,
		SessionID:        req.SessionID,
		BatchID:          req.BatchID,
		RequiresApproval: requiresApproval,
		Reference:        req.Reference,
		Notes:            req.Notes,
		Version:          RecordSchemaVersion,
	}
	if req.UnitCost != nil {
		cost := *req.UnitCost
		r.UnitCost = &cost
	}
	r.Derive()
	return r
}

// Derive recomputes quantityChange and totalCostImpact from the stored
// quantities and unit cost
func (r *AdjustmentRecord) Derive() {
	r.QuantityChange = r.QuantityAfter - r.QuantityBefore
	r.TotalCostImpact = nil
	if r.UnitCost != nil {
		impact := decimal.NewFromInt(int64(r.QuantityChange)).Mul(*r.UnitCost)
		r.TotalCostImpact = &impact
	}
}

// CostImpact returns the cost impact or zero when no unit cost was recorded
func (r *AdjustmentRecord) CostImpact() decimal.Decimal {
	if r.TotalCostImpact == nil {
		return decimal.Zero
	}
	return *r.TotalCostImpact
}

// IsApproved reports whether the approval fields are set
func (r *AdjustmentRecord) IsApproved() bool {
	return r.ApprovedAt != nil
}

// IsPendingApproval reports whether the record still waits for sign-off
func (r *AdjustmentRecord) IsPendingApproval() bool {
	return r.RequiresApproval && !r.IsApproved() && !r.IsReversed
}

// Approve sets the approval fields exactly once
func (r *AdjustmentRecord) Approve(approverID, notes string, at time.Time) error {
	if !r.RequiresApproval {
		return ErrApprovalNotRequired
	}
	if r.IsApproved() {
		return ErrAlreadyApproved
	}
	if approverID == r.UserID {
		return ErrSelfApproval
	}
	r.ApprovedBy = approverID
	r.ApprovedAt = &at
	r.ApprovalNotes = notes
	return nil
}

// MarkReversed flags the record as rescinded exactly once
func (r *AdjustmentRecord) MarkReversed(reference string) error {
	if r.Type == TypeReversal {
		return ErrReversalOfReversal
	}
	if r.IsReversed {
		return ErrAlreadyReversed
	}
	r.IsReversed = true
	r.ReversalReference = reference
	return nil
}

// ReversalRequest returns the request for the inverse entry of r: the
// quantities are swapped so the change is negated at the same location.
func (r *AdjustmentRecord) ReversalRequest(actor Actor, notes string) AdjustmentRequest {
	req := AdjustmentRequest{
		StoreID:        r.StoreID,
		ItemID:         r.ItemID,
		LocationID:     r.LocationID,
		QuantityBefore: r.QuantityAfter,
		QuantityAfter:  r.QuantityBefore,
		Type:           TypeReversal,
		Reason:         r.Reason,
		UnitCost:       r.UnitCost,
		Reference:      r.ID.String(),
		Notes:          notes,
	}
	return req.WithActor(actor)
}
