// internal/core/domain/session.go
package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AuditSession groups the adjustments one user makes on one device during a
// continuous work period
type AuditSession struct {
	ID       uuid.UUID `json:"id"`
	StoreID  string    `json:"storeId"`
	UserID   string    `json:"userId"`
	UserName string    `json:"userName"`
	UserRole UserRole  `json:"userRole"`
	DeviceID string    `json:"deviceId,omitempty"`

	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	IsActive  bool       `json:"isActive"`

	TotalAdjustments    int             `json:"totalAdjustments"`
	TotalQuantityChange int             `json:"totalQuantityChange"`
	TotalCostImpact     decimal.Decimal `json:"totalCostImpact"`

	Revision int64 `json:"revision"`
}

// NewAuditSession returns an active session for the actor. StartedAt is
// assigned by the persistence layer.
func NewAuditSession(actor Actor) *AuditSession {
	return &AuditSession{
		ID:              uuid.New(),
		StoreID:         actor.StoreID,
		UserID:          actor.UserID,
		UserName:        actor.UserName,
		UserRole:        actor.Role,
		DeviceID:        actor.DeviceID,
		IsActive:        true,
		TotalCostImpact: decimal.Zero,
	}
}

// OwnedBy reports whether the session was started by the actor on the same
// device
func (s *AuditSession) OwnedBy(actor Actor) bool {
	return s.StoreID == actor.StoreID &&
		s.UserID == actor.UserID &&
		s.DeviceID == actor.DeviceID
}

// Rollup returns the session's running totals
func (s *AuditSession) Rollup() Rollup {
	return Rollup{
		Count:          s.TotalAdjustments,
		QuantityChange: s.TotalQuantityChange,
		CostImpact:     s.TotalCostImpact,
	}
}

// SetRollup replaces the running totals
func (s *AuditSession) SetRollup(r Rollup) {
	s.TotalAdjustments = r.Count
	s.TotalQuantityChange = r.QuantityChange
	s.TotalCostImpact = r.CostImpact
}

// End closes the session. Ending is allowed only once.
func (s *AuditSession) End(at time.Time) error {
	if !s.IsActive {
		return ErrSessionNotActive
	}
	s.IsActive = false
	s.EndedAt = &at
	return nil
}
