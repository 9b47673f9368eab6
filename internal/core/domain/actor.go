// internal/core/domain/actor.go
package domain

import "fmt"

// Actor is the already-authenticated caller of a ledger operation
type Actor struct {
	UserID   string   `json:"userId"`
	UserName string   `json:"userName"`
	Role     UserRole `json:"userRole"`
	DeviceID string   `json:"deviceId,omitempty"`
	StoreID  string   `json:"storeId"`
}

// Validate checks that the identity fields needed for provenance are present
func (a Actor) Validate() error {
	if a.UserID == "" {
		return fmt.Errorf("user id is required")
	}
	if !a.Role.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnknownUserRole, a.Role)
	}
	if a.StoreID == "" {
		return fmt.Errorf("store id is required")
	}
	return nil
}

// SystemActor is used for adjustments issued by background jobs
func SystemActor(storeID string) Actor {
	return Actor{
		UserID:   "system",
		UserName: "System",
		Role:     RoleSystem,
		DeviceID: "worker",
		StoreID:  storeID,
	}
}
