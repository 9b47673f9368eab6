// internal/core/domain/errors.go
package domain

import (
	"errors"
	"strings"
)

// Catalog errors
var (
	ErrUnknownAdjustmentType   = errors.New("unknown adjustment type")
	ErrUnknownAdjustmentReason = errors.New("unknown adjustment reason")
	ErrUnknownUserRole         = errors.New("unknown user role")
	ErrUnknownBatchType        = errors.New("unknown batch type")
	ErrUnknownBatchStatus      = errors.New("unknown batch status")
)

// Lookup errors
var (
	ErrRecordNotFound  = errors.New("adjustment record not found")
	ErrSessionNotFound = errors.New("audit session not found")
	ErrBatchNotFound   = errors.New("audit batch not found")
)

// State machine errors
var (
	ErrSessionAlreadyActive   = errors.New("an audit session is already active for this user and device")
	ErrSessionNotActive       = errors.New("audit session is not active")
	ErrSessionOwnership       = errors.New("audit session belongs to another user or device")
	ErrBatchTerminal          = errors.New("audit batch is already completed or failed")
	ErrInvalidBatchTransition = errors.New("invalid audit batch status transition")
	ErrApprovalNotRequired    = errors.New("adjustment does not require approval")
	ErrAlreadyApproved        = errors.New("adjustment is already approved")
	ErrSelfApproval           = errors.New("adjustment cannot be approved by its creator")
	ErrApprovalForbidden      = errors.New("role is not allowed to approve this adjustment")
	ErrAlreadyReversed        = errors.New("adjustment is already reversed")
	ErrReversalOfReversal     = errors.New("reversal entries cannot be reversed")
	ErrConcurrentModification = errors.New("object was modified concurrently")
	ErrStoreMismatch          = errors.New("object belongs to another store")
)

// ValidationError carries every failing validation rule of a request.
// Permission failures are reported as one of the messages.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// NewValidationError builds a ValidationError from messages
func NewValidationError(msgs ...string) *ValidationError {
	return &ValidationError{Errors: msgs}
}

// IsValidationError reports whether err wraps a ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
