// internal/handlers/requests.go
package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// Quantities are pointers so an omitted field is told apart from zero.

// GroupingFields attaches a request to an audit session and/or batch
type GroupingFields struct {
	SessionID *uuid.UUID `json:"sessionId,omitempty"`
	BatchID   *uuid.UUID `json:"batchId,omitempty"`
}

func (g GroupingFields) toPorts() ports.Grouping {
	return ports.Grouping{SessionID: g.SessionID, BatchID: g.BatchID}
}

// StartBatchRequest represents the request body for opening a batch
type StartBatchRequest struct {
	BatchType  string     `json:"batchType" validate:"required"`
	TotalItems *int       `json:"totalItems" validate:"required"`
	SessionID  *uuid.UUID `json:"sessionId,omitempty"`
}

// ToPorts converts the request into the service input
func (r *StartBatchRequest) ToPorts() (ports.StartBatchRequest, error) {
	bt, err := domain.ParseBatchType(r.BatchType)
	if err != nil {
		return ports.StartBatchRequest{}, err
	}
	return ports.StartBatchRequest{BatchType: bt, TotalItems: *r.TotalItems, SessionID: r.SessionID}, nil
}

// CompleteBatchRequest carries the terminal status of a batch
type CompleteBatchRequest struct {
	Status string `json:"status" validate:"required"`
}

// RecordAdjustmentRequest is a generic quantity change
type RecordAdjustmentRequest struct {
	GroupingFields
	ItemID           string           `json:"itemId" validate:"required,max=128"`
	LocationID       string           `json:"locationId" validate:"required,max=128"`
	QuantityBefore   *int             `json:"quantityBefore" validate:"required"`
	QuantityAfter    *int             `json:"quantityAfter" validate:"required"`
	Type             string           `json:"type" validate:"required"`
	Reason           string           `json:"reason,omitempty"`
	UnitCost         *decimal.Decimal `json:"unitCost,omitempty"`
	Reference        string           `json:"reference,omitempty" validate:"max=255"`
	Notes            string           `json:"notes,omitempty" validate:"max=2000"`
	RequiresApproval *bool            `json:"requiresApproval,omitempty"`
}

// ToDomain converts the request into a domain request. Provenance is filled
// in by the service from the caller.
func (r *RecordAdjustmentRequest) ToDomain() (domain.AdjustmentRequest, error) {
	t, err := domain.ParseAdjustmentType(r.Type)
	if err != nil {
		return domain.AdjustmentRequest{}, err
	}
	var reason domain.AdjustmentReason
	if r.Reason != "" {
		if reason, err = domain.ParseAdjustmentReason(r.Reason); err != nil {
			return domain.AdjustmentRequest{}, err
		}
	}

	return domain.AdjustmentRequest{
		ItemID:           strings.TrimSpace(r.ItemID),
		LocationID:       strings.TrimSpace(r.LocationID),
		QuantityBefore:   *r.QuantityBefore,
		QuantityAfter:    *r.QuantityAfter,
		Type:             t,
		Reason:           reason,
		UnitCost:         r.UnitCost,
		SessionID:        r.SessionID,
		BatchID:          r.BatchID,
		Reference:        r.Reference,
		Notes:            r.Notes,
		RequiresApproval: r.RequiresApproval,
	}, nil
}

// SaleRequest represents the request body for a sale
type SaleRequest struct {
	GroupingFields
	ItemID         string           `json:"itemId" validate:"required,max=128"`
	LocationID     string           `json:"locationId" validate:"required,max=128"`
	QuantityBefore *int             `json:"quantityBefore" validate:"required"`
	QuantitySold   *int             `json:"quantitySold" validate:"required"`
	UnitCost       *decimal.Decimal `json:"unitCost,omitempty"`
	OrderReference string           `json:"orderReference,omitempty" validate:"max=255"`
	Notes          string           `json:"notes,omitempty" validate:"max=2000"`
}

// ToPorts converts the request into the service input
func (r *SaleRequest) ToPorts() ports.SaleRequest {
	return ports.SaleRequest{
		Grouping:       r.toPorts(),
		ItemID:         strings.TrimSpace(r.ItemID),
		LocationID:     strings.TrimSpace(r.LocationID),
		QuantityBefore: *r.QuantityBefore,
		QuantitySold:   *r.QuantitySold,
		UnitCost:       r.UnitCost,
		OrderReference: r.OrderReference,
		Notes:          r.Notes,
	}
}

// ReceiveRequest represents the request body for received stock
type ReceiveRequest struct {
	GroupingFields
	ItemID           string           `json:"itemId" validate:"required,max=128"`
	LocationID       string           `json:"locationId" validate:"required,max=128"`
	QuantityBefore   *int             `json:"quantityBefore" validate:"required"`
	QuantityReceived *int             `json:"quantityReceived" validate:"required"`
	UnitCost         *decimal.Decimal `json:"unitCost,omitempty"`
	PurchaseOrder    string           `json:"purchaseOrder,omitempty" validate:"max=255"`
	Notes            string           `json:"notes,omitempty" validate:"max=2000"`
}

// ToPorts converts the request into the service input
func (r *ReceiveRequest) ToPorts() ports.ReceiveRequest {
	return ports.ReceiveRequest{
		Grouping:         r.toPorts(),
		ItemID:           strings.TrimSpace(r.ItemID),
		LocationID:       strings.TrimSpace(r.LocationID),
		QuantityBefore:   *r.QuantityBefore,
		QuantityReceived: *r.QuantityReceived,
		UnitCost:         r.UnitCost,
		PurchaseOrder:    r.PurchaseOrder,
		Notes:            r.Notes,
	}
}

// DamageRequest represents the request body for written-off stock
type DamageRequest struct {
	GroupingFields
	ItemID          string           `json:"itemId" validate:"required,max=128"`
	LocationID      string           `json:"locationId" validate:"required,max=128"`
	QuantityBefore  *int             `json:"quantityBefore" validate:"required"`
	QuantityDamaged *int             `json:"quantityDamaged" validate:"required"`
	Reason          string           `json:"reason,omitempty"`
	UnitCost        *decimal.Decimal `json:"unitCost,omitempty"`
	Notes           string           `json:"notes,omitempty" validate:"max=2000"`
}

// ToPorts converts the request into the service input
func (r *DamageRequest) ToPorts() (ports.DamageRequest, error) {
	var reason domain.AdjustmentReason
	if r.Reason != "" {
		var err error
		if reason, err = domain.ParseAdjustmentReason(r.Reason); err != nil {
			return ports.DamageRequest{}, err
		}
	}
	return ports.DamageRequest{
		Grouping:        r.toPorts(),
		ItemID:          strings.TrimSpace(r.ItemID),
		LocationID:      strings.TrimSpace(r.LocationID),
		QuantityBefore:  *r.QuantityBefore,
		QuantityDamaged: *r.QuantityDamaged,
		Reason:          reason,
		UnitCost:        r.UnitCost,
		Notes:           r.Notes,
	}, nil
}

// TransferRequest represents the request body for a transfer between
// locations
type TransferRequest struct {
	GroupingFields
	ItemID                    string           `json:"itemId" validate:"required,max=128"`
	FromLocationID            string           `json:"fromLocationId" validate:"required,max=128"`
	ToLocationID              string           `json:"toLocationId" validate:"required,max=128"`
	QuantityBefore            *int             `json:"quantityBefore" validate:"required"`
	QuantityMoved             *int             `json:"quantityMoved" validate:"required"`
	DestinationQuantityBefore *int             `json:"destinationQuantityBefore,omitempty"`
	UnitCost                  *decimal.Decimal `json:"unitCost,omitempty"`
	Reference                 string           `json:"reference,omitempty" validate:"max=255"`
	Notes                     string           `json:"notes,omitempty" validate:"max=2000"`
	RequiresApproval          *bool            `json:"requiresApproval,omitempty"`
}

// ToPorts converts the request into the service input
func (r *TransferRequest) ToPorts() ports.TransferRequest {
	return ports.TransferRequest{
		Grouping:                  r.toPorts(),
		ItemID:                    strings.TrimSpace(r.ItemID),
		FromLocationID:            strings.TrimSpace(r.FromLocationID),
		ToLocationID:              strings.TrimSpace(r.ToLocationID),
		QuantityBefore:            *r.QuantityBefore,
		QuantityMoved:             *r.QuantityMoved,
		DestinationQuantityBefore: r.DestinationQuantityBefore,
		UnitCost:                  r.UnitCost,
		Reference:                 r.Reference,
		Notes:                     r.Notes,
		RequiresApproval:          r.RequiresApproval,
	}
}

// CycleCountRequest represents the request body for a physical count
type CycleCountRequest struct {
	GroupingFields
	ItemID          string           `json:"itemId" validate:"required,max=128"`
	LocationID      string           `json:"locationId" validate:"required,max=128"`
	SystemQuantity  *int             `json:"systemQuantity" validate:"required"`
	CountedQuantity *int             `json:"countedQuantity" validate:"required"`
	UnitCost        *decimal.Decimal `json:"unitCost,omitempty"`
	Reference       string           `json:"reference,omitempty" validate:"max=255"`
	Notes           string           `json:"notes,omitempty" validate:"max=2000"`
}

// ToPorts converts the request into the service input
func (r *CycleCountRequest) ToPorts() ports.CycleCountRequest {
	return ports.CycleCountRequest{
		Grouping:        r.toPorts(),
		ItemID:          strings.TrimSpace(r.ItemID),
		LocationID:      strings.TrimSpace(r.LocationID),
		SystemQuantity:  *r.SystemQuantity,
		CountedQuantity: *r.CountedQuantity,
		UnitCost:        r.UnitCost,
		Reference:       r.Reference,
		Notes:           r.Notes,
	}
}

// ApproveRequest carries optional approver notes
type ApproveRequest struct {
	Notes string `json:"notes,omitempty" validate:"max=2000"`
}

// ReverseRequest carries the reason for a reversal
type ReverseRequest struct {
	Reason string `json:"reason" validate:"required,max=2000"`
}

// ExportRequest selects the records written to a workbook
type ExportRequest struct {
	SessionID *uuid.UUID `json:"sessionId,omitempty"`
	BatchID   *uuid.UUID `json:"batchId,omitempty"`
	Since     *time.Time `json:"since,omitempty"`
	Until     *time.Time `json:"until,omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// toValidationError turns validator output into the ledger's validation
// error so both report the same shape
func toValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return domain.NewValidationError(msgs...)
}
