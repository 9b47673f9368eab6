// internal/core/services/transfer.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// TransferCoordinator represents a movement between two locations as two
// linked records committed together
type TransferCoordinator struct {
	writer     *LedgerWriter
	aggregator *Aggregator
	gateway    ports.LedgerGateway
	logger     *slog.Logger
}

// NewTransferCoordinator creates a new transfer coordinator
func NewTransferCoordinator(writer *LedgerWriter, aggregator *Aggregator, gateway ports.LedgerGateway, logger *slog.Logger) *TransferCoordinator {
	return &TransferCoordinator{
		writer:     writer,
		aggregator: aggregator,
		gateway:    gateway,
		logger:     logger.With(slog.String("service", "transfer")),
	}
}

// NewTransferReference generates a transfer number
func NewTransferReference() string {
	return "TRF-" + strings.ToUpper(uuid.NewString()[:8])
}

// Legs builds the outgoing and incoming requests of a transfer. The
// returned reference is shared by both legs.
func (c *TransferCoordinator) Legs(actor domain.Actor, req ports.TransferRequest) (out, in domain.AdjustmentRequest, err error) {
	var errs []string
	if req.FromLocationID != "" && req.FromLocationID == req.ToLocationID {
		errs = append(errs, "source and destination locations must differ")
	}
	if req.ToLocationID == "" {
		errs = append(errs, "destination location id is required")
	}
	if req.QuantityMoved <= 0 {
		errs = append(errs, "quantity moved must be positive")
	}
	if req.QuantityMoved > req.QuantityBefore {
		errs = append(errs, "quantity moved exceeds quantity on hand")
	}
	if req.DestinationQuantityBefore != nil && *req.DestinationQuantityBefore < 0 {
		errs = append(errs, "destination quantity before cannot be negative")
	}
	if len(errs) > 0 {
		return out, in, domain.NewValidationError(errs...)
	}

	reference := req.Reference
	if reference == "" {
		reference = NewTransferReference()
	}

	destBefore := 0
	if req.DestinationQuantityBefore != nil {
		destBefore = *req.DestinationQuantityBefore
	}

	base := domain.AdjustmentRequest{
		StoreID:          actor.StoreID,
		ItemID:           req.ItemID,
		Type:             domain.TypeTransfer,
		UnitCost:         req.UnitCost,
		SessionID:        req.SessionID,
		BatchID:          req.BatchID,
		Reference:        reference,
		Notes:            req.Notes,
		RequiresApproval: req.RequiresApproval,
	}.WithActor(actor)

	out = base
	out.LocationID = req.FromLocationID
	out.QuantityBefore = req.QuantityBefore
	out.QuantityAfter = req.QuantityBefore - req.QuantityMoved
	out.Reason = domain.ReasonTransferOut

	in = base
	in.LocationID = req.ToLocationID
	in.QuantityBefore = destBefore
	in.QuantityAfter = destBefore + req.QuantityMoved
	in.Reason = domain.ReasonTransferIn

	return out, in, nil
}

// RecordTransfer commits both legs and their rollup increments in one
// commit, so either both records exist or neither does
func (c *TransferCoordinator) RecordTransfer(ctx context.Context, out, in domain.AdjustmentRequest, requiresApproval bool) (*ports.TransferResult, error) {
	outgoing := c.writer.BuildRecord(out, requiresApproval)
	incoming := c.writer.BuildRecord(in, requiresApproval)

	records := []*domain.AdjustmentRecord{outgoing, incoming}
	if err := c.writer.CommitRecords(ctx, records, c.aggregator.Contributions(records...)...); err != nil {
		return nil, fmt.Errorf("failed to record transfer %s: %w", out.Reference, err)
	}

	c.logger.InfoContext(ctx, "transfer recorded",
		slog.String("reference", out.Reference),
		slog.String("item_id", out.ItemID),
		slog.String("from", out.LocationID),
		slog.String("to", in.LocationID),
		slog.Int("quantity", incoming.QuantityChange))

	return &ports.TransferResult{
		Reference: out.Reference,
		Outgoing:  outgoing,
		Incoming:  incoming,
	}, nil
}

// VerifyTransfer checks that exactly two transfer legs with opposite changes
// share the reference
func (c *TransferCoordinator) VerifyTransfer(ctx context.Context, storeID, reference string) (*ports.TransferCheck, error) {
	legs, err := c.gateway.ListRecords(ctx, ports.RecordQuery{
		StoreID:   storeID,
		Reference: reference,
		Type:      domain.TypeTransfer,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load transfer legs: %w", err)
	}

	check := &ports.TransferCheck{Reference: reference, Legs: legs}
	if len(legs) == 2 {
		check.Balanced = legs[0].QuantityChange+legs[1].QuantityChange == 0 &&
			legs[0].LocationID != legs[1].LocationID
	}
	return check, nil
}
