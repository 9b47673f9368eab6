// internal/core/services/adjustments.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/policy"
	"github.com/ammerola/stockledger/internal/core/ports"
)

// RecordAdjustment validates a request, decides whether it needs approval
// and commits the record with its session and batch increments
func (s *LedgerService) RecordAdjustment(ctx context.Context, actor domain.Actor, req domain.AdjustmentRequest) (*domain.AdjustmentRecord, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	req = req.WithActor(actor)

	if err := s.validate(ctx, actor, req); err != nil {
		return nil, err
	}

	suggested := s.policy.RequiresApproval(req.QuantityChange(), req.Reason, req.UserRole, req.UnitCost)
	return s.commitRecord(ctx, req, s.decideApproval(actor, req.RequiresApproval, suggested))
}

func (s *LedgerService) validate(ctx context.Context, actor domain.Actor, req domain.AdjustmentRequest) error {
	res := policy.ValidateAdjustmentRequest(req)
	if req.StoreID != "" && req.StoreID != actor.StoreID {
		res.IsValid = false
		res.Errors = append(res.Errors, "store id does not match the caller's store")
	}
	if !res.IsValid {
		if req.BatchID != nil {
			s.noteBatchError(ctx, actor, *req.BatchID)
		}
		return res.Err()
	}
	return s.checkGrouping(ctx, actor, req.SessionID, req.BatchID)
}

// checkGrouping rejects adjustments against closed sessions, sessions of
// other users and terminal batches. The gateway enforces the same rules
// atomically; this gives callers the precise error up front.
func (s *LedgerService) checkGrouping(ctx context.Context, actor domain.Actor, sessionID, batchID *uuid.UUID) error {
	if sessionID != nil {
		session, err := s.loadSession(ctx, actor, *sessionID)
		if err != nil {
			return err
		}
		if !session.IsActive {
			return domain.ErrSessionNotActive
		}
		if !session.OwnedBy(actor) {
			return domain.ErrSessionOwnership
		}
	}
	if batchID != nil {
		batch, err := s.loadBatch(ctx, actor, *batchID)
		if err != nil {
			return err
		}
		if batch.Status.IsTerminal() {
			return domain.ErrBatchTerminal
		}
	}
	return nil
}

// decideApproval applies the caller override: anyone may escalate, only
// admins may waive a policy decision
func (s *LedgerService) decideApproval(actor domain.Actor, override *bool, suggested bool) bool {
	if override == nil {
		return suggested
	}
	if *override {
		return true
	}
	if actor.Role == domain.RoleAdmin {
		return false
	}
	return suggested
}

func (s *LedgerService) commitRecord(ctx context.Context, req domain.AdjustmentRequest, requiresApproval bool) (*domain.AdjustmentRecord, error) {
	record := s.writer.BuildRecord(req, requiresApproval)
	if err := s.writer.CommitRecords(ctx, []*domain.AdjustmentRecord{record}, s.aggregator.Contributions(record)...); err != nil {
		return nil, err
	}
	s.afterCommit(ctx, record)
	return record, nil
}

// afterCommit runs the best-effort side effects of new records
func (s *LedgerService) afterCommit(ctx context.Context, records ...*domain.AdjustmentRecord) {
	if len(records) == 0 {
		return
	}
	s.invalidateSummaries(ctx, records[0].StoreID)
	for _, r := range records {
		if r.RequiresApproval {
			s.enqueue(ctx, ports.TaskApprovalRequested, ports.ApprovalRequestedPayload{
				RecordID:  r.ID,
				StoreID:   r.StoreID,
				ItemID:    r.ItemID,
				UserID:    r.UserID,
				UserName:  r.UserName,
				Change:    r.QuantityChange,
				Reason:    string(r.Reason),
				CreatedAt: r.CreatedAt,
			})
		}
	}
}

// noteBatchError counts a rejected item against a batch of the actor's
// store. Unknown, foreign and terminal batches are left untouched.
func (s *LedgerService) noteBatchError(ctx context.Context, actor domain.Actor, batchID uuid.UUID) {
	batch, err := s.loadBatch(ctx, actor, batchID)
	if err != nil || batch.Status.IsTerminal() {
		return
	}
	if err := s.aggregator.RecordBatchError(ctx, batchID); err != nil {
		s.logger.WarnContext(ctx, "failed to count batch error",
			slog.String("batch_id", batchID.String()),
			slog.String("error", err.Error()))
	}
}

// RecordSale records stock leaving through a sale
func (s *LedgerService) RecordSale(ctx context.Context, actor domain.Actor, req ports.SaleRequest) (*domain.AdjustmentRecord, error) {
	return s.RecordAdjustment(ctx, actor, domain.AdjustmentRequest{
		ItemID:         req.ItemID,
		LocationID:     req.LocationID,
		QuantityBefore: req.QuantityBefore,
		QuantityAfter:  req.QuantityBefore - req.QuantitySold,
		Type:           domain.TypeSale,
		Reason:         domain.ReasonSale,
		UnitCost:       req.UnitCost,
		SessionID:      req.SessionID,
		BatchID:        req.BatchID,
		Reference:      req.OrderReference,
		Notes:          req.Notes,
	})
}

// RecordReceive records stock arriving from a supplier
func (s *LedgerService) RecordReceive(ctx context.Context, actor domain.Actor, req ports.ReceiveRequest) (*domain.AdjustmentRecord, error) {
	return s.RecordAdjustment(ctx, actor, domain.AdjustmentRequest{
		ItemID:         req.ItemID,
		LocationID:     req.LocationID,
		QuantityBefore: req.QuantityBefore,
		QuantityAfter:  req.QuantityBefore + req.QuantityReceived,
		Type:           domain.TypeReceive,
		Reason:         domain.ReasonPurchaseReceived,
		UnitCost:       req.UnitCost,
		SessionID:      req.SessionID,
		BatchID:        req.BatchID,
		Reference:      req.PurchaseOrder,
		Notes:          req.Notes,
	})
}

// RecordDamage writes off damaged, expired or lost stock
func (s *LedgerService) RecordDamage(ctx context.Context, actor domain.Actor, req ports.DamageRequest) (*domain.AdjustmentRecord, error) {
	reason := req.Reason
	if reason == "" {
		reason = domain.ReasonDamaged
	}
	return s.RecordAdjustment(ctx, actor, domain.AdjustmentRequest{
		ItemID:         req.ItemID,
		LocationID:     req.LocationID,
		QuantityBefore: req.QuantityBefore,
		QuantityAfter:  req.QuantityBefore - req.QuantityDamaged,
		Type:           domain.TypeDamage,
		Reason:         reason,
		UnitCost:       req.UnitCost,
		SessionID:      req.SessionID,
		BatchID:        req.BatchID,
		Notes:          req.Notes,
	})
}

// RecordTransfer moves stock between two locations. Both legs share one
// reference and are committed together.
func (s *LedgerService) RecordTransfer(ctx context.Context, actor domain.Actor, req ports.TransferRequest) (*ports.TransferResult, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	out, in, err := s.transfers.Legs(actor, req)
	if err != nil {
		if req.BatchID != nil {
			s.noteBatchError(ctx, actor, *req.BatchID)
		}
		return nil, err
	}

	for _, leg := range []domain.AdjustmentRequest{out, in} {
		if err := s.validate(ctx, actor, leg); err != nil {
			return nil, err
		}
	}

	// both legs carry the same decision, taken on the moved quantity
	suggested := s.policy.RequiresApproval(req.QuantityMoved, "", actor.Role, req.UnitCost)
	requiresApproval := s.decideApproval(actor, req.RequiresApproval, suggested)

	result, err := s.transfers.RecordTransfer(ctx, out, in, requiresApproval)
	if err != nil {
		return nil, err
	}
	s.afterCommit(ctx, result.Outgoing, result.Incoming)
	return result, nil
}

// CountReason maps a cycle-count variance to its reason code
func CountReason(variance int) domain.AdjustmentReason {
	switch {
	case variance < 0:
		return domain.ReasonShrinkage
	case variance > 0:
		return domain.ReasonFound
	}
	return domain.ReasonRecount
}

// RecordCycleCount records a physical count. The record requires approval
// when the general policy says so or when the variance exceeds the count
// review threshold. Zero-variance counts are recorded too.
func (s *LedgerService) RecordCycleCount(ctx context.Context, actor domain.Actor, req ports.CycleCountRequest) (*ports.CycleCountResult, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	variance := req.CountedQuantity - req.SystemQuantity
	adj := domain.AdjustmentRequest{
		ItemID:         req.ItemID,
		LocationID:     req.LocationID,
		QuantityBefore: req.SystemQuantity,
		QuantityAfter:  req.CountedQuantity,
		Type:           domain.TypeCount,
		Reason:         CountReason(variance),
		UnitCost:       req.UnitCost,
		SessionID:      req.SessionID,
		BatchID:        req.BatchID,
		Reference:      req.Reference,
		Notes:          req.Notes,
	}.WithActor(actor)

	if err := s.validate(ctx, actor, adj); err != nil {
		return nil, err
	}

	requiresApproval := s.policy.RequiresApproval(variance, adj.Reason, actor.Role, req.UnitCost) ||
		s.policy.CountNeedsReview(variance)

	record, err := s.commitRecord(ctx, adj, requiresApproval)
	if err != nil {
		return nil, err
	}
	return &ports.CycleCountResult{Record: record, Variance: variance}, nil
}

// ApproveAdjustment signs off a record that requires approval. The
// approver's role is checked here, self-approval is refused and a second
// approval fails instead of overwriting the first.
func (s *LedgerService) ApproveAdjustment(ctx context.Context, actor domain.Actor, recordID uuid.UUID, notes string) (*domain.AdjustmentRecord, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	record, err := s.loadRecord(ctx, actor, recordID)
	if err != nil {
		return nil, err
	}
	if record.IsReversed {
		return nil, domain.ErrAlreadyReversed
	}
	if !s.policy.CanApprove(actor.Role, record) {
		return nil, fmt.Errorf("%w: %s", domain.ErrApprovalForbidden, actor.Role)
	}
	if err := record.Approve(actor.UserID, notes, s.now().UTC()); err != nil {
		return nil, err
	}

	if err := s.gateway.Commit(ctx, ports.UpdateRecord{Record: record}); err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			return nil, fmt.Errorf("%w: record changed while approving", domain.ErrAlreadyApproved)
		}
		return nil, fmt.Errorf("failed to approve adjustment: %w", err)
	}

	s.logger.InfoContext(ctx, "adjustment approved",
		slog.String("record_id", record.ID.String()),
		slog.String("approved_by", record.ApprovedBy))

	s.invalidateSummaries(ctx, record.StoreID)
	return record, nil
}

// ReverseAdjustment rescinds a record by posting an inverse entry and
// flagging the original, in one commit
func (s *LedgerService) ReverseAdjustment(ctx context.Context, actor domain.Actor, recordID uuid.UUID, reason string) (*ports.ReversalResult, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}

	var errs []string
	if strings.TrimSpace(reason) == "" {
		errs = append(errs, "reversal reason is required")
	}
	if !policy.CanPerformAdjustment(actor.Role, domain.TypeReversal) {
		errs = append(errs, fmt.Sprintf("role %s is not permitted to perform %s adjustments", actor.Role, domain.TypeReversal))
	}
	if len(errs) > 0 {
		return nil, domain.NewValidationError(errs...)
	}

	original, err := s.loadRecord(ctx, actor, recordID)
	if err != nil {
		return nil, err
	}

	reversal := s.writer.BuildRecord(original.ReversalRequest(actor, reason), false)
	reversal.ReversesID = &original.ID
	reversal.RequiresApproval = s.policy.RequiresApproval(reversal.QuantityChange, reversal.Reason, actor.Role, reversal.UnitCost)

	if err := original.MarkReversed("REV-" + strings.ToUpper(reversal.ID.String()[:8])); err != nil {
		return nil, err
	}

	err = s.gateway.Commit(ctx,
		ports.InsertRecord{Record: reversal},
		ports.UpdateRecord{Record: original},
	)
	if err != nil {
		if errors.Is(err, domain.ErrConcurrentModification) {
			return nil, fmt.Errorf("%w: record changed while reversing", domain.ErrAlreadyReversed)
		}
		return nil, fmt.Errorf("failed to reverse adjustment: %w", err)
	}

	s.logger.InfoContext(ctx, "adjustment reversed",
		slog.String("record_id", original.ID.String()),
		slog.String("reversal_id", reversal.ID.String()),
		slog.String("reversal_reference", original.ReversalReference))

	s.afterCommit(ctx, reversal)
	return &ports.ReversalResult{Original: original, Reversal: reversal}, nil
}

// GetAdjustment returns a record of the actor's store
func (s *LedgerService) GetAdjustment(ctx context.Context, actor domain.Actor, recordID uuid.UUID) (*domain.AdjustmentRecord, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	return s.loadRecord(ctx, actor, recordID)
}

func (s *LedgerService) loadRecord(ctx context.Context, actor domain.Actor, id uuid.UUID) (*domain.AdjustmentRecord, error) {
	record, err := s.gateway.GetRecord(ctx, id)
	if err != nil {
		return nil, err
	}
	if record.StoreID != actor.StoreID {
		return nil, domain.ErrStoreMismatch
	}
	return record, nil
}

// ListAdjustments lists records of the actor's store, newest first
func (s *LedgerService) ListAdjustments(ctx context.Context, actor domain.Actor, q ports.RecordQuery) ([]*domain.AdjustmentRecord, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	q.StoreID = actor.StoreID
	records, err := s.gateway.ListRecords(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	return records, nil
}

// ListPendingApprovals lists records still waiting for sign-off
func (s *LedgerService) ListPendingApprovals(ctx context.Context, actor domain.Actor, limit int) ([]*domain.AdjustmentRecord, error) {
	return s.ListAdjustments(ctx, actor, ports.RecordQuery{PendingOnly: true, Limit: limit})
}

// VerifyTransfer reports whether both legs of a transfer exist and balance
func (s *LedgerService) VerifyTransfer(ctx context.Context, actor domain.Actor, reference string) (*ports.TransferCheck, error) {
	if err := checkActor(actor); err != nil {
		return nil, err
	}
	if reference == "" {
		return nil, domain.NewValidationError("transfer reference is required")
	}
	return s.transfers.VerifyTransfer(ctx, actor.StoreID, reference)
}

// RequestExport queues a workbook export of the actor's store records
func (s *LedgerService) RequestExport(ctx context.Context, actor domain.Actor, req ports.ExportPayload) (string, error) {
	if err := checkActor(actor); err != nil {
		return "", err
	}
	if s.tasks == nil {
		return "", fmt.Errorf("export queue is not configured")
	}
	req.StoreID = actor.StoreID
	req.RequestedBy = actor.UserID

	id, err := s.tasks.Enqueue(ctx, ports.TaskExport, req)
	if err != nil {
		return "", fmt.Errorf("failed to queue export: %w", err)
	}
	return id, nil
}
