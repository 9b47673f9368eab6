// internal/handlers/adjustments.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
)

const maxListLimit = 500

// RecordAdjustment handles POST /api/v1/adjustments
func (h *LedgerHandler) RecordAdjustment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req RecordAdjustmentRequest
	if !h.decode(w, r, &req) {
		return
	}
	adj, err := req.ToDomain()
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to record adjustment")
		return
	}

	record, err := h.service.RecordAdjustment(r.Context(), actor, adj)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to record adjustment")
		return
	}
	h.respondRecorded(w, r, record)
}

// RecordSale handles POST /api/v1/adjustments/sale
func (h *LedgerHandler) RecordSale(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req SaleRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.service.RecordSale(r.Context(), actor, req.ToPorts())
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to record sale")
		return
	}
	h.respondRecorded(w, r, record)
}

// RecordReceive handles POST /api/v1/adjustments/receive
func (h *LedgerHandler) RecordReceive(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req ReceiveRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.service.RecordReceive(r.Context(), actor, req.ToPorts())
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to record receipt")
		return
	}
	h.respondRecorded(w, r, record)
}

// RecordDamage handles POST /api/v1/adjustments/damage
func (h *LedgerHandler) RecordDamage(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req DamageRequest
	if !h.decode(w, r, &req) {
		return
	}
	damage, err := req.ToPorts()
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to record damage")
		return
	}

	record, err := h.service.RecordDamage(r.Context(), actor, damage)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to record damage")
		return
	}
	h.respondRecorded(w, r, record)
}

// RecordTransfer handles POST /api/v1/adjustments/transfer
func (h *LedgerHandler) RecordTransfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req TransferRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.RecordTransfer(r.Context(), actor, req.ToPorts())
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to record transfer")
		return
	}

	h.logger.InfoContext(r.Context(), "transfer recorded",
		slog.String("reference", result.Reference),
		slog.String("item_id", req.ItemID))
	h.respondJSON(w, http.StatusCreated, result)
}

// RecordCycleCount handles POST /api/v1/adjustments/cycle-count
func (h *LedgerHandler) RecordCycleCount(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req CycleCountRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.RecordCycleCount(r.Context(), actor, req.ToPorts())
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to record cycle count")
		return
	}
	h.respondJSON(w, http.StatusCreated, result)
}

// ApproveAdjustment handles POST /api/v1/adjustments/{id}/approve
func (h *LedgerHandler) ApproveAdjustment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "Invalid adjustment ID format")
	if !ok {
		return
	}

	var req ApproveRequest
	if !h.decode(w, r, &req) {
		return
	}

	record, err := h.service.ApproveAdjustment(r.Context(), actor, id, req.Notes)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to approve adjustment")
		return
	}

	h.logger.InfoContext(r.Context(), "adjustment approved",
		slog.String("record_id", id.String()))
	h.respondJSON(w, http.StatusOK, record)
}

// ReverseAdjustment handles POST /api/v1/adjustments/{id}/reverse
func (h *LedgerHandler) ReverseAdjustment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "Invalid adjustment ID format")
	if !ok {
		return
	}

	var req ReverseRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.ReverseAdjustment(r.Context(), actor, id, req.Reason)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to reverse adjustment")
		return
	}

	h.logger.InfoContext(r.Context(), "adjustment reversed",
		slog.String("record_id", id.String()),
		slog.String("reversal_id", result.Reversal.ID.String()))
	h.respondJSON(w, http.StatusCreated, result)
}

// GetAdjustment handles GET /api/v1/adjustments/{id}
func (h *LedgerHandler) GetAdjustment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "Invalid adjustment ID format")
	if !ok {
		return
	}

	record, err := h.service.GetAdjustment(r.Context(), actor, id)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve adjustment")
		return
	}
	h.respondJSON(w, http.StatusOK, record)
}

// ListAdjustments handles GET /api/v1/adjustments
func (h *LedgerHandler) ListAdjustments(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	q, err := parseRecordQuery(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.service.ListAdjustments(r.Context(), actor, q)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to list adjustments")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// ListPendingApprovals handles GET /api/v1/approvals
func (h *LedgerHandler) ListPendingApprovals(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.service.ListPendingApprovals(r.Context(), actor, limit)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to list pending approvals")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// VerifyTransfer handles GET /api/v1/transfers/{reference}
func (h *LedgerHandler) VerifyTransfer(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	reference := r.PathValue("reference")
	if reference == "" {
		h.respondError(w, http.StatusBadRequest, "Transfer reference is required")
		return
	}

	check, err := h.service.VerifyTransfer(r.Context(), actor, reference)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to verify transfer")
		return
	}
	h.respondJSON(w, http.StatusOK, check)
}

// respondRecorded answers 202 when the record still awaits approval
func (h *LedgerHandler) respondRecorded(w http.ResponseWriter, r *http.Request, record *domain.AdjustmentRecord) {
	status := http.StatusCreated
	if record.RequiresApproval && record.ApprovedAt == nil {
		status = http.StatusAccepted
	}

	h.logger.InfoContext(r.Context(), "adjustment recorded",
		slog.String("record_id", record.ID.String()),
		slog.String("type", string(record.Type)),
		slog.Int("quantity_change", record.QuantityChange),
		slog.Bool("requires_approval", record.RequiresApproval))
	h.respondJSON(w, status, record)
}

func parseRecordQuery(r *http.Request) (ports.RecordQuery, error) {
	query := r.URL.Query()
	q := ports.RecordQuery{
		ItemID:      query.Get("itemId"),
		LocationID:  query.Get("locationId"),
		Reference:   query.Get("reference"),
		PendingOnly: query.Get("pending") == "true",
	}

	var err error
	if q.SessionID, err = parseOptionalUUID(query.Get("sessionId"), "sessionId"); err != nil {
		return q, err
	}
	if q.BatchID, err = parseOptionalUUID(query.Get("batchId"), "batchId"); err != nil {
		return q, err
	}
	if v := query.Get("type"); v != "" {
		if q.Type, err = domain.ParseAdjustmentType(v); err != nil {
			return q, err
		}
	}
	if q.Since, err = parseOptionalTime(query.Get("since"), "since"); err != nil {
		return q, err
	}
	if q.Until, err = parseOptionalTime(query.Get("until"), "until"); err != nil {
		return q, err
	}
	if q.Limit, err = parseLimit(query.Get("limit")); err != nil {
		return q, err
	}
	if q.Limit == 0 {
		q.Limit = 100
	}
	return q, nil
}

func parseOptionalUUID(v, name string) (*uuid.UUID, error) {
	if v == "" {
		return nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &id, nil
}

func parseOptionalTime(v, name string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: expected RFC3339", name)
	}
	return &t, nil
}

func parseLimit(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(v)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("invalid limit")
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}
