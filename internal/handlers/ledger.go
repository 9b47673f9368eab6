// internal/handlers/ledger.go
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/handlers/middleware"
)

// LedgerHandler exposes the adjustment ledger over HTTP. Every route expects
// the caller identity placed on the context by middleware.Identity.
type LedgerHandler struct {
	service   ports.LedgerService
	validate  *validator.Validate
	heartbeat time.Duration
	logger    *slog.Logger
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(service ports.LedgerService, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		service:   service,
		validate:  newValidator(),
		heartbeat: 15 * time.Second,
		logger:    logger.With(slog.String("handler", "ledger")),
	}
}

// StartSession handles POST /api/v1/sessions
func (h *LedgerHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	session, err := h.service.StartAuditSession(r.Context(), actor)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to start audit session")
		return
	}

	h.logger.InfoContext(r.Context(), "audit session started",
		slog.String("session_id", session.ID.String()))
	h.respondJSON(w, http.StatusCreated, session)
}

// EndSession handles POST /api/v1/sessions/{id}/end
func (h *LedgerHandler) EndSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "Invalid session ID format")
	if !ok {
		return
	}

	session, err := h.service.EndAuditSession(r.Context(), actor, id)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to end audit session")
		return
	}
	h.respondJSON(w, http.StatusOK, session)
}

// GetSession handles GET /api/v1/sessions/{id}
func (h *LedgerHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "Invalid session ID format")
	if !ok {
		return
	}

	session, err := h.service.GetAuditSession(r.Context(), actor, id)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve audit session")
		return
	}
	h.respondJSON(w, http.StatusOK, session)
}

// StartBatch handles POST /api/v1/batches
func (h *LedgerHandler) StartBatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req StartBatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	batchReq, err := req.ToPorts()
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to start audit batch")
		return
	}

	batch, err := h.service.StartAuditBatch(r.Context(), actor, batchReq)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to start audit batch")
		return
	}
	h.respondJSON(w, http.StatusCreated, batch)
}

// CompleteBatch handles POST /api/v1/batches/{id}/complete
func (h *LedgerHandler) CompleteBatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "Invalid batch ID format")
	if !ok {
		return
	}

	var req CompleteBatchRequest
	if !h.decode(w, r, &req) {
		return
	}
	status, err := domain.ParseBatchStatus(req.Status)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to complete audit batch")
		return
	}

	batch, err := h.service.CompleteAuditBatch(r.Context(), actor, id, status)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to complete audit batch")
		return
	}
	h.respondJSON(w, http.StatusOK, batch)
}

// GetBatch handles GET /api/v1/batches/{id}
func (h *LedgerHandler) GetBatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, "Invalid batch ID format")
	if !ok {
		return
	}

	batch, err := h.service.GetAuditBatch(r.Context(), actor, id)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve audit batch")
		return
	}
	h.respondJSON(w, http.StatusOK, batch)
}

func (h *LedgerHandler) actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Missing caller identity")
	}
	return actor, ok
}

func (h *LedgerHandler) pathID(w http.ResponseWriter, r *http.Request, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, msg)
		return uuid.Nil, false
	}
	return id, true
}

// decode reads a JSON body into dst and runs its validation tags. An empty
// body is treated as an empty object.
func (h *LedgerHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if r.Body != nil && r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			h.respondError(w, http.StatusBadRequest, "Invalid request body")
			return false
		}
	}

	if err := h.validate.Struct(dst); err != nil {
		h.respondServiceError(w, r, toValidationError(err), "Invalid request")
		return false
	}
	return true
}

// respondServiceError maps ledger errors onto HTTP statuses. Anything not
// recognised is logged and reported as fallback.
func (h *LedgerHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		h.respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": ve.Errors,
		})
		return
	case isUnknownValue(err):
		h.respondJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":   "Validation failed",
			"details": []string{err.Error()},
		})
		return
	case errors.Is(err, domain.ErrRecordNotFound),
		errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrBatchNotFound):
		h.respondError(w, http.StatusNotFound, rootMessage(err))
		return
	case errors.Is(err, domain.ErrApprovalForbidden),
		errors.Is(err, domain.ErrSelfApproval),
		errors.Is(err, domain.ErrStoreMismatch),
		errors.Is(err, domain.ErrSessionOwnership):
		h.respondError(w, http.StatusForbidden, rootMessage(err))
		return
	case errors.Is(err, domain.ErrSessionAlreadyActive),
		errors.Is(err, domain.ErrSessionNotActive),
		errors.Is(err, domain.ErrBatchTerminal),
		errors.Is(err, domain.ErrInvalidBatchTransition),
		errors.Is(err, domain.ErrApprovalNotRequired),
		errors.Is(err, domain.ErrAlreadyApproved),
		errors.Is(err, domain.ErrAlreadyReversed),
		errors.Is(err, domain.ErrReversalOfReversal),
		errors.Is(err, domain.ErrConcurrentModification):
		h.respondError(w, http.StatusConflict, rootMessage(err))
		return
	}

	h.logger.ErrorContext(r.Context(), fallback, slog.String("error", err.Error()))
	h.respondError(w, http.StatusInternalServerError, fallback)
}

func isUnknownValue(err error) bool {
	return errors.Is(err, domain.ErrUnknownAdjustmentType) ||
		errors.Is(err, domain.ErrUnknownAdjustmentReason) ||
		errors.Is(err, domain.ErrUnknownBatchType) ||
		errors.Is(err, domain.ErrUnknownBatchStatus) ||
		errors.Is(err, domain.ErrUnknownUserRole)
}

// rootMessage hides wrapping context such as storage identifiers
func rootMessage(err error) string {
	for _, target := range []error{
		domain.ErrRecordNotFound, domain.ErrSessionNotFound, domain.ErrBatchNotFound,
		domain.ErrApprovalForbidden, domain.ErrSelfApproval, domain.ErrStoreMismatch,
		domain.ErrSessionOwnership, domain.ErrSessionAlreadyActive, domain.ErrSessionNotActive,
		domain.ErrBatchTerminal, domain.ErrInvalidBatchTransition, domain.ErrApprovalNotRequired,
		domain.ErrAlreadyApproved, domain.ErrAlreadyReversed, domain.ErrReversalOfReversal,
		domain.ErrConcurrentModification,
	} {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

func (h *LedgerHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response",
			slog.String("error", err.Error()))
	}
}

func (h *LedgerHandler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
