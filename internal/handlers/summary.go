// internal/handlers/summary.go
package handlers

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// GetSummary handles GET /api/v1/summary
func (h *LedgerHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	q, err := parseSummaryQuery(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	summary, err := h.service.GetSummary(r.Context(), actor, q)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to load summary")
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	h.respondJSON(w, http.StatusOK, summary)
}

// StreamSummary handles GET /api/v1/summary/stream. It writes one
// server-sent "summary" event per update until the client goes away.
func (h *LedgerHandler) StreamSummary(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	q, err := parseSummaryQuery(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.respondError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	ctx := r.Context()
	updates, err := h.service.WatchSummary(ctx, actor, q)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to watch summary")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case update, open := <-updates:
			if !open {
				return
			}
			if err := writeSummaryEvent(w, update); err != nil {
				h.logger.WarnContext(ctx, "summary stream write failed",
					slog.String("error", err.Error()))
				return
			}
			flusher.Flush()
		}
	}
}

func writeSummaryEvent(w http.ResponseWriter, update ports.SummaryUpdate) error {
	event, payload := "summary", interface{}(update.Summary)
	if update.Err != nil {
		event, payload = "error", map[string]string{"error": update.Err.Error()}
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}

// RequestExport handles POST /api/v1/exports. The workbook is built by the
// worker; the response carries the task ID to look it up.
func (h *LedgerHandler) RequestExport(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req ExportRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.Since != nil && req.Until != nil && !req.Until.After(*req.Since) {
		h.respondError(w, http.StatusBadRequest, "until must be after since")
		return
	}

	taskID, err := h.service.RequestExport(r.Context(), actor, ports.ExportPayload{
		SessionID: req.SessionID,
		BatchID:   req.BatchID,
		Since:     req.Since,
		Until:     req.Until,
	})
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to queue export")
		return
	}

	h.respondJSON(w, http.StatusAccepted, map[string]string{
		"taskId": taskID,
		"status": "queued",
	})
}

func parseSummaryQuery(r *http.Request) (ports.SummaryQuery, error) {
	query := r.URL.Query()

	var (
		q   ports.SummaryQuery
		err error
	)
	if q.SessionID, err = parseOptionalUUID(query.Get("sessionId"), "sessionId"); err != nil {
		return q, err
	}
	if q.BatchID, err = parseOptionalUUID(query.Get("batchId"), "batchId"); err != nil {
		return q, err
	}
	if v := query.Get("recent"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			return q, fmt.Errorf("invalid recent: expected 0-100")
		}
		q.RecentLimit = n
	}
	return q, nil
}
