// internal/handlers/export.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path"
	"sort"
	"strings"
	"time"

	redis_a "github.com/ammerola/stockledger/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger/internal/core/ports"
	"github.com/ammerola/stockledger/internal/handlers/middleware"
)

// ExportFile is one workbook written by the export worker
type ExportFile struct {
	Key       string    `json:"key"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExportHandler serves the ledger workbooks produced by the export worker.
// Workbooks are requested through LedgerHandler.RequestExport.
type ExportHandler struct {
	storage  ports.ObjectStorage
	cache    ports.CacheRepository
	prefix   string
	urlTTL   time.Duration
	cacheTTL time.Duration
	logger   *slog.Logger
}

// NewExportHandler creates a new export handler. cache may be nil.
func NewExportHandler(storage ports.ObjectStorage, cache ports.CacheRepository, prefix string, logger *slog.Logger) *ExportHandler {
	if prefix == "" {
		prefix = "exports"
	}
	return &ExportHandler{
		storage:  storage,
		cache:    cache,
		prefix:   strings.Trim(prefix, "/"),
		urlTTL:   15 * time.Minute,
		cacheTTL: time.Minute,
		logger:   logger.With(slog.String("handler", "export")),
	}
}

// ListExports handles GET /api/v1/exports. Newest workbooks come first.
func (h *ExportHandler) ListExports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, ok := middleware.ActorFromContext(ctx)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Missing caller identity")
		return
	}

	storePrefix := h.prefix + "/" + actor.StoreID + "/"

	var (
		files  []ExportFile
		cached bool
	)
	if h.cache != nil {
		load := func() (interface{}, error) { return h.listFiles(r, storePrefix) }
		err := h.cache.GetOrSet(ctx, redis_a.BuildKey(redis_a.PrefixExport, actor.StoreID), &files, load, h.cacheTTL)
		if err == nil {
			cached = true
		} else {
			h.logger.WarnContext(ctx, "export list cache unavailable", slog.String("error", err.Error()))
		}
	}
	if !cached {
		var err error
		if files, err = h.listFiles(r, storePrefix); err != nil {
			h.logger.ErrorContext(ctx, "failed to list exports", slog.String("error", err.Error()))
			h.respondError(w, http.StatusInternalServerError, "Failed to list exports")
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{
		"exports": files,
		"count":   len(files),
	}); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode exports", slog.String("error", err.Error()))
	}
}

func (h *ExportHandler) listFiles(r *http.Request, storePrefix string) ([]ExportFile, error) {
	ctx := r.Context()
	keys, err := h.storage.List(ctx, storePrefix)
	if err != nil {
		return nil, err
	}

	// keys start with a UTC timestamp, so lexical order is chronological
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))

	files := make([]ExportFile, 0, len(keys))
	expires := time.Now().Add(h.urlTTL).UTC()
	for _, key := range keys {
		if !strings.HasSuffix(key, ".xlsx") {
			continue
		}
		url, err := h.storage.GetPresignedURL(ctx, key, h.urlTTL)
		if err != nil {
			h.logger.WarnContext(ctx, "skipping export without url",
				slog.String("key", key),
				slog.String("error", err.Error()))
			continue
		}
		files = append(files, ExportFile{Key: key, Name: path.Base(key), URL: url, ExpiresAt: expires})
	}
	return files, nil
}

func (h *ExportHandler) respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
