// internal/handlers/health.go
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/ammerola/stockledger/internal/adapters/db"
	"github.com/ammerola/stockledger/internal/adapters/queue"
	"github.com/ammerola/stockledger/internal/pkg/config"
)

// dependency is one backing service probed by the health endpoints.
// Required dependencies gate readiness.
type dependency struct {
	name     string
	required bool
	ping     func(ctx context.Context) error
	describe func(ctx context.Context, info *ServiceInfo)
}

// HealthHandler reports on the ledger's backing services. The database is
// nil when the service runs on the in-memory gateway.
type HealthHandler struct {
	deps      []dependency
	inMemory  bool
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. Any of database,
// redisClient and asynqInspector may be nil.
func NewHealthHandler(
	database *db.Database,
	redisClient *redis.Client,
	asynqInspector *asynq.Inspector,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	h := &HealthHandler{
		inMemory:  database == nil,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}

	if database != nil {
		h.deps = append(h.deps, dependency{
			name:     "database",
			required: true,
			ping:     database.Ping,
			describe: func(ctx context.Context, info *ServiceInfo) {
				for k, v := range database.Health(ctx) {
					info.Details[k] = v
				}
			},
		})
	}

	if redisClient != nil {
		h.deps = append(h.deps, dependency{
			name:     "redis",
			required: true,
			ping:     func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			describe: func(ctx context.Context, info *ServiceInfo) {
				if n, err := redisClient.DBSize(ctx).Result(); err == nil {
					info.Details["keys"] = n
				}
				stats := redisClient.PoolStats()
				info.Details["total_conns"] = stats.TotalConns
				info.Details["idle_conns"] = stats.IdleConns
			},
		})
	}

	if asynqInspector != nil {
		h.deps = append(h.deps, dependency{
			name: "asynq",
			ping: func(context.Context) error {
				_, err := asynqInspector.Queues()
				return err
			},
			describe: func(_ context.Context, info *ServiceInfo) {
				describeQueues(asynqInspector, info)
			},
		})
	}

	return h
}

// HealthStatus represents the health status of the application
type HealthStatus struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Services    map[string]ServiceInfo `json:"services"`
	System      SystemInfo             `json:"system"`
}

// ServiceInfo represents the status of a service dependency
type ServiceInfo struct {
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ResponseTime string                 `json:"response_time,omitempty"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo is a snapshot of the Go runtime
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	NumGC         uint32 `json:"num_gc"`
}

// Health handles GET /health. Every dependency is probed concurrently; any
// failure degrades the whole report.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		mu       sync.Mutex
		services = make(map[string]ServiceInfo, len(h.deps)+1)
	)
	if h.inMemory {
		services["database"] = ServiceInfo{Status: "healthy", Message: "in-memory ledger"}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, d := range h.deps {
		g.Go(func() error {
			info := h.probe(gctx, d)
			mu.Lock()
			services[d.name] = info
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	report := HealthStatus{
		Status:      "healthy",
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now(),
		Services:    services,
		System:      systemInfo(),
	}
	for _, info := range services {
		if info.Status != "healthy" {
			report.Status = "degraded"
		}
	}

	status := http.StatusOK
	if report.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	h.respond(ctx, w, status, report)
}

// Readiness handles GET /ready. Only required dependencies are pinged.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ready := true
	details := make(map[string]string)
	for _, d := range h.deps {
		if !d.required {
			continue
		}
		if err := d.ping(ctx); err != nil {
			ready = false
			details[d.name] = "not ready"
			continue
		}
		details[d.name] = "ready"
	}

	status := http.StatusOK
	if !ready {
		status = http.StatusServiceUnavailable
	}
	h.respond(ctx, w, status, map[string]interface{}{
		"ready":   ready,
		"details": details,
	})
}

func (h *HealthHandler) probe(ctx context.Context, d dependency) ServiceInfo {
	start := time.Now()
	info := ServiceInfo{Status: "healthy", Details: make(map[string]interface{})}

	if err := d.ping(ctx); err != nil {
		h.logger.ErrorContext(ctx, "health probe failed",
			slog.String("service", d.name),
			slog.String("error", err.Error()))
		info.Status = "unhealthy"
		info.Message = err.Error()
		return info
	}

	d.describe(ctx, &info)
	info.ResponseTime = time.Since(start).String()
	return info
}

// describeQueues reports the depth of the queues ledger tasks run on
func describeQueues(inspector *asynq.Inspector, info *ServiceInfo) {
	depth := make(map[string]interface{})
	for _, name := range []string{queue.QueueCritical, queue.QueueDefault, queue.QueueLow} {
		q, err := inspector.GetQueueInfo(name)
		if err != nil {
			continue
		}
		depth[name] = map[string]int{
			"pending":  q.Pending,
			"active":   q.Active,
			"retry":    q.Retry,
			"archived": q.Archived,
		}
	}
	info.Details["queues"] = depth

	if servers, err := inspector.Servers(); err == nil {
		info.Details["workers"] = len(servers)
	}
}

func systemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		MemoryAllocMB: m.Alloc / 1024 / 1024,
		NumGC:         m.NumGC,
	}
}

func (h *HealthHandler) respond(ctx context.Context, w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(ctx, "failed to encode health response",
			slog.String("error", err.Error()))
	}
}
