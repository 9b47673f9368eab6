package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/pkg/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	return entry
}

func TestHandler_AddsContextFields(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(logger.NewHandler(&buf, &logger.LogConfig{Level: "info", Format: "json", ServiceName: "stockledger"}))

	sessionID := uuid.New()
	ctx := logger.WithValue(context.Background(), logger.ContextKeyStoreID, "store-123")
	ctx = logger.WithValue(ctx, logger.ContextKeySessionID, sessionID)
	ctx = logger.WithValue(ctx, logger.ContextKeyRequestID, "")

	log.InfoContext(ctx, "adjustment recorded", slog.Int("quantity_change", -5))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "adjustment recorded", entry["msg"])
	assert.Equal(t, "INFO", entry["severity"])
	assert.Equal(t, "store-123", entry["store_id"])
	assert.Equal(t, sessionID.String(), entry["audit_session_id"])
	assert.Equal(t, "stockledger", entry["service"])
	assert.NotContains(t, entry, "request_id")
}

func TestHandler_RedactsCredentials(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(logger.NewHandler(&buf, &logger.LogConfig{Level: "debug", Format: "json"}))

	log.Info("connecting postgresql://ledger:hunter2@db:5432/ledger",
		slog.String("db_password", "hunter2"),
		slog.String("detail", "token=abc123"))

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "abc123")
	assert.Contains(t, out, "***REDACTED***")
}

func TestHandler_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(logger.NewHandler(&buf, &logger.LogConfig{Level: "warn", Format: "json"}))

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyTextHandler(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(logger.NewHandler(&buf, &logger.LogConfig{Level: "debug", Format: "text"})).
		With(slog.String("component", "cache"))

	log.Debug("cache miss", slog.String("key", "ledger:summary:store-1"))

	line := buf.String()
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.Contains(t, line, "cache miss")
	assert.Contains(t, line, "component")
	assert.Contains(t, line, "ledger:summary:store-1")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, logger.ParseLevel(tt.in))
		})
	}
}
