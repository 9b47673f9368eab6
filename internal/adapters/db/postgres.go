// internal/adapters/db/postgres.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"

	"github.com/ammerola/stockledger/internal/core/ports"
)

// Config describes how to reach the ledger database and size its pool
type Config struct {
	Host               string
	Port               string
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	EnableQueryLogging bool
}

// DefaultConfig points at the local development database
func DefaultConfig() *Config {
	return &Config{
		Host:              "localhost",
		Port:              "5432",
		User:              "stockledger",
		Password:          "stockledger_dev",
		Database:          "stockledger",
		SSLMode:           "disable",
		MaxConnections:    20,
		MinConnections:    2,
		MaxConnLifetime:   time.Hour,
		MaxConnIdleTime:   30 * time.Minute,
		HealthCheckPeriod: time.Minute,
		ConnectTimeout:    10 * time.Second,
	}
}

// URL renders the config as a postgresql:// URL. Both the pool and the
// migrator accept this form.
func (c *Config) URL() string {
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if q.Get("sslmode") == "" {
		q.Set("sslmode", "disable")
	}
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(c.ConnectTimeout.Seconds())))
	}
	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// Database owns the pgx pool the ledger gateway commits through
type Database struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

var _ ports.Database = (*Database)(nil)

// NewDatabase opens the pool and verifies it can reach the server
func NewDatabase(ctx context.Context, cfg *Config, logger *slog.Logger) (*Database, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	pc, err := pgxpool.ParseConfig(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("invalid database config: %w", err)
	}
	pc.MaxConns = cfg.MaxConnections
	pc.MinConns = cfg.MinConnections
	pc.MaxConnLifetime = cfg.MaxConnLifetime
	pc.MaxConnIdleTime = cfg.MaxConnIdleTime
	pc.HealthCheckPeriod = cfg.HealthCheckPeriod
	pc.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
	if cfg.EnableQueryLogging {
		pc.ConnConfig.Tracer = &tracelog.TraceLog{
			Logger:   queryLogger(logger.With(slog.String("component", "pgx"))),
			LogLevel: tracelog.LogLevelDebug,
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("ledger database connected",
		slog.String("host", cfg.Host),
		slog.String("database", cfg.Database),
		slog.Int("max_connections", int(cfg.MaxConnections)))

	return &Database{pool: pool, logger: logger}, nil
}

// queryLogger forwards pgx trace events to slog at the matching level
func queryLogger(logger *slog.Logger) tracelog.LoggerFunc {
	levels := map[tracelog.LogLevel]slog.Level{
		tracelog.LogLevelError: slog.LevelError,
		tracelog.LogLevelWarn:  slog.LevelWarn,
		tracelog.LogLevelInfo:  slog.LevelInfo,
	}
	return func(ctx context.Context, level tracelog.LogLevel, msg string, data map[string]any) {
		lvl, ok := levels[level]
		if !ok {
			lvl = slog.LevelDebug
		}
		args := make([]any, 0, len(data)*2)
		for k, v := range data {
			args = append(args, k, v)
		}
		logger.Log(ctx, lvl, msg, args...)
	}
}

// Pool exposes the pool for read queries and test fixtures
func (db *Database) Pool() *pgxpool.Pool {
	return db.pool
}

func (db *Database) Close() {
	db.pool.Close()
	db.logger.Info("ledger database closed")
}

func (db *Database) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// Health reports pool usage and the applied schema version
func (db *Database) Health(ctx context.Context) map[string]interface{} {
	stats := db.pool.Stat()
	report := map[string]interface{}{
		"status":               "healthy",
		"acquired_connections": stats.AcquiredConns(),
		"idle_connections":     stats.IdleConns(),
		"max_connections":      stats.MaxConns(),
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	var (
		version int64
		dirty   bool
	)
	err := db.pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		report["schema_version"] = "none"
	case err != nil:
		report["status"] = "unhealthy"
		report["error"] = err.Error()
	default:
		report["schema_version"] = version
		report["schema_dirty"] = dirty
	}
	return report
}

// Transaction runs fn in a read-committed transaction. Serialization
// failures and deadlocks are retried once with a fresh transaction.
func (db *Database) Transaction(ctx context.Context, fn func(pgx.Tx) error) error {
	err := pgx.BeginTxFunc(ctx, db.pool, pgx.TxOptions{}, fn)
	if isRetryable(err) {
		db.logger.WarnContext(ctx, "retrying ledger transaction", slog.String("error", err.Error()))
		err = pgx.BeginTxFunc(ctx, db.pool, pgx.TxOptions{}, fn)
	}
	return err
}

func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure, deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

// Listen holds a connection subscribed to channel until the caller
// releases it
func (db *Database) Listen(ctx context.Context, channel string) (*pgxpool.Conn, error) {
	conn, err := db.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire listener: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{channel}.Sanitize()); err != nil {
		conn.Release()
		return nil, fmt.Errorf("listen %s: %w", channel, err)
	}
	return conn, nil
}

// ScanMany collects every row through scanner and closes rows
func ScanMany[T any](rows pgx.Rows, scanner func(pgx.Rows) (*T, error)) ([]*T, error) {
	return pgx.CollectRows(rows, func(pgx.CollectableRow) (*T, error) {
		return scanner(rows)
	})
}
