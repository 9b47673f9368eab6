// internal/adapters/db/migrations.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// MigrationConfig selects the database and bookkeeping table for the
// embedded ledger schema
type MigrationConfig struct {
	DatabaseURL      string
	TableName        string
	SchemaName       string
	ForceDirty       bool
	StatementTimeout time.Duration
}

func (c MigrationConfig) withDefaults() MigrationConfig {
	if c.TableName == "" {
		c.TableName = "schema_migrations"
	}
	if c.SchemaName == "" {
		c.SchemaName = "public"
	}
	if c.StatementTimeout == 0 {
		c.StatementTimeout = 5 * time.Minute
	}
	return c
}

// migrateUp brings the ledger schema to the latest embedded version over a
// short-lived database/sql connection
func migrateUp(ctx context.Context, cfg MigrationConfig, logger *slog.Logger) (err error) {
	conn, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	conn.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	driver, err := postgres.WithInstance(conn, &postgres.Config{
		MigrationsTable:  cfg.TableName,
		SchemaName:       cfg.SchemaName,
		StatementTimeout: cfg.StatementTimeout,
	})
	if err != nil {
		conn.Close()
		return fmt.Errorf("postgres migration driver: %w", err)
	}

	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		conn.Close()
		return fmt.Errorf("embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		conn.Close()
		return fmt.Errorf("migration instance: %w", err)
	}
	// Closing m also closes conn through the driver.
	defer func() {
		if srcErr, dbErr := m.Close(); err == nil && (srcErr != nil || dbErr != nil) {
			err = fmt.Errorf("close migrator: %w", errors.Join(srcErr, dbErr))
		}
	}()

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		if !cfg.ForceDirty {
			return backoff.Permanent(fmt.Errorf("ledger schema is dirty at version %d", version))
		}
		logger.WarnContext(ctx, "forcing dirty schema version", slog.Uint64("version", uint64(version)))
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("force version %d: %w", version, err)
		}
	}

	switch err := m.Up(); {
	case errors.Is(err, migrate.ErrNoChange):
		logger.InfoContext(ctx, "ledger schema up to date", slog.Uint64("version", uint64(version)))
		return nil
	case err != nil:
		return fmt.Errorf("apply migrations: %w", err)
	}

	if v, _, err := m.Version(); err == nil {
		logger.InfoContext(ctx, "ledger schema migrated",
			slog.Uint64("from", uint64(version)),
			slog.Uint64("to", uint64(v)))
	}
	return nil
}

// RunMigrationsWithRetry applies pending migrations, retrying with
// exponential backoff while the database comes up. A dirty schema is not
// retried.
func RunMigrationsWithRetry(ctx context.Context, config *MigrationConfig, logger *slog.Logger, maxRetries int) error {
	if config == nil {
		return fmt.Errorf("migration config is required")
	}
	cfg := config.withDefaults()
	logger = logger.With(slog.String("component", "migrator"))

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 10 * time.Second

	attempt := 0
	err := backoff.RetryNotify(
		func() error {
			attempt++
			return migrateUp(ctx, cfg, logger)
		},
		backoff.WithContext(backoff.WithMaxRetries(policy, uint64(max(maxRetries-1, 0))), ctx),
		func(err error, wait time.Duration) {
			logger.WarnContext(ctx, "migration attempt failed",
				slog.Int("attempt", attempt),
				slog.Duration("retry_in", wait),
				slog.String("error", err.Error()))
		},
	)
	if err != nil {
		return fmt.Errorf("migrations failed after %d attempts: %w", attempt, err)
	}
	return nil
}
