package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/stockledger/internal/pkg/config"
	"github.com/ammerola/stockledger/test/helpers"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	cfg, err := config.Load(helpers.TestLogger())
	require.NoError(t, err)

	assert.Equal(t, "stockledger", cfg.App.Name)
	assert.Equal(t, "localhost:6379", cfg.Asynq.RedisAddr)
	assert.Equal(t, map[string]int{"critical": 6, "default": 3, "low": 1}, cfg.Asynq.Queues)
	assert.Equal(t, 30*time.Second, cfg.Ledger.SummaryCacheTTL)
	assert.Equal(t, 12*time.Hour, cfg.Ledger.StaleSessionAge)

	th := cfg.Ledger.Thresholds()
	assert.Equal(t, 100, th.LargeQuantity)
	assert.Equal(t, 10, th.StaffQuantity)
	assert.True(t, th.HighValue.Equal(decimal.NewFromInt(1000)))
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("LEDGER_LARGE_QUANTITY_THRESHOLD", "250")
	t.Setenv("LEDGER_HIGH_VALUE_THRESHOLD", "2500.50")
	t.Setenv("LEDGER_SUMMARY_CACHE_TTL", "5s")
	t.Setenv("ASYNQ_QUEUES", "critical:10, low:2, broken")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := config.Load(helpers.TestLogger())
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Ledger.LargeQuantityThreshold)
	assert.Equal(t, "2500.5", cfg.Ledger.HighValueThreshold.String())
	assert.Equal(t, 5*time.Second, cfg.Ledger.SummaryCacheTTL)
	assert.Equal(t, map[string]int{"critical": 10, "low": 2}, cfg.Asynq.Queues)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Security.AllowedOrigins)
}

func TestLoad_InvalidThreshold(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("LEDGER_HIGH_VALUE_THRESHOLD", "lots")

	_, err := config.Load(helpers.TestLogger())
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{
			name:   "test_config_is_valid",
			mutate: func(*config.Config) {},
		},
		{
			name:    "missing_database_host",
			mutate:  func(c *config.Config) { c.Database.Host = "" },
			wantErr: "Database.Host",
		},
		{
			name:    "placeholder_is_missing",
			mutate:  func(c *config.Config) { c.Database.Name = "MISSING_DB_NAME" },
			wantErr: "Database.Name",
		},
		{
			name:    "staff_limit_above_large_limit",
			mutate:  func(c *config.Config) { c.Ledger.StaffQuantityThreshold = 500 },
			wantErr: "staff_quantity_threshold",
		},
		{
			name:    "zero_high_value",
			mutate:  func(c *config.Config) { c.Ledger.HighValueThreshold = decimal.Zero },
			wantErr: "high_value_threshold",
		},
		{
			name:    "unknown_export_storage",
			mutate:  func(c *config.Config) { c.Ledger.ExportStorage = "ftp" },
			wantErr: "unknown ledger export storage",
		},
		{
			name: "production_rejects_wildcard_origin",
			mutate: func(c *config.Config) {
				c.App.Environment = "production"
				c.Database.SSLMode = "require"
				c.Security.SecureHeaders = true
			},
			wantErr: "wildcard origin",
		},
		{
			name: "production_accepts_locked_down_config",
			mutate: func(c *config.Config) {
				c.App.Environment = "production"
				c.Database.SSLMode = "require"
				c.Security.SecureHeaders = true
				c.Security.AllowedOrigins = []string{"https://ledger.example"}
				c.Ledger.ExportStorage = "s3"
				c.AWS.S3Bucket = "exports"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := helpers.LoadTestConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

type staticSecrets map[string]string

func (s staticSecrets) GetSecret(_ context.Context, key string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", errors.New("not found")
	}
	return v, nil
}

func (s staticSecrets) GetSecrets(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, k := range keys {
		if v, ok := s[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s staticSecrets) RefreshSecrets(context.Context) error { return nil }

func TestApplySecrets(t *testing.T) {
	cfg := helpers.LoadTestConfig()
	cfg.AWS.AccessKeyID = "from-env"

	err := config.ApplySecrets(context.Background(), cfg, staticSecrets{
		config.SecretDatabasePassword: "db-secret",
		config.SecretRedisPassword:    "redis-secret",
	})
	require.NoError(t, err)

	assert.Equal(t, "db-secret", cfg.Database.Password)
	assert.Equal(t, "redis-secret", cfg.Redis.Password)
	assert.Equal(t, "redis-secret", cfg.Asynq.RedisPassword)
	assert.Equal(t, "from-env", cfg.AWS.AccessKeyID)
}

func TestEnvSecretsManager(t *testing.T) {
	t.Setenv("DB_PASSWORD", "hunter2")
	sm := config.NewEnvSecretsManager()

	v, err := sm.GetSecret(context.Background(), "DB_PASSWORD")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", v)

	_, err = sm.GetSecret(context.Background(), "STOCKLEDGER_UNSET_SECRET")
	assert.Error(t, err)
}
