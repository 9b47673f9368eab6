// internal/pkg/config/validators.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// ErrMissingRequiredConfig marks a required setting that is empty or still
// a placeholder
var ErrMissingRequiredConfig = errors.New("missing required configuration")

// Validator checks one aspect of a loaded configuration
type Validator interface {
	Validate(cfg *Config) error
}

// BasicValidator performs basic configuration validation
type BasicValidator struct{}

// Validate performs basic validation
func (v *BasicValidator) Validate(cfg *Config) error {
	if err := validateRequiredFields(cfg); err != nil {
		return err
	}

	if cfg.Database.MaxConnections < cfg.Database.MinConnections {
		return fmt.Errorf("database max_connections must be >= min_connections")
	}

	if cfg.Redis.PoolSize <= 0 {
		return fmt.Errorf("redis pool_size must be positive")
	}

	if cfg.Security.RateLimitRequests < 0 {
		return fmt.Errorf("rate_limit_requests must not be negative")
	}

	return nil
}

// LedgerValidator checks approval thresholds and export settings
type LedgerValidator struct{}

// Validate performs ledger validation
func (v *LedgerValidator) Validate(cfg *Config) error {
	l := cfg.Ledger

	if l.LargeQuantityThreshold <= 0 {
		return fmt.Errorf("ledger large_quantity_threshold must be positive")
	}
	if l.StaffQuantityThreshold <= 0 || l.StaffQuantityThreshold > l.LargeQuantityThreshold {
		return fmt.Errorf("ledger staff_quantity_threshold must be between 1 and large_quantity_threshold")
	}
	if l.CountVarianceThreshold <= 0 {
		return fmt.Errorf("ledger count_variance_threshold must be positive")
	}
	if !l.HighValueThreshold.IsPositive() {
		return fmt.Errorf("ledger high_value_threshold must be positive")
	}
	if l.SummaryCacheTTL < 0 {
		return fmt.Errorf("ledger summary_cache_ttl must not be negative")
	}

	switch l.ExportStorage {
	case "", "s3":
		if l.ExportStorage == "s3" && cfg.AWS.S3Bucket == "" {
			return fmt.Errorf("%w: AWS.S3Bucket", ErrMissingRequiredConfig)
		}
	case "local":
		if l.ExportDir == "" {
			return fmt.Errorf("%w: Ledger.ExportDir", ErrMissingRequiredConfig)
		}
	default:
		return fmt.Errorf("unknown ledger export storage %q", l.ExportStorage)
	}

	return nil
}

// ProductionValidator performs strict validation for production environments
type ProductionValidator struct{}

// Validate performs production-specific validation
func (v *ProductionValidator) Validate(cfg *Config) error {
	if cfg.Database.Password == "" || strings.Contains(cfg.Database.Password, "MISSING_") {
		return fmt.Errorf("%w: database password", ErrMissingRequiredConfig)
	}

	if cfg.Database.SSLMode == "disable" {
		return fmt.Errorf("database SSL must be enabled in production")
	}

	if !cfg.Security.SecureHeaders {
		return fmt.Errorf("secure headers must be enabled in production")
	}

	if len(cfg.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("allowed origins must be configured in production")
	}
	for _, origin := range cfg.Security.AllowedOrigins {
		if origin == "*" {
			return fmt.Errorf("wildcard origin (*) not allowed in production")
		}
	}

	if cfg.Ledger.ExportStorage == "local" {
		return fmt.Errorf("local export storage is not allowed in production")
	}

	if cfg.Server.TLSEnabled {
		if cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "" {
			return fmt.Errorf("TLS cert and key files must be provided when TLS is enabled")
		}
	}

	return nil
}

// validateRequiredFields walks the struct and rejects zero fields tagged
// `required:"true"`
func validateRequiredFields(cfg interface{}) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() == reflect.Ptr {
		v = v.Elem()
	}

	return validateStruct(v, "")
}

func validateStruct(v reflect.Value, prefix string) error {
	t := v.Type()

	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		fieldName := fieldType.Name
		if prefix != "" {
			fieldName = prefix + "." + fieldName
		}

		if fieldType.Tag.Get("required") == "true" && isZeroValue(field) {
			return fmt.Errorf("%w: %s", ErrMissingRequiredConfig, fieldName)
		}

		// decimal.Decimal is a struct too, but carries no tags
		if field.Kind() == reflect.Struct && strings.HasPrefix(fieldType.Type.PkgPath(), "github.com/ammerola/stockledger") {
			if err := validateStruct(field, fieldName); err != nil {
				return err
			}
		}
	}

	return nil
}

func isZeroValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.String:
		return v.String() == "" || strings.HasPrefix(v.String(), "MISSING_")
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Slice, reflect.Map:
		return v.IsNil() || v.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return v.IsNil()
	default:
		return false
	}
}
