package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. All validation errors are collected and
// returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateProvider(&cfg.Provider)...)

	if cfg.Cache.TTL <= 0 {
		errs = append(errs, FieldError{Field: "cache.ttl", Message: "cache TTL must be positive"})
	}

	errs = append(errs, validateBudgets(&cfg.Budgets)...)
	errs = append(errs, validateShares(&cfg.Shares)...)
	errs = append(errs, validateImport(&cfg.Import)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	} else if _, _, err := net.SplitHostPort(cfg.ListenAddress); err != nil {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: fmt.Sprintf("invalid listen address: %v", err),
		})
	}

	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be positive"})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "max body bytes must be non-negative"})
	}

	return errs
}

func validateProvider(cfg *ProviderConfig) []FieldError {
	var errs []FieldError

	switch cfg.Type {
	case ProviderNone:
	case ProviderAWS:
		if cfg.Region == "" {
			errs = append(errs, FieldError{
				Field:   "provider.region",
				Message: "region is required for the aws provider",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "provider.type",
			Message: fmt.Sprintf("invalid provider type %q (must be one of: none, aws)", cfg.Type),
		})
	}

	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "provider.timeout", Message: "timeout must be positive"})
	}
	if cfg.RetryDelay < 0 {
		errs = append(errs, FieldError{Field: "provider.retry_delay", Message: "retry delay must be non-negative"})
	}
	for i, key := range cfg.TagKeys {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("provider.tag_keys[%d]", i),
				Message: "tag key must not be empty",
			})
		}
	}

	return errs
}

func validateBudgets(cfg *BudgetsConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case BackendMemory:
	case BackendSQLite:
		if cfg.SQLitePath == "" {
			errs = append(errs, FieldError{
				Field:   "budgets.sqlite_path",
				Message: "sqlite path is required for the sqlite backend",
			})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "budgets.backend",
			Message: fmt.Sprintf("invalid backend %q (must be one of: memory, sqlite)", cfg.Backend),
		})
	}

	if err := ValidateThresholds(cfg.DefaultThresholds); err != nil {
		errs = append(errs, FieldError{Field: "budgets.default_thresholds", Message: err.Error()})
	}
	if len(cfg.DefaultCurrency) != 3 {
		errs = append(errs, FieldError{
			Field:   "budgets.default_currency",
			Message: "currency must be a 3-letter code",
		})
	}

	return errs
}

// ValidateThresholds checks that alert thresholds are positive and ascending.
func ValidateThresholds(thresholds []float64) error {
	if len(thresholds) == 0 {
		return fmt.Errorf("at least one threshold is required")
	}
	for i, t := range thresholds {
		if t <= 0 {
			return fmt.Errorf("threshold %d must be positive, got %g", i, t)
		}
		if i > 0 && t <= thresholds[i-1] {
			return fmt.Errorf("thresholds must be ascending, %g follows %g", t, thresholds[i-1])
		}
	}
	return nil
}

func validateShares(cfg *SharesConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxExpirationHours <= 0 {
		errs = append(errs, FieldError{
			Field:   "shares.max_expiration_hours",
			Message: "max expiration must be positive",
		})
	}
	if cfg.DefaultExpirationHours <= 0 || cfg.DefaultExpirationHours > cfg.MaxExpirationHours {
		errs = append(errs, FieldError{
			Field:   "shares.default_expiration_hours",
			Message: fmt.Sprintf("default expiration must be in (0, %g]", cfg.MaxExpirationHours),
		})
	}
	if _, err := cron.ParseStandard(cfg.CleanupSchedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "shares.cleanup_schedule",
			Message: fmt.Sprintf("invalid cron schedule: %v", err),
		})
	}

	return errs
}

func validateImport(cfg *ImportConfig) []FieldError {
	var errs []FieldError

	if cfg.Enabled && cfg.WatchDir == "" {
		errs = append(errs, FieldError{
			Field:   "import.watch_dir",
			Message: "watch directory is required when import is enabled",
		})
	}
	if cfg.DebounceInterval < 0 {
		errs = append(errs, FieldError{
			Field:   "import.debounce_interval",
			Message: "debounce interval must be non-negative",
		})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid log level %q (must be one of: debug, info, warn, error)", cfg.Logging.Level),
		})
	}

	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid log format %q (must be one of: json, text, console)", cfg.Logging.Format),
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "metrics path must start with /",
		})
	}

	if cfg.Tracing.Enabled {
		switch cfg.Tracing.Sampler {
		case "always", "never":
		case "ratio":
			if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
				errs = append(errs, FieldError{
					Field:   "telemetry.tracing.sample_ratio",
					Message: fmt.Sprintf("sample ratio must be between 0.0 and 1.0, got %g", cfg.Tracing.SampleRatio),
				})
			}
		default:
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (must be one of: always, never, ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
	}

	return errs
}
