package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads configuration from a YAML file at the specified path.
// It applies default values, validates the configuration, and returns any errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML and applies defaults without validating.
func Parse(data []byte) (*Config, error) {
	cfg := newConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables always take
// precedence over file-based configuration.
//
// The loading sequence is:
// 1. Load YAML from file
// 2. Apply default values
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// ApplyEnvOverrides applies SATURN_SECTION_FIELD environment variables to cfg.
// Values that fail to parse are ignored.
func ApplyEnvOverrides(cfg *Config) {
	// Server overrides
	envString("SATURN_SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	envDuration("SATURN_SERVER_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("SATURN_SERVER_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("SATURN_SERVER_IDLE_TIMEOUT", &cfg.Server.IdleTimeout)
	envDuration("SATURN_SERVER_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	if val := os.Getenv("SATURN_SERVER_MAX_BODY_BYTES"); val != "" {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = i
		}
	}

	// Provider overrides
	envString("SATURN_PROVIDER_TYPE", &cfg.Provider.Type)
	envString("SATURN_PROVIDER_REGION", &cfg.Provider.Region)
	envString("SATURN_PROVIDER_PROFILE", &cfg.Provider.Profile)
	envString("SATURN_PROVIDER_METRIC", &cfg.Provider.Metric)
	envDuration("SATURN_PROVIDER_TIMEOUT", &cfg.Provider.Timeout)
	envDuration("SATURN_PROVIDER_RETRY_DELAY", &cfg.Provider.RetryDelay)
	if val := os.Getenv("SATURN_PROVIDER_TAG_KEYS"); val != "" {
		cfg.Provider.TagKeys = splitList(val)
	}

	// Cache overrides
	envDuration("SATURN_CACHE_TTL", &cfg.Cache.TTL)

	// Budget overrides
	envString("SATURN_BUDGETS_BACKEND", &cfg.Budgets.Backend)
	envString("SATURN_BUDGETS_SQLITE_PATH", &cfg.Budgets.SQLitePath)
	envString("SATURN_BUDGETS_DEFAULT_CURRENCY", &cfg.Budgets.DefaultCurrency)
	envString("SATURN_BUDGETS_DEFAULT_PERIOD", &cfg.Budgets.DefaultPeriod)
	if val := os.Getenv("SATURN_BUDGETS_DEFAULT_THRESHOLDS"); val != "" {
		var thresholds []float64
		for _, part := range splitList(val) {
			f, err := strconv.ParseFloat(part, 64)
			if err != nil {
				thresholds = nil
				break
			}
			thresholds = append(thresholds, f)
		}
		if len(thresholds) > 0 {
			cfg.Budgets.DefaultThresholds = thresholds
		}
	}

	// Share overrides
	envFloat("SATURN_SHARES_DEFAULT_EXPIRATION_HOURS", &cfg.Shares.DefaultExpirationHours)
	envFloat("SATURN_SHARES_MAX_EXPIRATION_HOURS", &cfg.Shares.MaxExpirationHours)
	envString("SATURN_SHARES_CLEANUP_SCHEDULE", &cfg.Shares.CleanupSchedule)

	// Import overrides
	envBool("SATURN_IMPORT_ENABLED", &cfg.Import.Enabled)
	envString("SATURN_IMPORT_WATCH_DIR", &cfg.Import.WatchDir)
	envString("SATURN_IMPORT_ACCOUNT_ID", &cfg.Import.AccountID)
	envDuration("SATURN_IMPORT_DEBOUNCE_INTERVAL", &cfg.Import.DebounceInterval)

	// Telemetry overrides
	envString("SATURN_TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("SATURN_TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("SATURN_TELEMETRY_LOGGING_ADD_SOURCE", &cfg.Telemetry.Logging.AddSource)
	envBool("SATURN_TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("SATURN_TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envString("SATURN_TELEMETRY_METRICS_NAMESPACE", &cfg.Telemetry.Metrics.Namespace)
	envBool("SATURN_TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("SATURN_TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
}

func envString(key string, dst *string) {
	if val := os.Getenv(key); val != "" {
		*dst = val
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
