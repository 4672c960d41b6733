package config

import "time"

// Config is the root configuration structure for Saturn.
type Config struct {
	// Server contains HTTP API server configuration.
	Server ServerConfig `yaml:"server"`

	// Provider selects and configures the cloud cost API.
	Provider ProviderConfig `yaml:"provider"`

	// Cache configures the read-through cache in front of the provider.
	Cache CacheConfig `yaml:"cache"`

	// Budgets configures budget storage and threshold defaults.
	Budgets BudgetsConfig `yaml:"budgets"`

	// Shares configures shareable snapshot links.
	Shares SharesConfig `yaml:"shares"`

	// Import configures the CSV drop-directory watcher.
	Import ImportConfig `yaml:"import"`

	// Telemetry contains logging and metrics configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP API server.
type ServerConfig struct {
	// ListenAddress is the address and port to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the
	// response. It must exceed the provider timeout for uncached reads.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes caps request bodies, including CSV uploads.
	// Default: 10485760 (10MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// ProviderConfig contains configuration for the cost data provider.
type ProviderConfig struct {
	// Type selects the provider. Options: "none", "aws".
	// With "none" only CSV ingestion is available.
	// Default: "none"
	Type string `yaml:"type"`

	// Region is the API region. Required for "aws".
	// Default: "us-east-1"
	Region string `yaml:"region"`

	// Profile is an optional shared-credentials profile name.
	Profile string `yaml:"profile"`

	// Metric is the cost metric requested from the API.
	// Default: "UnblendedCost"
	Metric string `yaml:"metric"`

	// TagKeys lists cost allocation tag keys to break costs down by.
	TagKeys []string `yaml:"tag_keys"`

	// Timeout bounds a single provider call including pagination.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// RetryDelay is the wait before the single retry of a transient failure.
	// Default: 1s
	RetryDelay time.Duration `yaml:"retry_delay"`
}

// CacheConfig configures the cost data cache.
type CacheConfig struct {
	// TTL is how long fetched cost data is served from cache.
	// Default: 5m
	TTL time.Duration `yaml:"ttl"`
}

// BudgetsConfig configures budget storage and defaults.
type BudgetsConfig struct {
	// Backend selects budget storage. Options: "memory", "sqlite".
	// Default: "memory"
	Backend string `yaml:"backend"`

	// SQLitePath is the database file for the "sqlite" backend.
	// Default: "data/budgets.db"
	SQLitePath string `yaml:"sqlite_path"`

	// DefaultThresholds are used when a budget omits alert thresholds.
	// Default: [50, 80, 100]
	DefaultThresholds []float64 `yaml:"default_thresholds"`

	// DefaultCurrency is used when a budget omits its currency.
	// Default: "USD"
	DefaultCurrency string `yaml:"default_currency"`

	// DefaultPeriod is used when a budget omits its period.
	// Default: "monthly"
	DefaultPeriod string `yaml:"default_period"`
}

// SharesConfig configures shareable snapshot links.
type SharesConfig struct {
	// DefaultExpirationHours applies when a share omits its expiration.
	// Default: 24
	DefaultExpirationHours float64 `yaml:"default_expiration_hours"`

	// MaxExpirationHours caps requested expirations.
	// Default: 720
	MaxExpirationHours float64 `yaml:"max_expiration_hours"`

	// CleanupSchedule is the cron schedule for sweeping expired shares and
	// cache entries.
	// Default: "@every 10m"
	CleanupSchedule string `yaml:"cleanup_schedule"`
}

// ImportConfig configures the CSV drop-directory watcher.
type ImportConfig struct {
	// Enabled turns the watcher on.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// WatchDir is the directory scanned for new .csv files.
	WatchDir string `yaml:"watch_dir"`

	// AccountID is the account imported batches are evaluated against.
	// Default: "default"
	AccountID string `yaml:"account_id"`

	// DebounceInterval coalesces bursts of file events.
	// Default: 250ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains configuration for structured logging.
type LoggingConfig struct {
	// Level is the minimum log level. Options: "debug", "info", "warn", "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is the log output format. Options: "json", "text", "console".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource adds source file and line to log records.
	// Default: false
	AddSource bool `yaml:"add_source"`
}

// MetricsConfig contains configuration for Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics are recorded and exposed.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes every metric name.
	// Default: "saturn"
	Namespace string `yaml:"namespace"`
}

// TracingConfig contains configuration for OpenTelemetry tracing.
type TracingConfig struct {
	// Enabled controls whether spans are exported.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Sampler is the sampling strategy. Options: "always", "never", "ratio".
	// Default: "always"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces kept by the "ratio" sampler.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`

	// ServiceName is reported as the service.name resource attribute.
	// Default: "saturn"
	ServiceName string `yaml:"service_name"`
}
