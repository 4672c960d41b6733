package config

import "time"

// Default values for configuration fields.
const (
	// Server defaults
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultMaxBodyBytes    = int64(10 << 20)

	// Provider defaults
	DefaultProviderType       = ProviderNone
	DefaultProviderRegion     = "us-east-1"
	DefaultProviderMetric     = "UnblendedCost"
	DefaultProviderTimeout    = 30 * time.Second
	DefaultProviderRetryDelay = time.Second

	// Cache defaults
	DefaultCacheTTL = 5 * time.Minute

	// Budget defaults
	DefaultBudgetBackend    = BackendMemory
	DefaultBudgetSQLitePath = "data/budgets.db"
	DefaultBudgetCurrency   = "USD"
	DefaultBudgetPeriod     = "monthly"

	// Share defaults
	DefaultShareExpirationHours    = 24.0
	DefaultShareMaxExpirationHours = 720.0
	DefaultShareCleanupSchedule    = "@every 10m"

	// Import defaults
	DefaultImportAccountID        = "default"
	DefaultImportDebounceInterval = 250 * time.Millisecond

	// Telemetry defaults
	DefaultLoggingLevel     = "info"
	DefaultLoggingFormat    = "json"
	DefaultMetricsEnabled   = true
	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "saturn"
	DefaultTracingEndpoint  = "localhost:4317"
	DefaultTracingSampler   = "always"
	DefaultTracingRatio     = 1.0
	DefaultTracingService   = "saturn"
)

// Provider types.
const (
	ProviderNone = "none"
	ProviderAWS  = "aws"
)

// Budget storage backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// DefaultThresholds returns the default alert thresholds in percent.
func DefaultThresholds() []float64 {
	return []float64{50, 80, 100}
}

// ApplyDefaults fills zero-valued fields with defaults. Booleans that
// default to true are seeded by newConfig before decoding instead, so an
// explicit false in YAML is kept.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyProviderDefaults(&cfg.Provider)

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}

	applyBudgetDefaults(&cfg.Budgets)
	applyShareDefaults(&cfg.Shares)

	if cfg.Import.AccountID == "" {
		cfg.Import.AccountID = DefaultImportAccountID
	}
	if cfg.Import.DebounceInterval == 0 {
		cfg.Import.DebounceInterval = DefaultImportDebounceInterval
	}

	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

func applyProviderDefaults(cfg *ProviderConfig) {
	if cfg.Type == "" {
		cfg.Type = DefaultProviderType
	}
	if cfg.Region == "" {
		cfg.Region = DefaultProviderRegion
	}
	if cfg.Metric == "" {
		cfg.Metric = DefaultProviderMetric
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultProviderTimeout
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = DefaultProviderRetryDelay
	}
}

func applyBudgetDefaults(cfg *BudgetsConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultBudgetBackend
	}
	if cfg.SQLitePath == "" {
		cfg.SQLitePath = DefaultBudgetSQLitePath
	}
	if len(cfg.DefaultThresholds) == 0 {
		cfg.DefaultThresholds = DefaultThresholds()
	}
	if cfg.DefaultCurrency == "" {
		cfg.DefaultCurrency = DefaultBudgetCurrency
	}
	if cfg.DefaultPeriod == "" {
		cfg.DefaultPeriod = DefaultBudgetPeriod
	}
}

func applyShareDefaults(cfg *SharesConfig) {
	if cfg.DefaultExpirationHours == 0 {
		cfg.DefaultExpirationHours = DefaultShareExpirationHours
	}
	if cfg.MaxExpirationHours == 0 {
		cfg.MaxExpirationHours = DefaultShareMaxExpirationHours
	}
	if cfg.CleanupSchedule == "" {
		cfg.CleanupSchedule = DefaultShareCleanupSchedule
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}

	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingEndpoint
	}
	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingService
	}
}

// newConfig returns a Config with true-by-default booleans set.
func newConfig() Config {
	var cfg Config
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	return cfg
}

// Default returns a configuration built entirely from defaults.
func Default() *Config {
	cfg := newConfig()
	ApplyDefaults(&cfg)
	return &cfg
}
