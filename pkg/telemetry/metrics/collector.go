package metrics

import (
	"mercator-hq/saturn/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the orchestrator for all Prometheus metrics in Saturn.
// It manages metric registration and provides a unified interface for
// recording metrics across components.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	cacheEntries   *prometheus.GaugeVec
	cacheEvictions *prometheus.CounterVec

	ingestRows    *prometheus.CounterVec
	ingestSkipped *prometheus.CounterVec

	providerCalls   *prometheus.CounterVec
	providerRetries *prometheus.CounterVec

	budgetUtilization *prometheus.GaugeVec
	alertsTotal       *prometheus.CounterVec

	shareReads   *prometheus.CounterVec
	sharesActive prometheus.Gauge
}

// NewCollector creates a collector and registers its metrics. If registry
// is nil a fresh registry is created.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	if cfg == nil {
		cfg = &config.MetricsConfig{Enabled: true}
	}
	if cfg.Namespace == "" {
		cfg.Namespace = config.DefaultMetricsNamespace
	}
	ns := cfg.Namespace

	c := &Collector{
		config:   cfg,
		registry: registry,

		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "cache", Name: "hits_total",
			Help: "Total number of cache hits",
		}, []string{"cache"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "cache", Name: "misses_total",
			Help: "Total number of cache misses",
		}, []string{"cache"}),
		cacheEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: "cache", Name: "entries",
			Help: "Current number of entries in cache",
		}, []string{"cache"}),
		cacheEvictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "cache", Name: "evictions_total",
			Help: "Total number of cache evictions",
		}, []string{"cache"}),

		ingestRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "ingest", Name: "rows_total",
			Help: "Total number of rows or groups read by the normalizer",
		}, []string{"source"}),
		ingestSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "ingest", Name: "skipped_total",
			Help: "Total number of rows or groups skipped for invalid values",
		}, []string{"source"}),

		providerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "provider", Name: "calls_total",
			Help: "Total number of cost API calls",
		}, []string{"operation", "result"}),
		providerRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "provider", Name: "retries_total",
			Help: "Total number of retried cost API calls",
		}, []string{"operation"}),

		budgetUtilization: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: "budget", Name: "utilization_percentage",
			Help: "Last computed budget utilization percentage",
		}, []string{"account", "service"}),
		alertsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "budget", Name: "alerts_total",
			Help: "Total number of budget notifications generated",
		}, []string{"severity"}),

		shareReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: "share", Name: "reads_total",
			Help: "Total number of shared snapshot reads by result",
		}, []string{"result"}),
		sharesActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: "share", Name: "active",
			Help: "Number of share records currently held",
		}),
	}

	registry.MustRegister(
		c.cacheHits, c.cacheMisses, c.cacheEntries, c.cacheEvictions,
		c.ingestRows, c.ingestSkipped,
		c.providerCalls, c.providerRetries,
		c.budgetUtilization, c.alertsTotal,
		c.shareReads, c.sharesActive,
	)

	return c
}

func (c *Collector) enabled() bool {
	return c != nil && c.config.Enabled
}

// RecordCacheHit records a cache hit.
func (c *Collector) RecordCacheHit(cache string) {
	if !c.enabled() {
		return
	}
	c.cacheHits.WithLabelValues(cache).Inc()
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cache string) {
	if !c.enabled() {
		return
	}
	c.cacheMisses.WithLabelValues(cache).Inc()
}

// UpdateCacheSize sets the current number of entries of a cache.
func (c *Collector) UpdateCacheSize(cache string, size int) {
	if !c.enabled() {
		return
	}
	c.cacheEntries.WithLabelValues(cache).Set(float64(size))
}

// RecordCacheEvictions adds n evictions for a cache.
func (c *Collector) RecordCacheEvictions(cache string, n int) {
	if !c.enabled() || n <= 0 {
		return
	}
	c.cacheEvictions.WithLabelValues(cache).Add(float64(n))
}

// RecordIngest records the rows read and skipped by one normalization call.
func (c *Collector) RecordIngest(source string, rows, skipped int) {
	if !c.enabled() {
		return
	}
	c.ingestRows.WithLabelValues(source).Add(float64(rows))
	if skipped > 0 {
		c.ingestSkipped.WithLabelValues(source).Add(float64(skipped))
	}
}

// RecordProviderCall records a cost API call. result is "success" or an error kind.
func (c *Collector) RecordProviderCall(operation, result string) {
	if !c.enabled() {
		return
	}
	c.providerCalls.WithLabelValues(operation, result).Inc()
}

// RecordProviderRetry records that a cost API call is being retried.
func (c *Collector) RecordProviderRetry(operation string) {
	if !c.enabled() {
		return
	}
	c.providerRetries.WithLabelValues(operation).Inc()
}

// UpdateBudgetUtilization sets the utilization gauge for an account's service.
func (c *Collector) UpdateBudgetUtilization(account, service string, percentage float64) {
	if !c.enabled() {
		return
	}
	c.budgetUtilization.WithLabelValues(account, service).Set(percentage)
}

// RecordAlert records a generated budget notification.
func (c *Collector) RecordAlert(severity string) {
	if !c.enabled() {
		return
	}
	c.alertsTotal.WithLabelValues(severity).Inc()
}

// RecordShareRead records the outcome of a shared snapshot read.
func (c *Collector) RecordShareRead(result string) {
	if !c.enabled() {
		return
	}
	c.shareReads.WithLabelValues(result).Inc()
}

// UpdateActiveShares sets the number of held share records.
func (c *Collector) UpdateActiveShares(n int) {
	if !c.enabled() {
		return
	}
	c.sharesActive.Set(float64(n))
}

// Registry returns the Prometheus registry used by this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
