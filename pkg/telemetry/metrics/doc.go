// Package metrics provides Prometheus metrics collection for Saturn.
//
// # Overview
//
// A single Collector owns a Prometheus registry and groups the metrics of
// every subsystem:
//
//   - Cache Metrics: hits, misses, entries and evictions per cache
//   - Ingestion Metrics: rows read and rows skipped per source
//   - Provider Metrics: cost API calls by operation and result, retries
//   - Budget Metrics: utilization percentage per service, alerts by severity
//   - Share Metrics: share reads by result, active share count
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	collector.RecordCacheHit("costs")
//	http.Handle("/metrics", collector.Handler())
//
// # Nil Collectors
//
// Every Record/Update method is safe to call on a nil *Collector, so
// components can be built without metrics in tests.
package metrics
