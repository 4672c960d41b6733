// Package report assembles aggregated cost reports from the cost provider
// or from uploaded CSV exports.
//
// Provider reads go through a credential validation gate and a read-through
// cache keyed by the query window. A cache hit skips the provider calls,
// normalization and aggregation entirely. Flush invalidates every window.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"mercator-hq/saturn/pkg/costs"
	"mercator-hq/saturn/pkg/costs/aggregate"
	"mercator-hq/saturn/pkg/costs/ingest"
	"mercator-hq/saturn/pkg/costs/provider"
	"mercator-hq/saturn/pkg/telemetry/metrics"
	"mercator-hq/saturn/pkg/telemetry/tracing"
	"mercator-hq/saturn/pkg/ttlcache"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	dateLayout      = "2006-01-02"
	cacheName       = "costs"
	defaultCacheKey = "costs:default"
)

var (
	// ErrNoProvider is returned by Validate when no cost provider is configured.
	ErrNoProvider = errors.New("no cost provider configured")

	// ErrInvalidWindow is returned for malformed or inverted query windows.
	ErrInvalidWindow = errors.New("invalid query window")
)

// Window is a [Start, End) date range in YYYY-MM-DD form. The zero Window
// selects the current month to date.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// IsZero reports whether no window was given.
func (w Window) IsZero() bool {
	return w.Start == "" && w.End == ""
}

// CostReport is an aggregated cost view.
type CostReport struct {
	Services    []costs.ServiceCost `json:"services"`
	TotalCost   float64             `json:"totalCost"`
	Currency    string              `json:"currency"`
	Period      Window              `json:"period"`
	LastUpdated time.Time           `json:"lastUpdated"`
	Source      ingest.Source       `json:"source"`
	Cached      bool                `json:"cached"`
}

// Options configures a Service.
type Options struct {
	// CacheTTL is how long provider reports are served from cache.
	CacheTTL time.Duration

	// Metric is the provider cost metric.
	Metric string

	// TagKeys lists tag keys for additional tag breakdown queries.
	TagKeys []string

	// RetryDelay is the wait before retrying a transient provider failure.
	RetryDelay time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Collector

	// Tracer records spans around report assembly and provider calls.
	// Defaults to a noop tracer.
	Tracer trace.Tracer

	// Now overrides the clock. Intended for tests.
	Now func() time.Time
}

// Service produces cost reports. It is safe for concurrent use.
type Service struct {
	client     provider.Client
	retrier    *provider.Retrier
	normalizer *ingest.Normalizer
	cache      *ttlcache.Cache[*CostReport]
	ttl        time.Duration
	metric     string
	tagKeys    []string
	now        func() time.Time
	logger     *slog.Logger
	metrics    *metrics.Collector
	tracer     trace.Tracer

	mu       sync.RWMutex
	identity *provider.Identity
	latest   *CostReport
}

// NewService creates a report service. client may be nil, in which case
// only CSV ingestion is available.
func NewService(client provider.Client, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}

	return &Service{
		client:     client,
		retrier:    provider.NewRetrier(opts.RetryDelay, logger, opts.Metrics),
		normalizer: ingest.NewNormalizer(logger, opts.Metrics),
		cache:      ttlcache.New[*CostReport](ttlcache.WithClock(now)),
		ttl:        opts.CacheTTL,
		metric:     opts.Metric,
		tagKeys:    lo.Uniq(opts.TagKeys),
		now:        now,
		logger:     logger.With("component", "costs.report"),
		metrics:    opts.Metrics,
		tracer:     tracer,
	}
}

// Validate checks the provider credentials and records the caller identity.
// Until it succeeds GetCostData fails with provider.ErrNotValidated.
func (s *Service) Validate(ctx context.Context) (*provider.Identity, error) {
	if s.client == nil {
		return nil, ErrNoProvider
	}

	ctx, span := s.tracer.Start(ctx, "costs.provider.GetCallerIdentity", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	id, err := provider.Do(ctx, s.retrier, "GetCallerIdentity", s.client.GetCallerIdentity)
	tracing.SetStatus(span, err)
	if err != nil {
		s.logger.Warn("credential validation failed", "error", err)
		return nil, err
	}

	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()

	s.logger.Info("credentials validated", "account_id", id.AccountID, "arn", id.ARN)
	return id, nil
}

// Identity returns the validated identity, or nil.
func (s *Service) Identity() *provider.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.identity
}

// GetCostData returns the aggregated report for window, from cache when
// a fresh entry exists.
func (s *Service) GetCostData(ctx context.Context, window Window) (report *CostReport, err error) {
	ctx, span := s.tracer.Start(ctx, "costs.report.GetCostData")
	defer func() {
		if report != nil {
			span.SetAttributes(
				attribute.Bool("saturn.cache_hit", report.Cached),
				attribute.Int("saturn.services", len(report.Services)),
			)
		}
		tracing.SetStatus(span, err)
		span.End()
	}()

	if s.Identity() == nil {
		return nil, provider.ErrNotValidated
	}

	key, window, err := s.resolveWindow(window)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("saturn.window.start", window.Start),
		attribute.String("saturn.window.end", window.End),
	)

	if cached, ok := s.cache.Get(key); ok {
		s.metrics.RecordCacheHit(cacheName)
		out := *cached
		out.Cached = true
		return &out, nil
	}
	s.metrics.RecordCacheMiss(cacheName)

	results, err := s.fetch(ctx, window)
	if err != nil {
		return nil, err
	}

	batch, err := s.normalizer.FromProvider(results)
	if err != nil && !errors.Is(err, ingest.ErrEmptySource) {
		return nil, err
	}

	report = s.build(batch, window, ingest.SourceProvider)
	s.cache.Set(key, report, s.ttl)
	s.metrics.UpdateCacheSize(cacheName, s.cache.Len())
	s.setLatest(report)

	s.logger.Debug("cost report assembled",
		"cache_key", key,
		"services", len(report.Services),
		"total_cost", report.TotalCost,
	)
	return report, nil
}

// IngestCSV parses and aggregates an uploaded CSV export. The result is not
// cached but becomes the latest report.
func (s *Service) IngestCSV(data []byte) (*CostReport, error) {
	batch, err := s.normalizer.FromCSV(data)
	if err != nil {
		return nil, err
	}

	report := s.build(batch, Window{}, ingest.SourceCSV)
	report.Period = dailyRange(report.Services)
	s.setLatest(report)

	s.logger.Info("csv cost data ingested",
		"layout", batch.Layout,
		"services", len(report.Services),
		"skipped", batch.Skipped,
	)
	return report, nil
}

// Latest returns the most recently assembled report from either source, or nil.
func (s *Service) Latest() *CostReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Flush invalidates every cached window.
func (s *Service) Flush() {
	n := s.cache.Len()
	s.cache.Flush()
	s.metrics.RecordCacheEvictions(cacheName, n)
	s.metrics.UpdateCacheSize(cacheName, 0)
	s.logger.Info("cost cache flushed", "entries", n)
}

// Sweep removes expired cache entries and returns how many were removed.
func (s *Service) Sweep() int {
	n := s.cache.Sweep()
	s.metrics.RecordCacheEvictions(cacheName, n)
	s.metrics.UpdateCacheSize(cacheName, s.cache.Len())
	return n
}

// CacheStats returns the cost cache statistics.
func (s *Service) CacheStats() ttlcache.Stats {
	return s.cache.Stats()
}

func (s *Service) setLatest(r *CostReport) {
	s.mu.Lock()
	s.latest = r
	s.mu.Unlock()
}

// resolveWindow validates window and returns its cache key. The zero window
// becomes the current month to date.
func (s *Service) resolveWindow(w Window) (string, Window, error) {
	if w.IsZero() {
		now := s.now().UTC()
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
		return defaultCacheKey, Window{Start: start.Format(dateLayout), End: end.Format(dateLayout)}, nil
	}

	start, err := time.Parse(dateLayout, w.Start)
	if err != nil {
		return "", w, fmt.Errorf("%w: start %q", ErrInvalidWindow, w.Start)
	}
	end, err := time.Parse(dateLayout, w.End)
	if err != nil {
		return "", w, fmt.Errorf("%w: end %q", ErrInvalidWindow, w.End)
	}
	if !end.After(start) {
		return "", w, fmt.Errorf("%w: end %s is not after start %s", ErrInvalidWindow, w.End, w.Start)
	}
	return fmt.Sprintf("costs:%s:%s", w.Start, w.End), w, nil
}

func (s *Service) fetch(ctx context.Context, w Window) (ingest.ProviderResults, error) {
	query := func(groupBy ...provider.GroupKey) provider.Query {
		return provider.Query{
			Start:       w.Start,
			End:         w.End,
			Granularity: provider.GranularityDaily,
			GroupBy:     groupBy,
			Metric:      s.metric,
		}
	}
	call := func(q provider.Query) (*provider.Result, error) {
		ctx, span := s.tracer.Start(ctx, "costs.provider.GetCostAndUsage",
			trace.WithSpanKind(trace.SpanKindClient),
			trace.WithAttributes(attribute.String("saturn.group_by", groupLabel(q.GroupBy))),
		)
		defer span.End()

		res, err := provider.Do(ctx, s.retrier, "GetCostAndUsage", func(ctx context.Context) (*provider.Result, error) {
			return s.client.GetCostAndUsage(ctx, q)
		})
		tracing.SetStatus(span, err)
		return res, err
	}
	serviceKey := provider.GroupKey{Type: provider.GroupTypeDimension, Key: provider.DimensionService}

	var results ingest.ProviderResults
	var err error

	if results.Services, err = call(query(serviceKey)); err != nil {
		return results, err
	}
	regionKey := provider.GroupKey{Type: provider.GroupTypeDimension, Key: provider.DimensionRegion}
	if results.Regions, err = call(query(regionKey, serviceKey)); err != nil {
		return results, err
	}

	if len(s.tagKeys) > 0 {
		results.Tags = make(map[string]*provider.Result, len(s.tagKeys))
		for _, key := range s.tagKeys {
			res, err := call(query(provider.GroupKey{Type: provider.GroupTypeTag, Key: key}, serviceKey))
			if err != nil {
				return results, err
			}
			results.Tags[key] = res
		}
	}

	return results, nil
}

// build aggregates a batch into a report. A nil batch yields an empty report.
func (s *Service) build(batch *ingest.Batch, w Window, source ingest.Source) *CostReport {
	report := &CostReport{
		Services:    []costs.ServiceCost{},
		Currency:    costs.DefaultCurrency,
		Period:      w,
		LastUpdated: s.now().UTC(),
		Source:      source,
	}
	if batch == nil {
		return report
	}

	report.Services = aggregate.Aggregate(batch)
	report.Currency = batch.Currency
	report.TotalCost = lo.SumBy(report.Services, func(svc costs.ServiceCost) float64 { return svc.TotalCost })
	return report
}

// dailyRange returns the span of the daily points across services, end exclusive.
func dailyRange(services []costs.ServiceCost) Window {
	var dates []string
	for _, svc := range services {
		for _, d := range svc.DailyCosts {
			dates = append(dates, d.Date)
		}
	}
	if len(dates) == 0 {
		return Window{}
	}
	sort.Strings(dates)

	w := Window{Start: dates[0], End: dates[len(dates)-1]}
	if last, err := time.Parse(dateLayout, w.End); err == nil {
		w.End = last.AddDate(0, 0, 1).Format(dateLayout)
	}
	return w
}

// groupLabel renders group keys as "TYPE:KEY" pairs joined by commas.
func groupLabel(keys []provider.GroupKey) string {
	return strings.Join(lo.Map(keys, func(k provider.GroupKey, _ int) string {
		return fmt.Sprintf("%s:%s", k.Type, k.Key)
	}), ",")
}
