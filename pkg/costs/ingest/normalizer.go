package ingest

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"mercator-hq/saturn/pkg/costs"
	"mercator-hq/saturn/pkg/costs/provider"
	"mercator-hq/saturn/pkg/telemetry/metrics"
)

// Normalizer converts provider responses and CSV rows into a Batch.
// It holds no state between calls and is safe for concurrent use.
type Normalizer struct {
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewNormalizer creates a normalizer. Both arguments may be nil.
func NewNormalizer(logger *slog.Logger, collector *metrics.Collector) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		logger:  logger.With("component", "costs.ingest"),
		metrics: collector,
	}
}

// ProviderResults bundles the grouped responses of one provider fetch.
type ProviderResults struct {
	// Services is grouped by SERVICE.
	Services *provider.Result

	// Regions is grouped by REGION then SERVICE. Optional.
	Regions *provider.Result

	// Tags maps a tag key to a result grouped by that TAG then SERVICE. Optional.
	Tags map[string]*provider.Result
}

// FromProvider normalizes grouped provider results.
//
// Bucket start dates become daily observations. Groups with unparsable or
// missing amounts are skipped. Returns ErrEmptySource when the service
// result carries no groups at all.
func (n *Normalizer) FromProvider(results ProviderResults) (*Batch, error) {
	if results.Services == nil || countGroups(results.Services) == 0 {
		return nil, ErrEmptySource
	}

	acc := newAccumulator(SourceProvider)

	for _, bucket := range results.Services.Buckets {
		date := normalizeDate(bucket.Start)
		for _, g := range bucket.Groups {
			if len(g.Keys) < 1 {
				acc.skipped++
				continue
			}
			cost, ok := parseCost(g.Amount)
			if !ok {
				acc.skipped++
				continue
			}
			id := acc.addService(g.Keys[0], cost)
			if id == "" {
				acc.skipped++
				continue
			}
			acc.setCurrency(g.Unit)
			if date != "" {
				acc.daily = append(acc.daily, Observation{Service: id, Key: date, Cost: cost})
			}
		}
	}

	if results.Regions != nil {
		for _, bucket := range results.Regions.Buckets {
			for _, g := range bucket.Groups {
				if len(g.Keys) < 2 {
					continue
				}
				cost, ok := parseCost(g.Amount)
				if !ok {
					continue
				}
				acc.addRegion(g.Keys[1], g.Keys[0], cost)
			}
		}
	}

	tagKeys := make([]string, 0, len(results.Tags))
	for key := range results.Tags {
		tagKeys = append(tagKeys, key)
	}
	sort.Strings(tagKeys)
	for _, key := range tagKeys {
		res := results.Tags[key]
		if res == nil {
			continue
		}
		for _, bucket := range res.Buckets {
			for _, g := range bucket.Groups {
				if len(g.Keys) < 2 {
					continue
				}
				cost, ok := parseCost(g.Amount)
				if !ok {
					continue
				}
				acc.addTag(g.Keys[1], key, tagValue(g.Keys[0]), cost)
			}
		}
	}

	batch := acc.batch()
	n.record(batch, countGroups(results.Services))
	return batch, nil
}

func (n *Normalizer) record(batch *Batch, total int) {
	n.metrics.RecordIngest(string(batch.Source), total, batch.Skipped)
	n.logger.Debug("normalized cost source",
		"source", batch.Source,
		"layout", batch.Layout,
		"services", len(batch.Services),
		"skipped", batch.Skipped,
	)
}

func countGroups(r *provider.Result) int {
	total := 0
	for _, b := range r.Buckets {
		total += len(b.Groups)
	}
	return total
}

// tagValue strips the "key$" prefix the provider puts on tag group keys.
func tagValue(raw string) string {
	if i := strings.IndexByte(raw, '$'); i >= 0 {
		return raw[i+1:]
	}
	return raw
}

// accumulator collects per-service totals and observations in input order.
type accumulator struct {
	source   Source
	order    []string
	totals   map[string]float64
	names    map[string]string
	regional []Observation
	tags     []Observation
	daily    []Observation
	currency string
	skipped  int
}

func newAccumulator(source Source) *accumulator {
	return &accumulator{
		source: source,
		totals: make(map[string]float64),
		names:  make(map[string]string),
	}
}

// addService adds cost to a service's total and returns its identifier,
// or "" when the name normalizes to nothing.
func (a *accumulator) addService(name string, cost float64) string {
	display := strings.TrimSpace(name)
	id := costs.NormalizeService(display)
	if id == "" {
		return ""
	}
	if _, seen := a.names[id]; !seen {
		a.names[id] = display
		a.order = append(a.order, id)
	}
	a.totals[id] += cost
	return id
}

// addRegion records a regional observation unless the region is not a real
// region or the service is billed globally.
func (a *accumulator) addRegion(service, region string, cost float64) {
	if !costs.ValidRegion(region) || costs.IsGlobalService(service) {
		return
	}
	id := costs.NormalizeService(service)
	if id == "" {
		return
	}
	a.regional = append(a.regional, Observation{
		Service: id,
		Key:     strings.ToLower(strings.TrimSpace(region)),
		Cost:    cost,
	})
}

func (a *accumulator) addTag(service, key, value string, cost float64) {
	value = strings.TrimSpace(value)
	id := costs.NormalizeService(service)
	if id == "" || value == "" {
		return
	}
	a.tags = append(a.tags, Observation{Service: id, Key: key, Value: value, Cost: cost})
}

func (a *accumulator) setCurrency(unit string) {
	if a.currency == "" && strings.TrimSpace(unit) != "" {
		a.currency = strings.ToUpper(strings.TrimSpace(unit))
	}
}

// batch builds the final Batch, dropping services whose total is not positive.
func (a *accumulator) batch() *Batch {
	currency := a.currency
	if currency == "" {
		currency = costs.DefaultCurrency
	}

	services := make([]costs.ServiceCost, 0, len(a.order))
	for _, id := range a.order {
		total := a.totals[id]
		if total <= 0 {
			continue
		}
		services = append(services, costs.ServiceCost{
			Service:     id,
			DisplayName: a.names[id],
			TotalCost:   total,
			Currency:    currency,
			Regions:     []costs.RegionCost{},
			Tags:        []costs.TagCost{},
			DailyCosts:  []costs.DailyCost{},
			Trend:       costs.TrendStable,
		})
	}
	sort.SliceStable(services, func(i, j int) bool {
		return services[i].TotalCost > services[j].TotalCost
	})

	return &Batch{
		Services: services,
		Regional: a.regional,
		Tags:     a.tags,
		Daily:    a.daily,
		Currency: currency,
		Source:   a.source,
		Skipped:  a.skipped,
	}
}

// parseCost parses a monetary amount. Currency symbols and thousands
// separators are tolerated; empty, NaN and infinite values are rejected.
func parseCost(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
}

// normalizeDate converts a date into ISO YYYY-MM-DD form. Values that match
// no known layout are returned trimmed.
func normalizeDate(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return s
}

// String implements fmt.Stringer for log output.
func (b *Batch) String() string {
	return fmt.Sprintf("batch[source=%s layout=%s services=%d]", b.Source, b.Layout, len(b.Services))
}
