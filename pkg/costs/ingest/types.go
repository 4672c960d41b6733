package ingest

import (
	"errors"

	"mercator-hq/saturn/pkg/costs"
)

var (
	// ErrEmptySource is returned when the input holds no data rows or groups.
	ErrEmptySource = errors.New("empty cost source")

	// ErrUnsupportedFormat is returned when a CSV header set matches no known layout.
	ErrUnsupportedFormat = errors.New("unsupported cost data format")
)

// Layout identifies a supported CSV export layout.
type Layout string

const (
	// LayoutCostAndUsage has Service and BlendedCost columns, optional Region and Date.
	LayoutCostAndUsage Layout = "cost-and-usage"
	// LayoutDailyCosts has Date and Cost columns, optional Service.
	LayoutDailyCosts Layout = "daily-costs"
	// LayoutServiceCosts has Service and Amount columns.
	LayoutServiceCosts Layout = "service-costs"
)

// Source identifies where a batch came from.
type Source string

const (
	SourceProvider Source = "provider"
	SourceCSV      Source = "csv"
)

// DefaultDailyService is the service name used by daily-costs rows without a service column.
const DefaultDailyService = "Total"

// Observation is a single cost attributed to a service along one dimension.
type Observation struct {
	// Service is the normalized service identifier.
	Service string

	// Key is the region, the ISO date or the tag key depending on the slice
	// the observation belongs to.
	Key string

	// Value is the tag value. Empty for regional and daily observations.
	Value string

	Cost float64
}

// Batch is the output of normalization: per-service totals plus the raw
// breakdown observations the aggregator attaches to them.
type Batch struct {
	// Services holds service totals with empty breakdowns, highest cost first.
	// Only services with a positive total are present.
	Services []costs.ServiceCost

	Regional []Observation
	Tags     []Observation
	Daily    []Observation

	Currency string
	Source   Source

	// Layout is set for CSV batches.
	Layout Layout

	// Skipped counts rows or groups dropped for unparsable or missing values.
	Skipped int
}
