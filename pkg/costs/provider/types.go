package provider

import "context"

// Granularity is the width of the time buckets returned by a cost query.
type Granularity string

const (
	// GranularityDaily returns one bucket per day.
	GranularityDaily Granularity = "DAILY"
	// GranularityMonthly returns one bucket per month.
	GranularityMonthly Granularity = "MONTHLY"
)

// Group definition types.
const (
	GroupTypeDimension = "DIMENSION"
	GroupTypeTag       = "TAG"
)

// Dimension keys understood by the cost-reporting API.
const (
	DimensionService = "SERVICE"
	DimensionRegion  = "REGION"
)

// DefaultMetric is the cost metric requested when none is configured.
const DefaultMetric = "UnblendedCost"

// GroupKey is one grouping dimension of a cost query.
type GroupKey struct {
	// Type is GroupTypeDimension or GroupTypeTag.
	Type string

	// Key is a dimension name (SERVICE, REGION) or a tag key.
	Key string
}

// Query describes a grouped cost-and-usage request.
type Query struct {
	// Start is the inclusive window start (YYYY-MM-DD).
	Start string

	// End is the exclusive window end (YYYY-MM-DD).
	End string

	Granularity Granularity

	// GroupBy lists at most two grouping keys, in order.
	GroupBy []GroupKey

	// Metric is the cost metric to read (e.g. UnblendedCost, BlendedCost).
	Metric string
}

// Result is a time-bucketed grouped cost response.
type Result struct {
	Buckets []TimeBucket
}

// TimeBucket holds the groups reported for one time period.
type TimeBucket struct {
	// Start is the bucket start date (YYYY-MM-DD).
	Start string

	// End is the bucket end date (YYYY-MM-DD, exclusive).
	End string

	Groups []Group

	// Estimated is true while the provider may still revise the amounts.
	Estimated bool
}

// Group is one grouped amount within a bucket. Keys follow the order of
// Query.GroupBy. Amount is kept as the raw string the provider returned.
type Group struct {
	Keys   []string
	Amount string
	Unit   string
}

// Identity is the caller identity returned by credential validation.
type Identity struct {
	AccountID string `json:"accountId"`
	ARN       string `json:"arn"`
	UserID    string `json:"userId"`
}

// Client is the external cost-reporting API.
type Client interface {
	// GetCostAndUsage runs a grouped cost query over a window.
	GetCostAndUsage(ctx context.Context, q Query) (*Result, error)

	// GetCallerIdentity returns the identity behind the configured credentials.
	GetCallerIdentity(ctx context.Context) (*Identity, error)
}
