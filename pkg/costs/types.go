package costs

// DefaultCurrency is assumed when a source does not report a currency.
const DefaultCurrency = "USD"

// MinBreakdownCost is the smallest regional or tag cost kept in a breakdown.
const MinBreakdownCost = 0.01

// Trend classifies the direction of a service's daily cost.
type Trend string

const (
	// TrendIncreasing means the recent window averages more than 10% above the older one.
	TrendIncreasing Trend = "increasing"
	// TrendDecreasing means the recent window averages more than 10% below the older one.
	TrendDecreasing Trend = "decreasing"
	// TrendStable covers everything else, including too little data.
	TrendStable Trend = "stable"
)

// ServiceCost is the canonical cost record for one service over a window.
type ServiceCost struct {
	// Service is the normalized identifier used for budget matching.
	Service string `json:"service"`

	// DisplayName is the original human-readable service name.
	DisplayName string `json:"displayName"`

	// TotalCost is the accumulated cost for the window.
	TotalCost float64 `json:"totalCost"`

	// Currency is the currency of every amount on this record.
	Currency string `json:"currency"`

	// Regions is sorted descending by cost.
	Regions []RegionCost `json:"regions"`

	// Tags is sorted descending by cost.
	Tags []TagCost `json:"tags"`

	// DailyCosts is sorted ascending by date, one entry per date.
	DailyCosts []DailyCost `json:"dailyCosts"`

	// Trend is derived from DailyCosts.
	Trend Trend `json:"trend"`
}

// RegionCost is one entry of a service's regional breakdown.
type RegionCost struct {
	Region     string  `json:"region"`
	Cost       float64 `json:"cost"`
	Percentage float64 `json:"percentage"`
}

// TagCost is one entry of a service's tag breakdown.
type TagCost struct {
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Cost       float64 `json:"cost"`
	Percentage float64 `json:"percentage"`
}

// DailyCost is the cost of a service on a single ISO date (YYYY-MM-DD).
type DailyCost struct {
	Date string  `json:"date"`
	Cost float64 `json:"cost"`
}

// Percentage returns cost as a percentage of total, or 0 when total is 0.
func Percentage(cost, total float64) float64 {
	if total == 0 {
		return 0
	}
	return cost / total * 100
}
