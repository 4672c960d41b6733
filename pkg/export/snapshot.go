package export

import (
	"time"

	"mercator-hq/saturn/pkg/costs"
	"mercator-hq/saturn/pkg/costs/report"

	"github.com/samber/lo"
)

// Snapshot is the serializable view of a cost report that is exported and
// shared.
type Snapshot struct {
	Services    []costs.ServiceCost `json:"services"`
	TotalCost   float64             `json:"totalCost"`
	Currency    string              `json:"currency"`
	Period      report.Window       `json:"period"`
	Source      string              `json:"source"`
	Detailed    bool                `json:"detailed"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// NewSnapshot packages r. Without detail only service totals and trends are
// kept.
func NewSnapshot(r *report.CostReport, detailed bool, now time.Time) Snapshot {
	snap := Snapshot{
		Services:    []costs.ServiceCost{},
		Currency:    costs.DefaultCurrency,
		Detailed:    detailed,
		GeneratedAt: now.UTC(),
	}
	if r == nil {
		return snap
	}

	snap.TotalCost = r.TotalCost
	snap.Currency = r.Currency
	snap.Period = r.Period
	snap.Source = string(r.Source)
	snap.Services = lo.Map(r.Services, func(svc costs.ServiceCost, _ int) costs.ServiceCost {
		if detailed {
			return svc
		}
		return costs.ServiceCost{
			Service:     svc.Service,
			DisplayName: svc.DisplayName,
			TotalCost:   svc.TotalCost,
			Currency:    svc.Currency,
			Regions:     []costs.RegionCost{},
			Tags:        []costs.TagCost{},
			DailyCosts:  []costs.DailyCost{},
			Trend:       svc.Trend,
		}
	})
	return snap
}
