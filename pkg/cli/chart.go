package cli

import (
	"sort"

	"mercator-hq/saturn/pkg/costs"

	"github.com/guptarohit/asciigraph"
)

// DailyTotals sums daily costs across services and returns dates in order
// with their totals.
func DailyTotals(services []costs.ServiceCost) ([]string, []float64) {
	byDate := make(map[string]float64)
	for _, svc := range services {
		for _, d := range svc.DailyCosts {
			byDate[d.Date] += d.Cost
		}
	}

	dates := make([]string, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	totals := make([]float64, len(dates))
	for i, date := range dates {
		totals[i] = byDate[date]
	}
	return dates, totals
}

// ChartDailyCosts plots the summed daily cost. It returns "" when there are
// fewer than two daily points.
func ChartDailyCosts(services []costs.ServiceCost, width, height int) string {
	dates, totals := DailyTotals(services)
	if len(totals) < 2 {
		return ""
	}

	if width < 20 {
		width = 20
	}
	if height < 3 {
		height = 3
	}

	return asciigraph.Plot(totals,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption("daily cost "+dates[0]+" to "+dates[len(dates)-1]),
	)
}
