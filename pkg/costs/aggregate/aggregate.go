// Package aggregate merges the breakdown observations of a normalized batch
// onto its services and classifies each service's cost trend.
package aggregate

import (
	"sort"

	"mercator-hq/saturn/pkg/costs"
	"mercator-hq/saturn/pkg/costs/ingest"

	"github.com/samber/lo"
)

// Trend classification parameters.
const (
	TrendWindow    = 7
	TrendThreshold = 10.0
)

// Aggregate returns the batch's services with regional, tag and daily
// breakdowns attached and the trend set. The batch is not modified.
//
// Regional and tag entries are summed per key and scaled down when their sum
// exceeds the service total, which happens when credits carry no region or
// tag, or when the breakdown query disagrees with the service totals. Tag
// entries are scaled per tag key. Entries below costs.MinBreakdownCost are
// then dropped and the remainder is sorted by cost, highest first. Daily costs are summed per date and sorted by date.
func Aggregate(batch *ingest.Batch) []costs.ServiceCost {
	if batch == nil {
		return []costs.ServiceCost{}
	}

	regional := lo.GroupBy(batch.Regional, func(o ingest.Observation) string { return o.Service })
	tags := lo.GroupBy(batch.Tags, func(o ingest.Observation) string { return o.Service })
	daily := lo.GroupBy(batch.Daily, func(o ingest.Observation) string { return o.Service })

	out := make([]costs.ServiceCost, 0, len(batch.Services))
	for _, svc := range batch.Services {
		svc.Regions = regionBreakdown(regional[svc.Service], svc.TotalCost)
		svc.Tags = tagBreakdown(tags[svc.Service], svc.TotalCost)
		svc.DailyCosts = dailySeries(daily[svc.Service])
		svc.Trend = ClassifyTrend(svc.DailyCosts)
		out = append(out, svc)
	}
	return out
}

func regionBreakdown(obs []ingest.Observation, total float64) []costs.RegionCost {
	sums, order := sumByKey(obs, func(o ingest.Observation) string { return o.Key })
	capToTotal(sums, order, total)

	regions := make([]costs.RegionCost, 0, len(order))
	for _, region := range order {
		cost := sums[region]
		if cost < costs.MinBreakdownCost {
			continue
		}
		regions = append(regions, costs.RegionCost{
			Region:     region,
			Cost:       cost,
			Percentage: costs.Percentage(cost, total),
		})
	}
	sort.SliceStable(regions, func(i, j int) bool { return regions[i].Cost > regions[j].Cost })
	return regions
}

type tagKey struct{ key, value string }

func tagBreakdown(obs []ingest.Observation, total float64) []costs.TagCost {
	sums, order := sumByKey(obs, func(o ingest.Observation) tagKey { return tagKey{o.Key, o.Value} })
	for _, keyOrder := range lo.GroupBy(order, func(k tagKey) string { return k.key }) {
		capToTotal(sums, keyOrder, total)
	}

	out := make([]costs.TagCost, 0, len(order))
	for _, k := range order {
		cost := sums[k]
		if cost < costs.MinBreakdownCost {
			continue
		}
		out = append(out, costs.TagCost{
			Key:        k.key,
			Value:      k.value,
			Cost:       cost,
			Percentage: costs.Percentage(cost, total),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Cost > out[j].Cost })
	return out
}

func dailySeries(obs []ingest.Observation) []costs.DailyCost {
	sums, order := sumByKey(obs, func(o ingest.Observation) string { return o.Key })
	sort.Strings(order)

	return lo.Map(order, func(date string, _ int) costs.DailyCost {
		return costs.DailyCost{Date: date, Cost: sums[date]}
	})
}

// capToTotal scales the sums named by keys so they add up to at most total.
// A non-positive total leaves nothing to attribute.
func capToTotal[K comparable](sums map[K]float64, keys []K, total float64) {
	sum := lo.SumBy(keys, func(k K) float64 { return sums[k] })
	if sum <= total {
		return
	}
	factor := 0.0
	if total > 0 {
		factor = total / sum
	}
	for _, k := range keys {
		sums[k] *= factor
	}
}

// sumByKey sums observation costs per key and returns the keys in first-seen order.
func sumByKey[K comparable](obs []ingest.Observation, key func(ingest.Observation) K) (map[K]float64, []K) {
	sums := make(map[K]float64, len(obs))
	var order []K
	for _, o := range obs {
		k := key(o)
		if _, seen := sums[k]; !seen {
			order = append(order, k)
		}
		sums[k] += o.Cost
	}
	return sums, order
}

// ClassifyTrend compares the mean of the last TrendWindow points with the
// mean of the TrendWindow points before them. A change above TrendThreshold
// percent is increasing, below -TrendThreshold percent decreasing.
// The series must be sorted by date.
func ClassifyTrend(daily []costs.DailyCost) costs.Trend {
	if len(daily) < 2 {
		return costs.TrendStable
	}

	recentStart := max(len(daily)-TrendWindow, 0)
	olderStart := max(recentStart-TrendWindow, 0)
	recent := daily[recentStart:]
	older := daily[olderStart:recentStart]
	if len(recent) == 0 || len(older) == 0 {
		return costs.TrendStable
	}

	recentMean := meanCost(recent)
	olderMean := meanCost(older)

	change := 0.0
	if olderMean != 0 {
		change = (recentMean - olderMean) / olderMean * 100
	}

	switch {
	case change > TrendThreshold:
		return costs.TrendIncreasing
	case change < -TrendThreshold:
		return costs.TrendDecreasing
	default:
		return costs.TrendStable
	}
}

func meanCost(points []costs.DailyCost) float64 {
	sum := lo.SumBy(points, func(p costs.DailyCost) float64 { return p.Cost })
	return sum / float64(len(points))
}
