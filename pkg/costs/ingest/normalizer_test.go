package ingest

import (
	"errors"
	"testing"

	"mercator-hq/saturn/pkg/costs/provider"
	"mercator-hq/saturn/pkg/telemetry/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func serviceResult() *provider.Result {
	return &provider.Result{Buckets: []provider.TimeBucket{
		{Start: "2024-01-01", End: "2024-01-02", Groups: []provider.Group{
			{Keys: []string{"Amazon Simple Storage Service"}, Amount: "12.5", Unit: "USD"},
			{Keys: []string{"AWS Lambda"}, Amount: "not-a-number", Unit: "USD"},
			{Keys: []string{"Amazon CloudFront"}, Amount: "3", Unit: "USD"},
		}},
		{Start: "2024-01-02", End: "2024-01-03", Groups: []provider.Group{
			{Keys: []string{"Amazon Simple Storage Service"}, Amount: "7.5", Unit: "USD"},
			{Keys: []string{"AWS Lambda"}, Amount: "0", Unit: "USD"},
		}},
	}}
}

func TestFromProvider(t *testing.T) {
	collector := metrics.NewCollector(nil, nil)
	n := NewNormalizer(nil, collector)

	batch, err := n.FromProvider(ProviderResults{
		Services: serviceResult(),
		Regions: &provider.Result{Buckets: []provider.TimeBucket{{Groups: []provider.Group{
			{Keys: []string{"us-east-1", "Amazon Simple Storage Service"}, Amount: "15"},
			{Keys: []string{"NoRegion", "Amazon Simple Storage Service"}, Amount: "5"},
			{Keys: []string{"global", "Amazon CloudFront"}, Amount: "3"},
		}}}},
		Tags: map[string]*provider.Result{
			"team": {Buckets: []provider.TimeBucket{{Groups: []provider.Group{
				{Keys: []string{"team$storage", "Amazon Simple Storage Service"}, Amount: "20"},
				{Keys: []string{"team$", "Amazon CloudFront"}, Amount: "3"},
			}}}},
		},
	})
	if err != nil {
		t.Fatalf("FromProvider failed: %v", err)
	}

	// Lambda totals 0 and is excluded.
	if len(batch.Services) != 2 {
		t.Fatalf("Expected 2 services, got %d", len(batch.Services))
	}
	if batch.Services[0].Service != "amazonsimplestorageservice" || batch.Services[0].TotalCost != 20 {
		t.Errorf("Expected S3 with total 20 first, got %s %.2f", batch.Services[0].Service, batch.Services[0].TotalCost)
	}
	if batch.Skipped != 1 {
		t.Errorf("Expected 1 skipped group, got %d", batch.Skipped)
	}
	if batch.Source != SourceProvider {
		t.Errorf("Expected source provider, got %s", batch.Source)
	}

	if len(batch.Regional) != 1 || batch.Regional[0].Key != "us-east-1" {
		t.Errorf("Expected a single us-east-1 observation, got %+v", batch.Regional)
	}
	if len(batch.Tags) != 1 || batch.Tags[0].Value != "storage" || batch.Tags[0].Key != "team" {
		t.Errorf("Expected a single team=storage observation, got %+v", batch.Tags)
	}
	if len(batch.Daily) != 4 {
		t.Errorf("Expected 4 daily observations, got %d", len(batch.Daily))
	}

	count, err := testutil.GatherAndCount(collector.Registry(), "saturn_ingest_rows_total")
	if err != nil {
		t.Fatalf("GatherAndCount failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected one ingest rows series, got %d", count)
	}
}

func TestFromProvider_Empty(t *testing.T) {
	n := NewNormalizer(nil, nil)

	for name, res := range map[string]*provider.Result{
		"nil":          nil,
		"no buckets":   {},
		"empty bucket": {Buckets: []provider.TimeBucket{{Start: "2024-01-01"}}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := n.FromProvider(ProviderResults{Services: res})
			if !errors.Is(err, ErrEmptySource) {
				t.Errorf("Expected ErrEmptySource, got %v", err)
			}
		})
	}
}

func TestParseCost(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12.50", 12.5, true},
		{" $1,000.25 ", 1000.25, true},
		{"-3", -3, true},
		{"", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseCost(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("parseCost(%q) = %v, %v; expected %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
