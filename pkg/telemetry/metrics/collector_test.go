package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"mercator-hq/saturn/pkg/config"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestCollector(enabled bool) *Collector {
	return NewCollector(&config.MetricsConfig{Enabled: enabled, Namespace: "saturn"}, nil)
}

func TestCollector_CacheMetrics(t *testing.T) {
	c := newTestCollector(true)

	c.RecordCacheHit("costs")
	c.RecordCacheHit("costs")
	c.RecordCacheMiss("costs")
	c.UpdateCacheSize("costs", 3)
	c.RecordCacheEvictions("costs", 2)

	if got := testutil.ToFloat64(c.cacheHits.WithLabelValues("costs")); got != 2 {
		t.Errorf("Expected 2 hits, got %v", got)
	}
	if got := testutil.ToFloat64(c.cacheMisses.WithLabelValues("costs")); got != 1 {
		t.Errorf("Expected 1 miss, got %v", got)
	}
	if got := testutil.ToFloat64(c.cacheEntries.WithLabelValues("costs")); got != 3 {
		t.Errorf("Expected 3 entries, got %v", got)
	}
	if got := testutil.ToFloat64(c.cacheEvictions.WithLabelValues("costs")); got != 2 {
		t.Errorf("Expected 2 evictions, got %v", got)
	}
}

func TestCollector_Disabled(t *testing.T) {
	c := newTestCollector(false)

	c.RecordAlert("critical")
	c.RecordShareRead("ok")

	if got := testutil.ToFloat64(c.alertsTotal.WithLabelValues("critical")); got != 0 {
		t.Errorf("Expected disabled collector to record nothing, got %v", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector

	// None of these may panic.
	c.RecordCacheHit("costs")
	c.RecordCacheMiss("costs")
	c.UpdateCacheSize("costs", 1)
	c.RecordCacheEvictions("costs", 1)
	c.RecordIngest("csv", 10, 1)
	c.RecordProviderCall("GetCostAndUsage", "success")
	c.RecordProviderRetry("GetCostAndUsage")
	c.UpdateBudgetUtilization("acct", "amazons3", 50)
	c.RecordAlert("warning")
	c.RecordShareRead("ok")
	c.UpdateActiveShares(2)
}

func TestCollector_Handler(t *testing.T) {
	c := newTestCollector(true)
	c.RecordIngest("csv", 5, 1)
	c.UpdateActiveShares(4)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"saturn_ingest_rows_total", "saturn_ingest_skipped_total", "saturn_share_active 4"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics output to contain %q", want)
		}
	}
}
