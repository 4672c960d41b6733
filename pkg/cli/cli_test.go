package cli

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/costs"
	"mercator-hq/saturn/pkg/costs/report"
)

func TestConfigError(t *testing.T) {
	err := NewConfigError("server.listen_address", "missing required field")

	expected := "config error in server.listen_address: missing required field"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
}

func TestWrapConfigError(t *testing.T) {
	verr := config.ValidationError{Errors: []config.FieldError{{Field: "cache.ttl", Message: "cache TTL must be positive"}}}

	err := WrapConfigError("saturn.yaml", verr)
	if err.Field != "cache.ttl" {
		t.Errorf("Expected field cache.ttl, got %q", err.Field)
	}
	var target config.ValidationError
	if !errors.As(err, &target) {
		t.Error("Expected wrapped validation error to be reachable")
	}

	plain := WrapConfigError("saturn.yaml", errors.New("no such file"))
	if !strings.Contains(plain.Error(), "saturn.yaml: no such file") {
		t.Errorf("Unexpected message: %s", plain.Error())
	}
}

func TestCommandError(t *testing.T) {
	underlying := errors.New("underlying error")
	err := NewCommandError("run", underlying)

	expected := "command run failed: underlying error"
	if err.Error() != expected {
		t.Errorf("Expected %q, got %q", expected, err.Error())
	}
	if !errors.Is(err, underlying) {
		t.Error("Expected CommandError to unwrap to the underlying error")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, ExitOK},
		{errors.New("boom"), ExitFailure},
		{NewCommandError("run", NewConfigError("x", "y")), ExitConfigInvalid},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("Expected exit code %d for %v, got %d", tt.want, tt.err, got)
		}
	}
}

func TestSetupSignalHandler(t *testing.T) {
	ctx, stop := SetupSignalHandler()

	select {
	case <-ctx.Done():
		t.Fatal("Expected context not to be cancelled initially")
	default:
	}

	stop()
	<-ctx.Done()
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"": FormatText, "TEXT": FormatText, "json": FormatJSON} {
		got, err := ParseOutputFormat(in)
		if err != nil || got != want {
			t.Errorf("Expected %s for %q, got %s (%v)", want, in, got, err)
		}
	}
	if _, err := ParseOutputFormat("xml"); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func testReport() *report.CostReport {
	return &report.CostReport{
		Services: []costs.ServiceCost{
			{Service: "amazonec2", DisplayName: "Amazon EC2", TotalCost: 75, Trend: costs.TrendIncreasing,
				DailyCosts: []costs.DailyCost{{Date: "2024-01-01", Cost: 30}, {Date: "2024-01-02", Cost: 45}}},
			{Service: "amazons3", DisplayName: "Amazon S3", TotalCost: 25, Trend: costs.TrendStable,
				DailyCosts: []costs.DailyCost{{Date: "2024-01-02", Cost: 25}}},
		},
		TotalCost: 100,
		Currency:  "USD",
		Period:    report.Window{Start: "2024-01-01", End: "2024-01-03"},
		Source:    "csv",
	}
}

func TestPrintReport_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintReport(&buf, FormatText, testReport()); err != nil {
		t.Fatalf("PrintReport failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Amazon EC2", "75.00", "75.0%", "increasing", "TOTAL", "Period: 2024-01-01 to 2024-01-03"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestPrintReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := PrintReport(&buf, FormatJSON, testReport()); err != nil {
		t.Fatalf("PrintReport failed: %v", err)
	}
	if !strings.Contains(buf.String(), `"totalCost": 100`) {
		t.Errorf("Unexpected JSON: %s", buf.String())
	}
}

func TestDailyTotals(t *testing.T) {
	dates, totals := DailyTotals(testReport().Services)

	if len(dates) != 2 || dates[0] != "2024-01-01" {
		t.Fatalf("Unexpected dates: %v", dates)
	}
	if totals[0] != 30 || totals[1] != 70 {
		t.Errorf("Expected totals [30 70], got %v", totals)
	}
}

func TestChartDailyCosts(t *testing.T) {
	chart := ChartDailyCosts(testReport().Services, 40, 5)
	if !strings.Contains(chart, "daily cost 2024-01-01 to 2024-01-02") {
		t.Errorf("Expected caption in chart, got:\n%s", chart)
	}

	if got := ChartDailyCosts(nil, 40, 5); got != "" {
		t.Errorf("Expected empty chart without data, got %q", got)
	}
}
