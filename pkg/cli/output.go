package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"mercator-hq/saturn/pkg/costs/report"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is an aligned table (default).
	FormatText OutputFormat = "text"
	// FormatJSON is indented JSON.
	FormatJSON OutputFormat = "json"
)

// ParseOutputFormat parses a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("invalid output format %q (must be one of: text, json)", s)
}

// PrintReport writes rep to w in the given format.
func PrintReport(w io.Writer, format OutputFormat, rep *report.CostReport) error {
	if format == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SERVICE\tCOST\tSHARE\tTREND")
	for _, svc := range rep.Services {
		fmt.Fprintf(tw, "%s\t%.2f\t%.1f%%\t%s\n",
			svc.DisplayName, svc.TotalCost, sharePct(svc.TotalCost, rep.TotalCost), svc.Trend)
	}
	fmt.Fprintf(tw, "TOTAL\t%.2f\t\t\n", rep.TotalCost)
	if err := tw.Flush(); err != nil {
		return err
	}

	if rep.Period.Start != "" {
		_, err := fmt.Fprintf(w, "\nPeriod: %s to %s (%s, %s)\n",
			rep.Period.Start, rep.Period.End, rep.Currency, rep.Source)
		return err
	}
	return nil
}

func sharePct(cost, total float64) float64 {
	if total == 0 {
		return 0
	}
	return cost / total * 100
}
