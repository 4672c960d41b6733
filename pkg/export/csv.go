package export

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"mercator-hq/saturn/pkg/costs"

	"github.com/samber/lo"
)

// CSVExporter exports service costs to CSV.
type CSVExporter struct {
	// Detailed emits breakdown rows instead of one row per service.
	Detailed bool
}

// NewCSVExporter creates a new CSV exporter.
func NewCSVExporter(detailed bool) *CSVExporter {
	return &CSVExporter{Detailed: detailed}
}

var summaryHeader = []string{
	"Service", "Display Name", "Total Cost", "Currency", "Percentage of Total", "Trend",
}

var baseHeader = []string{
	"Service", "Display Name", "Total Cost", "Currency", "Trend",
}

var detailHeader = []string{
	"Region", "Region Cost", "Region Percentage",
	"Tag Key", "Tag Value", "Tag Cost", "Tag Percentage",
	"Date", "Daily Cost",
}

// Column offsets within detailHeader.
const (
	colRegion = 0
	colTag    = 3
	colDate   = 7
)

// Export writes services to w.
func (e *CSVExporter) Export(ctx context.Context, services []costs.ServiceCost, w io.Writer) error {
	format := lo.Ternary(e.Detailed, "csv-detailed", "csv")
	cw := newQuotedWriter(w)

	header := summaryHeader
	if e.Detailed {
		header = append(append([]string{}, baseHeader...), detailHeader...)
	}
	if err := cw.write(header); err != nil {
		return NewExportError(format, len(services), err)
	}

	total := lo.SumBy(services, func(svc costs.ServiceCost) float64 { return svc.TotalCost })

	for _, svc := range services {
		if err := ctx.Err(); err != nil {
			return err
		}

		var rows [][]string
		if e.Detailed {
			rows = detailedRows(svc)
		} else {
			rows = [][]string{{
				svc.Service,
				svc.DisplayName,
				money(svc.TotalCost),
				svc.Currency,
				money(costs.Percentage(svc.TotalCost, total)),
				string(svc.Trend),
			}}
		}

		for _, row := range rows {
			if err := cw.write(row); err != nil {
				return NewExportError(format, len(services), err)
			}
		}
	}

	if err := cw.flush(); err != nil {
		return NewExportError(format, len(services), err)
	}
	return nil
}

// detailedRows returns one row per region, tag and daily point. A service
// with no breakdowns still gets a single base row.
func detailedRows(svc costs.ServiceCost) [][]string {
	base := []string{svc.Service, svc.DisplayName, money(svc.TotalCost), svc.Currency, string(svc.Trend)}

	row := func(offset int, fields ...string) []string {
		detail := make([]string, len(detailHeader))
		copy(detail[offset:], fields)
		return append(append([]string{}, base...), detail...)
	}

	var rows [][]string
	for _, r := range svc.Regions {
		rows = append(rows, row(colRegion, r.Region, money(r.Cost), money(r.Percentage)))
	}
	for _, t := range svc.Tags {
		rows = append(rows, row(colTag, t.Key, t.Value, money(t.Cost), money(t.Percentage)))
	}
	for _, d := range svc.DailyCosts {
		rows = append(rows, row(colDate, d.Date, money(d.Cost)))
	}
	if len(rows) == 0 {
		rows = append(rows, row(0))
	}
	return rows
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// quotedWriter writes CSV records with every field quoted.
type quotedWriter struct {
	w *bufio.Writer
}

func newQuotedWriter(w io.Writer) *quotedWriter {
	return &quotedWriter{w: bufio.NewWriter(w)}
}

func (q *quotedWriter) write(fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := q.w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := q.w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	return q.w.WriteByte('\n')
}

func (q *quotedWriter) flush() error {
	return q.w.Flush()
}
