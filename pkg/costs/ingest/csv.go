package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"mercator-hq/saturn/pkg/costs"
)

// tagPrefixes mark cost-and-usage columns that carry a tag value.
var tagPrefixes = []string{"tag:", "user:", "resourcetags/user:"}

// columns maps the roles of a detected layout to concrete header names.
type columns struct {
	service  string
	cost     string
	region   string
	date     string
	currency string
	tags     map[string]string // header -> tag key
}

// ParseCSV reads CSV text with a header row into string-keyed rows.
// A UTF-8 byte order mark is ignored. Empty input yields no rows.
func ParseCSV(data []byte) ([]map[string]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", len(rows)+2, err)
		}
		if isBlank(record) {
			continue
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// DetectLayout classifies a header set. Matching is case-insensitive and
// ignores punctuation, so "BlendedCost", "blended_cost" and "Blended Cost"
// are equivalent.
func DetectLayout(headers []string) (Layout, error) {
	has := func(marker string) bool { return findColumn(headers, marker) != "" }

	switch {
	case has("service") && has("blendedcost"):
		return LayoutCostAndUsage, nil
	case has("date") && has("cost"):
		return LayoutDailyCosts, nil
	case has("service") && has("amount"):
		return LayoutServiceCosts, nil
	}
	return "", fmt.Errorf("%w: headers [%s]", ErrUnsupportedFormat, strings.Join(headers, ", "))
}

// findColumn returns the header matching marker, preferring an exact match
// and then the shortest header containing it.
func findColumn(headers []string, marker string) string {
	best := ""
	for _, h := range headers {
		key := costs.NormalizeService(h)
		if key == marker {
			return h
		}
		if strings.Contains(key, marker) && (best == "" || len(h) < len(best)) {
			best = h
		}
	}
	return best
}

func resolveColumns(layout Layout, headers []string) columns {
	c := columns{currency: findColumn(headers, "currency")}
	switch layout {
	case LayoutCostAndUsage:
		c.service = findColumn(headers, "service")
		c.cost = findColumn(headers, "blendedcost")
		c.region = findColumn(headers, "region")
		c.date = findColumn(headers, "date")
		c.tags = make(map[string]string)
		for _, h := range headers {
			lower := strings.ToLower(h)
			for _, prefix := range tagPrefixes {
				if strings.HasPrefix(lower, prefix) && len(h) > len(prefix) {
					c.tags[h] = strings.TrimSpace(h[len(prefix):])
					break
				}
			}
		}
	case LayoutDailyCosts:
		c.date = findColumn(headers, "date")
		c.cost = findColumn(headers, "cost")
		c.service = findColumn(headers, "service")
	case LayoutServiceCosts:
		c.service = findColumn(headers, "service")
		c.cost = findColumn(headers, "amount")
	}
	return c
}

// headerSet returns the sorted union of keys over all rows.
func headerSet(rows []map[string]string) []string {
	seen := make(map[string]struct{})
	for _, row := range rows {
		for k := range row {
			seen[k] = struct{}{}
		}
	}
	headers := make([]string, 0, len(seen))
	for k := range seen {
		headers = append(headers, k)
	}
	sort.Strings(headers)
	return headers
}

// FromCSV parses CSV text and normalizes it. See FromRows.
func (n *Normalizer) FromCSV(data []byte) (*Batch, error) {
	rows, err := ParseCSV(data)
	if err != nil {
		return nil, err
	}
	return n.FromRows(rows)
}

// FromRows normalizes tabular rows. The layout is detected from the header
// set; rows with a missing or unparsable cost are skipped.
//
// Returns ErrEmptySource when there are no rows and ErrUnsupportedFormat
// when the headers match no layout.
func (n *Normalizer) FromRows(rows []map[string]string) (*Batch, error) {
	if len(rows) == 0 {
		return nil, ErrEmptySource
	}

	headers := headerSet(rows)
	layout, err := DetectLayout(headers)
	if err != nil {
		return nil, err
	}
	cols := resolveColumns(layout, headers)

	tagHeaders := make([]string, 0, len(cols.tags))
	for h := range cols.tags {
		tagHeaders = append(tagHeaders, h)
	}
	sort.Strings(tagHeaders)

	acc := newAccumulator(SourceCSV)
	for _, row := range rows {
		cost, ok := parseCost(row[cols.cost])
		if !ok {
			acc.skipped++
			continue
		}

		name := ""
		if cols.service != "" {
			name = strings.TrimSpace(row[cols.service])
		}
		if name == "" && layout == LayoutDailyCosts {
			name = DefaultDailyService
		}
		id := acc.addService(name, cost)
		if id == "" {
			acc.skipped++
			continue
		}
		if cols.currency != "" {
			acc.setCurrency(row[cols.currency])
		}

		if cols.region != "" {
			acc.addRegion(name, row[cols.region], cost)
		}
		if cols.date != "" {
			if date := normalizeDate(row[cols.date]); date != "" {
				acc.daily = append(acc.daily, Observation{Service: id, Key: date, Cost: cost})
			}
		}
		for _, h := range tagHeaders {
			acc.addTag(name, cols.tags[h], row[h], cost)
		}
	}

	batch := acc.batch()
	batch.Layout = layout
	n.record(batch, len(rows))
	return batch, nil
}
