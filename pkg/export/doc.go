// Package export renders cost data as CSV or JSON.
//
// # Export Formats
//
//   - CSV summary: one row per service
//   - CSV detailed: one row per (service, region), (service, tag) and
//     (service, day) pair, sharing the service columns; columns that do not
//     apply to a row are left blank
//   - JSON: a Snapshot document, optionally indented
//
// Every CSV field is quoted, including numbers and blanks.
//
// # Usage
//
//	exporter := export.NewCSVExporter(true)
//	err := exporter.Export(ctx, report.Services, os.Stdout)
//
//	snap := export.NewSnapshot(report, true, time.Now())
//	err = export.NewJSONExporter(true).Export(ctx, snap, w)
//
// Exporters are stateless and safe for concurrent use.
package export
