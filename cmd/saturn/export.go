package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"mercator-hq/saturn/pkg/cli"
	"mercator-hq/saturn/pkg/costs/report"
	"mercator-hq/saturn/pkg/export"
	"mercator-hq/saturn/pkg/telemetry/logging"

	"github.com/spf13/cobra"
)

// Export formats.
const (
	exportCSV         = "csv"
	exportCSVDetailed = "csv-detailed"
	exportJSON        = "json"
)

var exportFlags struct {
	format string
	output string
}

var exportCmd = &cobra.Command{
	Use:   "export <file.csv>",
	Short: "Convert a CSV cost export into a Saturn export",
	Long: `Ingest a CSV cost export and write it as a summary CSV, a detailed CSV
with region, tag and daily rows, or a JSON snapshot.

Examples:
  # Summary CSV to stdout
  saturn export costs.csv

  # Detailed CSV to a file
  saturn export costs.csv --format csv-detailed --output detailed.csv

  # JSON snapshot
  saturn export costs.csv --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVarP(&exportFlags.format, "format", "f", exportCSV, "export format (csv, csv-detailed, json)")
	exportCmd.Flags().StringVarP(&exportFlags.output, "output", "o", "", "write to file instead of stdout")
}

func runExport(cmd *cobra.Command, args []string) error {
	switch exportFlags.format {
	case exportCSV, exportCSVDetailed, exportJSON:
	default:
		return cli.NewCommandError("export", fmt.Errorf("invalid format %q (must be one of: csv, csv-detailed, json)", exportFlags.format))
	}

	logger, err := logging.New(logging.Config{Level: "warn", Format: "text", Writer: cmd.ErrOrStderr()})
	if err != nil {
		return cli.NewCommandError("export", err)
	}

	rep, err := ingestFile(args[0], report.NewService(nil, report.Options{Logger: logger}))
	if err != nil {
		return cli.NewCommandError("export", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportFlags.output != "" {
		f, err := os.Create(exportFlags.output)
		if err != nil {
			return cli.NewCommandError("export", err)
		}
		defer f.Close()
		w = f
	}

	if err := writeExport(cmd, w, exportFlags.format, rep); err != nil {
		return cli.NewCommandError("export", err)
	}
	return nil
}

func writeExport(cmd *cobra.Command, w io.Writer, format string, rep *report.CostReport) error {
	switch format {
	case exportJSON:
		snap := export.NewSnapshot(rep, true, time.Now())
		if err := export.NewJSONExporter(true).Export(cmd.Context(), snap, w); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w)
		return err
	default:
		return export.NewCSVExporter(format == exportCSVDetailed).Export(cmd.Context(), rep.Services, w)
	}
}
