package main

import (
	"fmt"
	"io"
	"os"

	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/cli"
	"mercator-hq/saturn/pkg/costs/report"
	"mercator-hq/saturn/pkg/telemetry/logging"

	"github.com/spf13/cobra"
)

var ingestFlags struct {
	account string
	chart   bool
	output  string
	width   int
}

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv>",
	Short: "Summarize a CSV cost export",
	Long: `Ingest a CSV cost export and print the per-service summary.

The layout (cost-and-usage, daily-costs or service-costs) is detected from the
header row. With --account, services are evaluated against the account's
budgets in the configured budget store.

Examples:
  # Print the per-service summary
  saturn ingest costs.csv

  # Include an ASCII chart of the daily total
  saturn ingest costs.csv --chart

  # Evaluate against budgets stored for an account
  saturn ingest costs.csv --account acme`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().StringVar(&ingestFlags.account, "account", "", "evaluate budgets for this account")
	ingestCmd.Flags().BoolVar(&ingestFlags.chart, "chart", false, "plot the summed daily cost")
	ingestCmd.Flags().StringVarP(&ingestFlags.output, "output", "o", "text", "output format (text, json)")
	ingestCmd.Flags().IntVar(&ingestFlags.width, "width", 60, "chart width in columns")
}

func runIngest(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(ingestFlags.output)
	if err != nil {
		return cli.NewCommandError("ingest", err)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{
		Level:  "warn",
		Format: "text",
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return cli.NewCommandError("ingest", err)
	}

	rep, err := ingestFile(args[0], report.NewService(nil, report.Options{Logger: logger}))
	if err != nil {
		return cli.NewCommandError("ingest", err)
	}

	out := cmd.OutOrStdout()
	if err := cli.PrintReport(out, format, rep); err != nil {
		return cli.NewCommandError("ingest", err)
	}

	if ingestFlags.chart && format == cli.FormatText {
		if chart := cli.ChartDailyCosts(rep.Services, ingestFlags.width, 10); chart != "" {
			fmt.Fprintf(out, "\n%s\n", chart)
		} else {
			fmt.Fprintln(out, "\nNo daily cost data to chart")
		}
	}

	if ingestFlags.account == "" {
		return nil
	}

	engine, err := newBudgetEngine(cfg, logger, nil)
	if err != nil {
		return cli.NewCommandError("ingest", err)
	}
	defer engine.Close()

	utils, err := engine.CalculateUtilization(cmd.Context(), rep.Services, ingestFlags.account)
	if err != nil {
		return cli.NewCommandError("ingest", err)
	}
	printUtilization(out, utils)
	return nil
}

func ingestFile(path string, reports *report.Service) (*report.CostReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return reports.IngestCSV(data)
}

func printUtilization(w io.Writer, utils []budget.Utilization) {
	fmt.Fprintln(w, "\nBudgets:")
	budgeted := 0
	for _, u := range utils {
		if u.BudgetID == "" {
			continue
		}
		budgeted++
		fmt.Fprintf(w, "  %-30s %8.2f / %8.2f  %6.1f%%  %s\n",
			u.DisplayName, u.CurrentCost, u.BudgetAmount, u.UtilizationPercentage, u.AlertLevel)
	}
	if budgeted == 0 {
		fmt.Fprintln(w, "  no budgets configured for these services")
	}
}
