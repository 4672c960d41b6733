package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/costs/report"
)

// Import is the outcome of importing one file.
type Import struct {
	Path          string
	Report        *report.CostReport
	Utilizations  []budget.Utilization
	Notifications []*budget.Notification
}

// Importer ingests CSV files and evaluates them against an account's budgets.
type Importer struct {
	Reports   *report.Service
	Budgets   *budget.Engine
	AccountID string
	Logger    *slog.Logger
}

// Import reads, ingests and evaluates the file at path.
func (im *Importer) Import(ctx context.Context, path string) (*Import, error) {
	logger := im.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "watch.importer", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	rep, err := im.Reports.IngestCSV(data)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest %s: %w", path, err)
	}

	result := &Import{Path: path, Report: rep}
	if im.Budgets == nil {
		return result, nil
	}

	result.Utilizations, err = im.Budgets.CalculateUtilization(ctx, rep.Services, im.AccountID)
	if err != nil {
		return result, err
	}
	result.Notifications, err = im.Budgets.GenerateAlerts(ctx, result.Utilizations)
	if err != nil {
		return result, err
	}

	logger.Info("cost export imported",
		"account_id", im.AccountID,
		"services", len(rep.Services),
		"total_cost", rep.TotalCost,
		"alerts", len(result.Notifications),
	)
	for _, n := range result.Notifications {
		logger.Warn("budget alert from import", "severity", n.Severity, "message", n.Message)
	}

	return result, nil
}

// Handle adapts Import to a DirWatcher callback, logging failures.
func (im *Importer) Handle(ctx context.Context) func(path string) {
	return func(path string) {
		if _, err := im.Import(ctx, path); err != nil {
			logger := im.Logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("cost export import failed", "component", "watch.importer", "path", path, "error", err)
		}
	}
}
