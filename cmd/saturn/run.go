package main

import (
	"context"
	"fmt"
	"log/slog"

	"mercator-hq/saturn/pkg/cli"
	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/server"
	"mercator-hq/saturn/pkg/share"
	"mercator-hq/saturn/pkg/telemetry/logging"
	"mercator-hq/saturn/pkg/telemetry/metrics"
	"mercator-hq/saturn/pkg/telemetry/tracing"
	"mercator-hq/saturn/pkg/watch"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Saturn API server",
	Long: `Start the Saturn API server with the specified configuration.

The server exposes cost reports, budgets, notifications, shares and exports
over HTTP. With import.enabled, CSV exports dropped into import.watch_dir are
ingested and evaluated against the configured account's budgets.

Examples:
  # Start with default config
  saturn run

  # Start with custom config
  saturn run --config /etc/saturn/saturn.yaml

  # Override listen address
  saturn run --listen 0.0.0.0:8080

  # Validate config without starting server
  saturn run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting server")
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.WrapConfigError("flags", err)
	}

	logger, err := logging.New(logging.FromConfig(cfg.Telemetry.Logging))
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	out := cmd.OutOrStdout()
	if runFlags.dryRun {
		fmt.Fprintln(out, "✓ Configuration valid")
		return nil
	}

	ctx, stop := cli.SetupSignalHandler()
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, registry)

	tracer, err := tracing.New(cfg.Telemetry.Tracing, Version)
	if err != nil {
		return cli.NewConfigError("telemetry.tracing", err.Error())
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()
	if tracer.Enabled() {
		fmt.Fprintf(out, "✓ Exporting traces to %s\n", cfg.Telemetry.Tracing.Endpoint)
	}

	client, err := newProviderClient(ctx, &cfg.Provider, logger)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	reports := newReportService(cfg, client, logger, collector, tracer)
	if client != nil {
		if id, err := reports.Validate(ctx); err != nil {
			slog.Warn("initial credential validation failed; POST /api/credentials/validate to retry", "error", err)
		} else {
			fmt.Fprintf(out, "✓ Provider credentials validated (account %s)\n", id.AccountID)
		}
	} else {
		fmt.Fprintln(out, "✓ No cost provider configured, CSV ingestion only")
	}

	engine, err := newBudgetEngine(cfg, logger, collector)
	if err != nil {
		return cli.NewCommandError("run", err)
	}
	defer engine.Close()
	fmt.Fprintf(out, "✓ Budget store initialized (%s)\n", cfg.Budgets.Backend)

	shares := share.NewCache(share.Config{
		DefaultExpirationHours: cfg.Shares.DefaultExpirationHours,
		MaxExpirationHours:     cfg.Shares.MaxExpirationHours,
		Logger:                 logger,
		Metrics:                collector,
	})

	scheduler := share.NewScheduler(cfg.Shares.CleanupSchedule, logger,
		share.Job{Name: "shares", Run: shares.CleanupExpiredShares},
		share.Job{Name: "cost-cache", Run: reports.Sweep},
	)
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	defer scheduler.Stop()
	if next := scheduler.NextRun(); next != nil {
		slog.Debug("cleanup scheduler started", "next_run", next)
	}

	if cfg.Import.Enabled {
		watcher, err := startImporter(ctx, cfg, &watch.Importer{
			Reports:   reports,
			Budgets:   engine,
			AccountID: cfg.Import.AccountID,
			Logger:    logger,
		}, logger)
		if err != nil {
			return cli.NewCommandError("run", err)
		}
		defer watcher.Stop()
		fmt.Fprintf(out, "✓ Watching %s for CSV exports\n", cfg.Import.WatchDir)
	}

	srv := server.New(cfg, server.Deps{
		Reports: reports,
		Budgets: engine,
		Shares:  shares,
		Metrics: collector,
		Tracer:  tracer,
		Health:  newHealthChecker(reports, client, engine),
		Logger:  logger,
	})

	fmt.Fprintf(out, "✓ Server listening on %s\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "✓ Health endpoint: http://%s/health\n", cfg.Server.ListenAddress)
	fmt.Fprintf(out, "✓ Readiness endpoint: http://%s/ready\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.Enabled {
		fmt.Fprintf(out, "✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}

	if err := srv.Start(ctx); err != nil {
		return cli.NewCommandError("run", err)
	}
	fmt.Fprintln(out, "✓ Shutdown complete")
	return nil
}

// startImporter watches the import directory in the background. Files already
// present at startup are not imported.
func startImporter(ctx context.Context, cfg *config.Config, importer *watch.Importer, logger *slog.Logger) (*watch.DirWatcher, error) {
	watcher, err := watch.NewDirWatcher(watch.Config{
		Dir:              cfg.Import.WatchDir,
		DebounceInterval: cfg.Import.DebounceInterval,
	}, logger)
	if err != nil {
		return nil, err
	}

	go func() {
		if err := watcher.Watch(ctx, importer.Handle(ctx)); err != nil {
			logger.Error("import watcher failed", "error", err)
		}
	}()
	return watcher, nil
}
