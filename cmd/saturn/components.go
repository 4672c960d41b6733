package main

import (
	"context"
	"fmt"
	"log/slog"

	"mercator-hq/saturn/pkg/budget"
	"mercator-hq/saturn/pkg/budget/storage"
	"mercator-hq/saturn/pkg/config"
	"mercator-hq/saturn/pkg/costs/provider"
	"mercator-hq/saturn/pkg/costs/provider/awsce"
	"mercator-hq/saturn/pkg/costs/report"
	"mercator-hq/saturn/pkg/telemetry/health"
	"mercator-hq/saturn/pkg/telemetry/metrics"
	"mercator-hq/saturn/pkg/telemetry/tracing"
)

// newProviderClient returns the configured cost provider, or nil for "none".
func newProviderClient(ctx context.Context, cfg *config.ProviderConfig, logger *slog.Logger) (provider.Client, error) {
	switch cfg.Type {
	case config.ProviderAWS:
		client, err := awsce.New(ctx, awsce.Config{
			Region:  cfg.Region,
			Profile: cfg.Profile,
			Timeout: cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderNone:
		return nil, nil
	}
	return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
}

func newReportService(cfg *config.Config, client provider.Client, logger *slog.Logger, m *metrics.Collector, tracer *tracing.Tracer) *report.Service {
	return report.NewService(client, report.Options{
		CacheTTL:   cfg.Cache.TTL,
		Metric:     cfg.Provider.Metric,
		TagKeys:    cfg.Provider.TagKeys,
		RetryDelay: cfg.Provider.RetryDelay,
		Logger:     logger,
		Metrics:    m,
		Tracer:     tracer.Tracer(),
	})
}

func newBudgetStore(cfg *config.BudgetsConfig) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		store, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open budget store: %w", err)
		}
		return store, nil
	case config.BackendMemory:
		return storage.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unsupported budget backend: %s", cfg.Backend)
}

func newBudgetEngine(cfg *config.Config, logger *slog.Logger, m *metrics.Collector) (*budget.Engine, error) {
	store, err := newBudgetStore(&cfg.Budgets)
	if err != nil {
		return nil, err
	}
	return budget.NewEngine(budget.Options{
		Store:             store,
		DefaultThresholds: cfg.Budgets.DefaultThresholds,
		DefaultCurrency:   cfg.Budgets.DefaultCurrency,
		DefaultPeriod:     cfg.Budgets.DefaultPeriod,
		Logger:            logger,
		Metrics:           m,
	}), nil
}

// newHealthChecker registers the readiness checks for the provider gate and
// the budget store.
func newHealthChecker(reports *report.Service, client provider.Client, engine *budget.Engine) *health.Checker {
	checker := health.New(0)
	checker.RegisterCheck("provider", func(ctx context.Context) error {
		if client == nil {
			return health.ErrDisabled
		}
		if reports.Identity() == nil {
			return provider.ErrNotValidated
		}
		return nil
	})
	checker.RegisterCheck("budgets", func(ctx context.Context) error {
		_, err := engine.ListBudgets(ctx, "")
		return err
	})
	return checker
}
