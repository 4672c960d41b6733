// Package health provides the readiness probe for the API server.
//
// Components register a named CheckFunc. CheckReadiness runs every check
// concurrently, each under its own timeout, and reports "ready" only when
// no check failed. A check may return ErrDisabled to report a component
// that is intentionally not configured; disabled components do not make
// the service unready.
//
//	checker := health.New(2 * time.Second)
//	checker.RegisterCheck("budgets", func(ctx context.Context) error {
//	    _, err := engine.ListBudgets(ctx, "")
//	    return err
//	})
//	router.Handle("/ready", checker.ReadinessHandler())
package health
