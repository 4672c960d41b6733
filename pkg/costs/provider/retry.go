package provider

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/saturn/pkg/telemetry/metrics"
)

// MaxAttempts bounds provider calls to the first try plus one retry.
const MaxAttempts = 2

// Retrier runs provider calls with a single fixed-delay retry for
// throttling and timeout failures. All other failures are returned at once.
type Retrier struct {
	Delay   time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Collector

	// sleep is replaced in tests.
	sleep func(context.Context, time.Duration) error
}

// NewRetrier creates a retrier. logger and collector may be nil.
func NewRetrier(delay time.Duration, logger *slog.Logger, collector *metrics.Collector) *Retrier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retrier{
		Delay:   delay,
		Logger:  logger,
		Metrics: collector,
		sleep:   sleepContext,
	}
}

// Do calls fn until it succeeds, fails with a non-retryable error or
// MaxAttempts is reached. The returned error is always an *Error.
func Do[T any](ctx context.Context, r *Retrier, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	var last *Error

	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		if attempt > 1 {
			r.Metrics.RecordProviderRetry(op)
			r.Logger.Warn("retrying provider call",
				"operation", op,
				"attempt", attempt,
				"delay", r.Delay,
				"error", last,
			)
			if err := r.sleep(ctx, r.Delay); err != nil {
				return zero, Classify(op, err)
			}
		}

		result, err := fn(ctx)
		if err == nil {
			r.Metrics.RecordProviderCall(op, "success")
			return result, nil
		}

		last = Classify(op, err)
		r.Metrics.RecordProviderCall(op, string(last.Kind))
		if !last.Retryable() {
			return zero, last
		}
	}

	return zero, last
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
