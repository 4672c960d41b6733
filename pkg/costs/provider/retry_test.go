package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"mercator-hq/saturn/pkg/telemetry/metrics"

	"github.com/aws/smithy-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestRetrier(collector *metrics.Collector) (*Retrier, *[]time.Duration) {
	r := NewRetrier(time.Second, nil, collector)
	var slept []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		slept = append(slept, d)
		return ctx.Err()
	}
	return r, &slept
}

func TestDo_RetriesOnceOnThrottle(t *testing.T) {
	collector := metrics.NewCollector(nil, nil)
	r, slept := newTestRetrier(collector)

	calls := 0
	_, err := Do(context.Background(), r, "GetCostAndUsage", func(context.Context) (int, error) {
		calls++
		return 0, &smithy.GenericAPIError{Code: "ThrottlingException"}
	})

	if calls != MaxAttempts {
		t.Errorf("Expected %d attempts under sustained throttling, got %d", MaxAttempts, calls)
	}
	if !errors.Is(err, ErrThrottled) {
		t.Errorf("Expected ErrThrottled, got %v", err)
	}
	if len(*slept) != 1 || (*slept)[0] != time.Second {
		t.Errorf("Expected one fixed 1s delay, got %v", *slept)
	}

	count, err := testutil.GatherAndCount(collector.Registry(), "saturn_provider_retries_total")
	if err != nil || count != 1 {
		t.Errorf("Expected one retry series, got %d (%v)", count, err)
	}
}

func TestDo_SucceedsAfterRetry(t *testing.T) {
	r, _ := newTestRetrier(nil)

	calls := 0
	got, err := Do(context.Background(), r, "GetCostAndUsage", func(context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", context.DeadlineExceeded
		}
		return "ok", nil
	})

	if err != nil {
		t.Fatalf("Expected success after retry, got %v", err)
	}
	if got != "ok" || calls != 2 {
		t.Errorf("Expected ok after 2 calls, got %q after %d", got, calls)
	}
}

func TestDo_NoRetryOnAccessDenied(t *testing.T) {
	r, slept := newTestRetrier(nil)

	calls := 0
	_, err := Do(context.Background(), r, "GetCostAndUsage", func(context.Context) (int, error) {
		calls++
		return 0, &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "denied"}
	})

	if calls != 1 {
		t.Errorf("Expected a single attempt, got %d", calls)
	}
	if len(*slept) != 0 {
		t.Errorf("Expected no delay, got %v", *slept)
	}
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("Expected ErrAccessDenied, got %v", err)
	}
}

func TestDo_ContextCanceledDuringDelay(t *testing.T) {
	r, _ := newTestRetrier(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := Do(ctx, r, "GetCostAndUsage", func(context.Context) (int, error) {
		calls++
		return 0, &smithy.GenericAPIError{Code: "ThrottlingException"}
	})

	if calls != 1 {
		t.Errorf("Expected retry to be abandoned, got %d calls", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled in chain, got %v", err)
	}
}
