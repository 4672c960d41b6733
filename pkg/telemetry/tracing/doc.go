// Package tracing provides OpenTelemetry tracing for Saturn.
//
// When enabled, spans are batched and exported over OTLP gRPC. A disabled
// tracer hands out noop spans, so callers never need to check Enabled
// before starting a span.
//
// Incoming W3C traceparent headers are honored by Middleware, which starts
// one server span per API request. The report service adds child spans for
// each cost provider call.
//
//	tracer, err := tracing.New(cfg.Telemetry.Tracing, version)
//	if err != nil {
//	    return err
//	}
//	defer tracer.Shutdown(context.Background())
//
//	ctx, span := tracer.Start(ctx, "costs.fetch")
//	defer span.End()
package tracing
