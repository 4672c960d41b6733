// Package telemetry groups Saturn's observability packages.
//
//   - logging: slog construction with request, account, share and trace fields
//   - metrics: Prometheus collectors for requests, provider calls and caches
//   - tracing: OpenTelemetry spans exported over OTLP gRPC
//   - health: readiness checks served at /ready
package telemetry
