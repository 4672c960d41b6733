// Package middleware provides HTTP middleware for the API server.
//
// # Middleware Chain
//
//	handler = Recovery(Logging(RequestID(Tracing(Account(BodyLimit(handler))))))
//
// Order (innermost to outermost):
//  1. BodyLimit: cap request body size
//  2. Account: resolve the acting account from X-Account-ID
//  3. Tracing: start a server span, honoring incoming traceparent
//  4. RequestID: generate and propagate X-Request-ID
//  5. Logging: log method, path, status and latency
//  6. Recovery: turn panics into a 500 JSON error
//
// Request, account and share identifiers are stored with the helpers in
// pkg/telemetry/logging, so every record logged with the request context
// carries them.
package middleware
