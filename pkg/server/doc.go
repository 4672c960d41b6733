// Package server provides the HTTP API over the cost, budget and share
// components.
//
// # Routes
//
// Every /api route acts on the account named by X-Account-ID ("default"
// when absent).
//
//   - POST   /api/credentials/validate  validate provider credentials
//   - GET    /api/costs                 aggregated costs (?start=&end=)
//   - POST   /api/costs/upload          ingest a CSV export (raw body or multipart "file")
//   - POST   /api/cache/flush           invalidate cached cost reports
//   - GET    /api/cache/stats           cost and share cache statistics
//   - GET    /api/budgets               list budgets
//   - POST   /api/budgets               create or update a budget
//   - DELETE /api/budgets/{id}          delete a budget
//   - GET    /api/budgets/utilization   utilization against the current report
//   - POST   /api/budgets/alerts        generate notifications from utilization
//   - GET    /api/notifications         list notifications
//   - POST   /api/notifications/{id}/ack
//   - POST   /api/shares                create a shareable snapshot
//   - GET    /api/shares                list active shares
//   - GET    /api/shares/{id}           read a share (X-Share-Password)
//   - GET    /api/shares/{id}/stats     share statistics without counting a view
//   - POST   /api/shares/cleanup        sweep expired shares
//   - GET    /api/export/csv            CSV export (?detailed=true)
//   - GET    /api/export/json           JSON export
//   - GET    /health                    liveness
//   - GET    /ready                     readiness checks, 503 when not ready
//
// The metrics endpoint is mounted at telemetry.metrics.path when enabled.
//
// # Errors
//
// Failures are returned as {"error": "...", "code": "..."}. Share lookups map
// to 404, 403 and 429 by kind; provider failures map to 401, 403, 429 and 504.
// Unclassified failures return 500 with a generic message and are logged.
//
// # Graceful Shutdown
//
// Start blocks until the context is cancelled, SIGINT or SIGTERM is received,
// or Shutdown is called. In-flight requests get up to
// server.shutdown_timeout to finish.
package server
