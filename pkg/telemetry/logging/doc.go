// Package logging builds the process slog logger.
//
// # Overview
//
// New returns a *slog.Logger for one of three formats:
//   - json: one JSON object per line
//   - text: slog key=value output
//   - console: key=value output with a short clock time, for terminals
//
// Every logger built by New is wrapped in a context handler. Records logged
// with a context (InfoContext and friends) carry request_id, account_id and
// share_id when the context holds them.
//
// # Usage
//
//	logger, err := logging.New(logging.Config{Level: "info", Format: "json"})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
//	ctx = logging.WithRequestID(ctx, "req-123")
//	logger.InfoContext(ctx, "request handled") // includes request_id
package logging
