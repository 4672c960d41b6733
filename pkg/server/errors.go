package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"mercator-hq/saturn/pkg/costs/ingest"
	"mercator-hq/saturn/pkg/costs/provider"
	"mercator-hq/saturn/pkg/costs/report"
	"mercator-hq/saturn/pkg/share"
)

// errorResponse is the JSON body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// RequestError is a client error detected at the API boundary.
type RequestError struct {
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

func badRequest(format string, args ...any) error {
	return &RequestError{Message: fmt.Sprintf(format, args...)}
}

// classify maps err to a status code and error code. ok is false for
// unclassified failures, whose message must not reach the client.
func classify(err error) (status int, code string, ok bool) {
	var reqErr *RequestError
	var maxBytes *http.MaxBytesError

	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "body_too_large", true
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, "invalid_request", true
	case errors.Is(err, share.ErrNotFound):
		return http.StatusNotFound, "share_not_found", true
	case errors.Is(err, share.ErrInvalidPassword):
		return http.StatusForbidden, "invalid_password", true
	case errors.Is(err, share.ErrViewLimitExceeded):
		return http.StatusTooManyRequests, "view_limit_exceeded", true
	case errors.Is(err, share.ErrInvalidExpiration):
		return http.StatusBadRequest, "invalid_expiration", true
	case errors.Is(err, provider.ErrNotValidated):
		return http.StatusUnauthorized, "not_validated", true
	case errors.Is(err, provider.ErrAccessDenied):
		return http.StatusForbidden, "access_denied", true
	case errors.Is(err, provider.ErrThrottled):
		return http.StatusTooManyRequests, "throttled", true
	case errors.Is(err, provider.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout", true
	case errors.Is(err, ingest.ErrEmptySource):
		return http.StatusBadRequest, "empty_source", true
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format", true
	case errors.Is(err, report.ErrInvalidWindow):
		return http.StatusBadRequest, "invalid_window", true
	case errors.Is(err, report.ErrNoProvider):
		return http.StatusServiceUnavailable, "no_provider", true
	}
	return http.StatusInternalServerError, "internal_error", false
}

// writeError writes err as a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, ok := classify(err)
	msg := err.Error()
	if !ok {
		s.logger.ErrorContext(r.Context(), "request failed", "error", err, "path", r.URL.Path)
		msg = "An internal error occurred. Please try again later."
	}
	s.writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// writeNotFound writes a 404 for a missing resource.
func (s *Server) writeNotFound(w http.ResponseWriter, resource string) {
	s.writeJSON(w, http.StatusNotFound, errorResponse{
		Error: resource + " not found",
		Code:  resource + "_not_found",
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to encode response", "error", err)
	}
}
