package middleware

import (
	"net/http"
	"strings"

	"mercator-hq/saturn/pkg/telemetry/logging"
)

const (
	// AccountIDHeader selects the account a request acts on.
	AccountIDHeader = "X-Account-ID"

	// DefaultAccountID is used when the header is absent.
	DefaultAccountID = "default"
)

// AccountMiddleware stores the acting account in the request context.
func AccountMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account := strings.TrimSpace(r.Header.Get(AccountIDHeader))
		if account == "" {
			account = DefaultAccountID
		}
		next.ServeHTTP(w, r.WithContext(logging.WithAccountID(r.Context(), account)))
	})
}

// BodyLimitMiddleware caps request bodies at maxBytes. Zero disables the cap.
func BodyLimitMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}
