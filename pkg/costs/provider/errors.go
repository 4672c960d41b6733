package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"

	"github.com/aws/smithy-go"
)

// Kind classifies a provider failure.
type Kind string

const (
	KindAccessDenied Kind = "access_denied"
	KindThrottled    Kind = "throttled"
	KindTimeout      Kind = "timeout"
	KindGeneric      Kind = "generic"
)

// Sentinel errors for errors.Is matching against an *Error's kind.
var (
	// ErrNotValidated is returned when cost data is requested before
	// credentials have been validated.
	ErrNotValidated = errors.New("credentials not validated")

	ErrAccessDenied = errors.New("access denied")
	ErrThrottled    = errors.New("request throttled")
	ErrTimeout      = errors.New("request timed out")
)

// orgMemberMessage replaces the access-denied message when the account is a
// member of an organization whose management account restricts cost data.
const orgMemberMessage = "access denied: this account appears to be a member of an organization; " +
	"cost data is only available from the management account or when it grants member access"

// Error is a classified provider failure.
type Error struct {
	// Kind is the failure class.
	Kind Kind

	// Op is the API operation that failed, such as "GetCostAndUsage".
	Op string

	// Message is a human-readable explanation.
	Message string

	// OrgMember is set for access-denied failures caused by organization
	// membership rather than missing permissions.
	OrgMember bool

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying error for error chain support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrAccessDenied:
		return e.Kind == KindAccessDenied
	case ErrThrottled:
		return e.Kind == KindThrottled
	case ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

// Retryable reports whether the failure class may succeed on a retry.
func (e *Error) Retryable() bool {
	return e.Kind == KindThrottled || e.Kind == KindTimeout
}

// NewError creates a classified provider error.
func NewError(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

var (
	accessDeniedCodes = map[string]struct{}{
		"AccessDeniedException":       {},
		"AccessDenied":                {},
		"UnauthorizedOperation":       {},
		"UnrecognizedClientException": {},
	}
	throttleCodes = map[string]struct{}{
		"ThrottlingException":      {},
		"Throttling":               {},
		"LimitExceededException":   {},
		"TooManyRequestsException": {},
		"RequestLimitExceeded":     {},
	}
	timeoutCodes = map[string]struct{}{
		"RequestTimeout":          {},
		"RequestTimeoutException": {},
	}
)

// Classify converts any error into an *Error. Errors that already are an
// *Error are returned unchanged; nil yields nil.
func Classify(op string, err error) *Error {
	if err == nil {
		return nil
	}

	var pe *Error
	if errors.As(err, &pe) {
		return pe
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		msg := apiErr.ErrorMessage()
		if msg == "" {
			msg = code
		}
		if _, ok := accessDeniedCodes[code]; ok {
			return accessDenied(op, msg, err)
		}
		if _, ok := throttleCodes[code]; ok {
			return NewError(KindThrottled, op, msg, err)
		}
		if _, ok := timeoutCodes[code]; ok {
			return NewError(KindTimeout, op, msg, err)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return NewError(KindTimeout, op, "deadline exceeded", err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewError(KindTimeout, op, netErr.Error(), err)
	}

	// Connection resets are transient and retried like timeouts.
	if errors.Is(err, syscall.ECONNRESET) || strings.Contains(strings.ToLower(err.Error()), "connection reset") {
		return NewError(KindTimeout, op, "connection reset", err)
	}

	return NewError(KindGeneric, op, err.Error(), err)
}

func accessDenied(op, msg string, cause error) *Error {
	e := NewError(KindAccessDenied, op, msg, cause)
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "organization") || strings.Contains(lower, "linked account") || strings.Contains(lower, "member account") {
		e.OrgMember = true
		e.Message = orgMemberMessage
	}
	return e
}
