package httpclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kbukum/ranchkit/resilience"
)

// ErrorCode classifies HTTP client errors.
type ErrorCode int

const (
	// ErrCodeTimeout indicates a request deadline was exceeded.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, DNS, reset).
	ErrCodeConnection
	// ErrCodeCanceled indicates the caller canceled the request.
	ErrCodeCanceled
	// ErrCodeAuth indicates 401/403.
	ErrCodeAuth
	// ErrCodeNotFound indicates 404.
	ErrCodeNotFound
	// ErrCodeRateLimit indicates 429.
	ErrCodeRateLimit
	// ErrCodeClient indicates another 4xx or a request that could not be built.
	ErrCodeClient
	// ErrCodeServer indicates 5xx or an unexpected status.
	ErrCodeServer
	// ErrCodeCircuitOpen indicates the circuit breaker refused the request.
	ErrCodeCircuitOpen
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeCanceled:
		return "canceled"
	case ErrCodeAuth:
		return "auth"
	case ErrCodeNotFound:
		return "not_found"
	case ErrCodeRateLimit:
		return "rate_limit"
	case ErrCodeClient:
		return "client"
	case ErrCodeServer:
		return "server"
	case ErrCodeCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// Error is a classified HTTP client error. Status failures carry the status
// code and text; transport failures carry the underlying error.
type Error struct {
	StatusCode int
	StatusText string
	Code       ErrorCode
	Message    string
	Retryable  bool
	Body       []byte
	Err        error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d %s): %s", e.Code, e.StatusCode, e.StatusText, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Message: err.Error(), Retryable: true, Err: err}
}

// NewConnectionError creates a connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Message: err.Error(), Retryable: true, Err: err}
}

// NewCanceledError creates a cancellation error.
func NewCanceledError(err error) *Error {
	return &Error{Code: ErrCodeCanceled, Message: "request canceled", Err: err}
}

// NewRequestError creates an error for a request that could not be built.
func NewRequestError(msg string, err error) *Error {
	return &Error{Code: ErrCodeClient, Message: msg, Err: err}
}

// NewCircuitOpenError creates the error of a request refused by an open
// circuit breaker.
func NewCircuitOpenError(name string) *Error {
	return &Error{
		Code:    ErrCodeCircuitOpen,
		Message: fmt.Sprintf("%s is failing, requests are paused", name),
		Err:     resilience.ErrCircuitOpen,
	}
}

// ClassifyStatus converts a non-2xx status into a typed error. It returns
// nil for 2xx.
func ClassifyStatus(statusCode int, status string, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}
	e := &Error{
		StatusCode: statusCode,
		StatusText: statusText(statusCode, status),
		Message:    messageFromBody(body),
		Body:       body,
	}
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeClient
	case statusCode >= 500:
		e.Code, e.Retryable = ErrCodeServer, true
	default:
		e.Code = ErrCodeServer
	}
	if e.Message == "" {
		e.Message = e.StatusText
	}
	return e
}

// statusText prefers the server's reason phrase from the status line.
func statusText(code int, status string) string {
	if _, reason, ok := strings.Cut(status, " "); ok && reason != "" {
		return reason
	}
	return http.StatusText(code)
}

// messageFromBody extracts a short message from a JSON error envelope of the
// form {"error":{"message":...}} or {"message":...}.
func messageFromBody(body []byte) string {
	var env struct {
		Message string `json:"message"`
		Error   struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if len(body) == 0 || json.Unmarshal(body, &env) != nil {
		return ""
	}
	if env.Error.Message != "" {
		return env.Error.Message
	}
	return env.Message
}

// StatusCodeOf returns the HTTP status carried by err, or 0.
func StatusCodeOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool { return hasCode(err, ErrCodeTimeout) }

// IsCanceled checks if an error is a cancellation.
func IsCanceled(err error) bool { return hasCode(err, ErrCodeCanceled) }

// IsAuth checks if an error is an authentication error.
func IsAuth(err error) bool { return hasCode(err, ErrCodeAuth) }

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool { return hasCode(err, ErrCodeNotFound) }

// IsCircuitOpen checks if an error is a request refused by an open circuit
// breaker.
func IsCircuitOpen(err error) bool { return hasCode(err, ErrCodeCircuitOpen) }

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

func hasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}
