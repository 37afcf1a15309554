package fetch

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/snx/internal/shared"
)

var (
	// ErrInvalidTotal is returned when a listing's total count is missing or not a finite, non-negative number.
	ErrInvalidTotal = fmt.Errorf("%w: invalid total count", shared.ErrAPIRequest)

	// ErrStop may be returned from [PageSpec.Each] to end a sweep early without recording a failure.
	ErrStop = errors.New("stop sweep")
)

// TransportError is a network level failure (DNS, connection reset, timeout).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: transport error: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Method, e.URL, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// AuthError is a 401 response; the session token is missing, stale or revoked.
type AuthError struct {
	StatusError
}

func (e *AuthError) Unwrap() error { return &e.StatusError }

// ServerError is a 5xx response.
type ServerError struct {
	StatusError
}

func (e *ServerError) Unwrap() error { return &e.StatusError }

// RequestExhausted is returned once every attempt allowed by the [Policy] has failed.
type RequestExhausted struct {
	Method     string
	URL        string
	Retries    int
	Attempts   int
	StatusCode int // zero when the last failure was a transport error
	Err        error
}

func (e *RequestExhausted) Error() string {
	return fmt.Sprintf("request exhausted after %d attempts (%d retries): %v", e.Attempts, e.Retries, e.Err)
}

func (e *RequestExhausted) Unwrap() error { return e.Err }

// Is lets callers match any exhausted request against [shared.ErrAPIRequest].
func (e *RequestExhausted) Is(target error) bool {
	return target == shared.ErrAPIRequest
}

const maxErrorBody = 256

// classify converts a non-2xx status into the matching typed error.
func classify(method, url string, code int, body []byte) error {
	se := StatusError{
		Method:     method,
		URL:        url,
		StatusCode: code,
		Status:     fmt.Sprintf("%d %s", code, http.StatusText(code)),
		Body:       truncate(string(body), maxErrorBody),
	}

	switch {
	case code == http.StatusUnauthorized:
		return &AuthError{StatusError: se}
	case code >= 500:
		return &ServerError{StatusError: se}
	default:
		return &se
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
