package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the caller's context ends before
	// a response is obtained.
	ErrContextCancelled = errors.New("context cancelled")
)

// ErrorKind classifies a failed API call.
type ErrorKind string

const (
	// KindAuth represents 401 responses.
	KindAuth ErrorKind = "auth"

	// KindForbidden represents 403 responses.
	KindForbidden ErrorKind = "forbidden"

	// KindNotFound represents 404 responses.
	KindNotFound ErrorKind = "not_found"

	// KindRateLimited represents 429 responses from the appliance.
	KindRateLimited ErrorKind = "rate_limited"

	// KindAPI represents any other non-2xx response.
	KindAPI ErrorKind = "api"

	// KindTransport represents connection and timeout failures before a
	// status code was obtained.
	KindTransport ErrorKind = "transport"
)

// APIError is the typed failure produced for every unsuccessful call.
type APIError struct {
	// StatusCode is the HTTP status, 0 for transport failures.
	StatusCode int
	Kind       ErrorKind
	Message    string

	// Response holds the decoded JSON error body when there was one.
	Response map[string]any

	Err error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "vectra %s error", e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of an APIError in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsAuth reports whether err is a 401 or 403 from the API.
func IsAuth(err error) bool {
	kind := KindOf(err)
	return kind == KindAuth || kind == KindForbidden
}

// IsTransport reports whether err is a connection or timeout failure.
func IsTransport(err error) bool {
	return KindOf(err) == KindTransport
}

// shouldRetry reports whether a failure of the given kind may be retried.
// Status-level failures are returned to the caller immediately.
func shouldRetry(kind ErrorKind) bool {
	return kind == KindTransport
}

// classifyStatus maps a non-2xx response to its APIError. It returns nil for
// 2xx statuses.
func classifyStatus(status int, body []byte) *APIError {
	switch {
	case status == http.StatusUnauthorized:
		return &APIError{StatusCode: status, Kind: KindAuth, Message: "Authentication failed - check credentials"}
	case status == http.StatusForbidden:
		return &APIError{StatusCode: status, Kind: KindForbidden, Message: "Access forbidden - insufficient permissions"}
	case status == http.StatusNotFound:
		return &APIError{StatusCode: status, Kind: KindNotFound, Message: "Resource not found"}
	case status == http.StatusTooManyRequests:
		return &APIError{StatusCode: status, Kind: KindRateLimited, Message: "Rate limit exceeded"}
	case status >= 200 && status < 300:
		return nil
	}

	apiErr := &APIError{
		StatusCode: status,
		Kind:       KindAPI,
		Message:    fmt.Sprintf("API request failed with status %d", status),
	}

	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Response = payload
		if msg, ok := payload["message"]; ok {
			apiErr.Message += fmt.Sprintf(": %v", msg)
		}
		return apiErr
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		apiErr.Message += ": " + text
	}
	return apiErr
}
