package integrations

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

const httpTimeout = 120 * time.Second

var (
	// ErrNotFound is returned when a resource doesn't exist on the service.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// StatusError reports an unexpected HTTP status.
type StatusError struct {
	StatusCode int
	Body       string // response body, truncated
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Unwrap makes every StatusError match ErrNetwork.
func (e *StatusError) Unwrap() error { return ErrNetwork }

// NewHTTPClient creates an HTTP client with the given timeout. A
// non-positive timeout uses the default, sized for synchronous generation.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = httpTimeout
	}
	return &http.Client{Timeout: timeout}
}
