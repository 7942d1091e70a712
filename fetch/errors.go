package fetch

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// FetchError indicates a network or HTTP failure while retrieving content.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no HTTP response was received
	Cause      error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

// AuthError indicates missing or rejected platform credentials.
type AuthError struct {
	Platform Platform
	Reason   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth: %s", e.Platform, e.Reason)
}

// NotFoundError indicates the content is unavailable, private, or deleted.
type NotFoundError struct {
	URL string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("content not found: %s", e.URL)
}

// TimeoutError indicates a bounded network step exceeded its budget.
type TimeoutError struct {
	URL   string
	Cause error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("fetch %s: timed out", e.URL)
}

func (e *TimeoutError) Unwrap() error { return e.Cause }

// Transient reports whether an error belongs to a retryable failure class:
// timeouts and server-side HTTP errors. Auth and not-found errors are never
// transient.
func Transient(err error) bool {
	var te *TimeoutError
	if errors.As(err, &te) {
		return true
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		if fe.StatusCode >= 500 {
			return true
		}
		if fe.StatusCode == 0 {
			var netErr net.Error
			if errors.As(fe.Cause, &netErr) && netErr.Timeout() {
				return true
			}
		}
	}
	return errors.Is(err, context.DeadlineExceeded)
}
