package llm

import (
	"errors"
	"fmt"
)

// APIError is a non-2xx response from the provider.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm provider: HTTP %d: %s", e.StatusCode, e.Message)
}

// NetworkError is a transport-level failure (connect, TLS, timeout).
type NetworkError struct {
	Cause error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("llm provider: %v", e.Cause)
}

func (e *NetworkError) Unwrap() error { return e.Cause }

// ConfigurationError indicates the client is missing required settings.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return "llm client: " + e.Message
}

// Retryable reports whether a completion error is worth retrying:
// rate limits, server errors, and network failures.
func Retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode >= 500
	}
	var netErr *NetworkError
	return errors.As(err, &netErr)
}
