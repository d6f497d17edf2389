package rewards

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions.
var (
	// ErrNoURL is returned when the sink has no backend URL.
	ErrNoURL = errors.New("rewards: backend URL required")

	// ErrNoAPIKey is returned when the sink has no API key.
	ErrNoAPIKey = errors.New("rewards: API key required")

	// ErrQueueFull is returned when the dispatcher cannot accept more events.
	ErrQueueFull = errors.New("rewards: queue full")

	// ErrClosed is returned when recording after Close.
	ErrClosed = errors.New("rewards: dispatcher closed")
)

// APIError represents an error response from the rewards backend.
type APIError struct {
	// StatusCode is the HTTP status code.
	StatusCode int

	// Message is the error message from the API.
	Message string

	// Code is the PostgREST error code (if provided).
	Code string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("rewards: API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("rewards: API error %d: %s", e.StatusCode, e.Message)
}

// IsConflict returns true if the row already exists (HTTP 409).
// Event IDs are unique, so a conflict means the event was already recorded.
func (e *APIError) IsConflict() bool {
	return e.StatusCode == 409
}

// IsUnauthorized returns true if this is an authentication error (HTTP 401).
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == 401
}

// IsServerError returns true if this is a server-side error (HTTP 5xx).
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500 && e.StatusCode < 600
}
