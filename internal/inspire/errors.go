package inspire

import (
	"errors"
	"fmt"
)

// Common errors returned by the INSPIRE client.
var (
	// ErrNotFound indicates the identifier has no INSPIRE record.
	ErrNotFound = errors.New("not found in INSPIRE")

	// ErrNetworkError indicates a transport-level failure.
	ErrNetworkError = errors.New("network error communicating with INSPIRE")

	// ErrInvalidResponse indicates an unexpected payload from the API.
	ErrInvalidResponse = errors.New("invalid response from INSPIRE")
)

// APIError represents a non-success HTTP response from the INSPIRE API.
type APIError struct {
	StatusCode int
	Token      string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("INSPIRE API error (status %d) for %q", e.StatusCode, e.Token)
}

// IsNotFound returns true if the error means the record is absent. Any
// non-success API status counts: the registry is queried once, never
// retried, and a failed lookup falls through to the manual bibliography.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
