package portal

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid portal configuration")
	// ErrPollerRunning indicates the background poller is already active
	ErrPollerRunning = errors.New("background asset polling is already running")
	// ErrClientClosed indicates the client has been closed
	ErrClientClosed = errors.New("portal client is closed")
)

// ValidationError indicates caller-side misuse: a required identifier that is
// neither passed explicitly nor cached, a malformed period string, or a poll
// interval below the floor. It is always returned immediately, before any
// network call, regardless of the captured-errors option.
type ValidationError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("portal validation error: %s: %s", e.Field, e.Reason)
}

// AuthError indicates that the token refresh failed or that the retried call
// was still unauthorized. It is always returned as an error, never captured
// in the result envelope.
type AuthError struct {
	StatusCode int
	Reason     string
	Err        error
}

// Error implements the error interface
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("portal authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("portal authentication failed: %s", e.Reason)
}

// Unwrap returns the underlying error
func (e *AuthError) Unwrap() error {
	return e.Err
}

// SchemaError describes a response body that was well-formed JSON but missing
// or mistyping an expected field. It carries field-level detail and is
// propagated as part of an APIError.
type SchemaError struct {
	Field  string
	Reason string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	return fmt.Sprintf("unexpected response schema: field %q: %s", e.Field, e.Reason)
}

// APIError represents a portal API failure: a non-2xx response after retries
// were exhausted, or a response body that did not match the expected schema.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
	Schema     *SchemaError
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Schema != nil {
		return fmt.Sprintf("portal API error: %s: %v", e.URL, e.Schema)
	}
	return fmt.Sprintf("portal API error: status %d: %s", e.StatusCode, e.URL)
}

// Unwrap exposes the schema detail, when present, to errors.As
func (e *APIError) Unwrap() error {
	if e.Schema != nil {
		return e.Schema
	}
	return nil
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == 404
}

// IsSchema reports whether the failure was a schema mismatch rather than a
// transport-level failure.
func (e *APIError) IsSchema() bool {
	return e.Schema != nil
}
