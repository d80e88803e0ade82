package persistence

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrNotFound    = errors.New("entity not found")
	ErrConflict    = errors.New("entity already exists")
	ErrUnavailable = errors.New("persistence backend unavailable")
)

// RequestError provides structured error information for persistence calls.
type RequestError struct {
	Op     string // Operation that failed (e.g., "CreateNode", "DeleteEdge")
	Entity string // Entity type (e.g., "node", "edge", "savepoint")
	ID     string // Entity ID (if applicable)
	Status int    // HTTP status code (0 for transport failures)
	Cause  error  // Underlying error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *RequestError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *RequestError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
