package engine

import (
	"errors"
	"fmt"
)

// Common sentinel errors. Validation errors are raised synchronously
// before any mutation attempt; local state stays unchanged and no history
// entry is created.
var (
	ErrBlankName       = errors.New("name must not be blank")
	ErrCycle           = errors.New("reparenting would create a cycle")
	ErrProtectedGlobal = errors.New("the Global container is protected")
	ErrNodeNotFound    = errors.New("node not found")
	ErrEdgeNotFound    = errors.New("edge not found")
	ErrObjectNotFound  = errors.New("data object not found")
	ErrLinkNotFound    = errors.New("link not found")
	ErrBusyOperation   = errors.New("operation already in progress")
)

// DuplicateEdgeError rejects a second directed edge for the same ordered
// (source, target) pair. It names the existing edge so the caller can
// select it instead of erroring.
type DuplicateEdgeError struct {
	SourceNodeID   string
	TargetNodeID   string
	ExistingEdgeID string
}

func (e *DuplicateEdgeError) Error() string {
	return fmt.Sprintf("an interface between %s and %s already exists (edge %s)",
		e.SourceNodeID, e.TargetNodeID, e.ExistingEdgeID)
}

// IsDuplicateEdge extracts a DuplicateEdgeError from an error chain.
func IsDuplicateEdge(err error) (*DuplicateEdgeError, bool) {
	var dup *DuplicateEdgeError
	if errors.As(err, &dup) {
		return dup, true
	}
	return nil, false
}

// ModelError provides structured error information for engine operations.
type ModelError struct {
	Op      string // Operation that failed (e.g., "CreateNode", "DeleteEdge")
	Entity  string // Entity type (e.g., "node", "edge", "data object")
	ID      string // Entity ID (if applicable)
	Cause   error  // Underlying error
	Context string // Additional context
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s %s: %v", e.Op, e.Entity, e.ID, e.Cause)
	}
	if e.Context != "" {
		return fmt.Sprintf("%s %s (%s): %v", e.Op, e.Entity, e.Context, e.Cause)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Entity, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ModelError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *ModelError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

// modelErr builds a ModelError in one call; the engine's operations all
// fail through this so callers get a consistent shape.
func modelErr(op, entity, id string, cause error) error {
	return &ModelError{Op: op, Entity: entity, ID: id, Cause: cause}
}

// IsValidation reports whether the error is one of the synchronous
// validation failures (as opposed to a persistence failure).
func IsValidation(err error) bool {
	if _, ok := IsDuplicateEdge(err); ok {
		return true
	}
	return errors.Is(err, ErrBlankName) ||
		errors.Is(err, ErrCycle) ||
		errors.Is(err, ErrProtectedGlobal) ||
		errors.Is(err, ErrNodeNotFound) ||
		errors.Is(err, ErrEdgeNotFound) ||
		errors.Is(err, ErrObjectNotFound)
}
