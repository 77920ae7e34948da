package core

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed command, dangling reference or
// duplicate identity.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "validation: " + e.Reason }

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// ConflictError reports an optimistic-concurrency version mismatch.
type ConflictError struct {
	GraphID  string
	Expected uint64
	Actual   uint64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: graph %s is at version %d, expected %d", e.GraphID, e.Actual, e.Expected)
}

// NotFoundError reports a missing graph, node or edge.
type NotFoundError struct {
	Kind string // "graph", "node" or "edge"
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.ID) }

// UnsupportedTransformError reports a source/target variant pair with no
// registered transformation rule.
type UnsupportedTransformError struct {
	Source Variant
	Target Variant
}

func (e *UnsupportedTransformError) Error() string {
	return fmt.Sprintf("unsupported transform %s -> %s", e.Source, e.Target)
}

// CompositionPolicyError reports an ambiguous merge without a configured
// resolution policy, or an invalid policy for the chosen operator.
type CompositionPolicyError struct {
	Reason string
}

func (e *CompositionPolicyError) Error() string { return "composition policy: " + e.Reason }

// CacheComputationError reports a failed derived-analysis recomputation. It
// is non-fatal: the prior value is retained, tagged stale, and returned
// alongside this error.
type CacheComputationError struct {
	GraphID string
	Version uint64
	Err     error
}

func (e *CacheComputationError) Error() string {
	return fmt.Sprintf("derived analysis for %s@%d failed: %v", e.GraphID, e.Version, e.Err)
}

func (e *CacheComputationError) Unwrap() error { return e.Err }

// IsConflict reports whether err is (or wraps) a ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var ne *NotFoundError
	return errors.As(err, &ne)
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
