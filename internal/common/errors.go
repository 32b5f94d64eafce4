package common

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrInternal     = errors.New("internal error")
)

// ExtractionError is a fatal failure to turn file bytes into text
// (corrupt file, unsupported encoding). The import moves to FAILED.
type ExtractionError struct {
	Format string
	Cause  error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed (%s): %v", e.Format, e.Cause)
}

func (e *ExtractionError) Unwrap() error { return e.Cause }

// StructuringError is a fatal failure of the AI structuring call. Not
// retried automatically; the import moves to FAILED.
type StructuringError struct {
	Cause error
}

func (e *StructuringError) Error() string {
	return fmt.Sprintf("structuring failed: %v", e.Cause)
}

func (e *StructuringError) Unwrap() error { return e.Cause }

// QuotaExceededError aborts a materialization run when a plan ceiling is
// reached for one entity type. Carries what the caller needs to render an
// upgrade prompt.
type QuotaExceededError struct {
	EntityType    string
	Current       int
	Limit         int
	SuggestedPlan string
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: %d of %d allowed", e.EntityType, e.Current, e.Limit)
}

// NotFoundError names the missing resource; surfaced verbatim to the caller.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s not found: %s", e.Resource, e.Key)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// StateError rejects an operation invoked against an import whose status
// does not allow it.
type StateError struct {
	Status string
	Op     string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("cannot %s import in status %s", e.Op, e.Status)
}

func (e *StateError) Is(target error) bool { return target == ErrConflict }

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
