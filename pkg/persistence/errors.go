// Package persistence provides standardized error types for persistence
// operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrPlaybookNotFound indicates a playbook was not found by the given identifier.
	ErrPlaybookNotFound = errors.New("playbook not found")

	// ErrExecutionNotFound indicates an execution was not found by the given identifier.
	ErrExecutionNotFound = errors.New("execution not found")

	// ErrPlaybookAlreadyExists indicates a playbook with the same identifier already exists.
	ErrPlaybookAlreadyExists = errors.New("playbook already exists")

	// ErrConflict indicates the stored copy changed since the caller last read it.
	ErrConflict = errors.New("playbook was modified concurrently")

	// ErrInvalidState indicates an operation was attempted against a playbook
	// whose status does not permit it, e.g. executing a draft.
	ErrInvalidState = errors.New("playbook is not in a valid state for this operation")

	// ErrValidationFailed indicates server-side structural checks rejected the playbook.
	ErrValidationFailed = errors.New("playbook failed validation")

	// ErrNetwork indicates a transport failure talking to the backing store.
	ErrNetwork = errors.New("network error")
)

// PlaybookError wraps playbook-related errors with additional context.
type PlaybookError struct {
	Op         string // Operation being performed (e.g. "GetByID", "Save", "Execute")
	PlaybookID string // Playbook ID if applicable
	Err        error  // Underlying error
}

func (e *PlaybookError) Error() string {
	return fmt.Sprintf("%s operation failed for playbook %s: %v", e.Op, e.PlaybookID, e.Err)
}

func (e *PlaybookError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for playbook errors.
func (e *PlaybookError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewPlaybookError creates a new playbook error with context.
func NewPlaybookError(op, playbookID string, err error) *PlaybookError {
	return &PlaybookError{
		Op:         op,
		PlaybookID: playbookID,
		Err:        err,
	}
}

// ExecutionError wraps execution-related errors with additional context.
type ExecutionError struct {
	Op          string
	ExecutionID string
	Err         error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("%s operation failed for execution %s: %v", e.Op, e.ExecutionID, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

func (e *ExecutionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsPlaybookNotFound checks if an error indicates a playbook was not found.
func IsPlaybookNotFound(err error) bool {
	return errors.Is(err, ErrPlaybookNotFound)
}

// IsExecutionNotFound checks if an error indicates an execution was not found.
func IsExecutionNotFound(err error) bool {
	return errors.Is(err, ErrExecutionNotFound)
}

// IsConflict checks if an error indicates a concurrent modification.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidState checks if an error indicates a status that forbids the operation.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsValidationFailed checks if an error indicates rejected server-side checks.
func IsValidationFailed(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

// IsNetwork checks if an error indicates a transport failure.
func IsNetwork(err error) bool {
	return errors.Is(err, ErrNetwork)
}
