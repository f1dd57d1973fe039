// Package services provides the business layer between transport and
// persistence for playbooks and executions.
package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cadencehq/cadence/pkg/validation"
)

// Business logic errors. These indicate client errors (4xx responses).
var (
	// Validation errors (400 Bad Request).
	ErrInvalidRequest      = errors.New("invalid request")
	ErrPlaybookNil         = errors.New("playbook cannot be nil")
	ErrCustomerIDRequired  = errors.New("customer ID is required")
	ErrPlaybookIDRequired  = errors.New("playbook ID is required")
	ErrExecutionIDRequired = errors.New("execution ID is required")

	// Business logic conflicts (409/422).
	ErrCannotModifyArchived = errors.New("cannot modify archived playbook")
	ErrAlreadyActive        = errors.New("playbook is already active")
)

// InvalidPlaybookError carries the structural violations that blocked an
// activation or execution attempt. The playbook stays editable; the request
// is rejected before it ever reaches the persistence collaborator.
type InvalidPlaybookError struct {
	PlaybookID string
	Errors     []validation.Error
}

func (e *InvalidPlaybookError) Error() string {
	messages := make([]string, 0, len(e.Errors))
	for _, validationError := range e.Errors {
		messages = append(messages, validationError.Error())
	}

	return fmt.Sprintf("playbook %s is invalid: %s", e.PlaybookID, strings.Join(messages, "; "))
}

// IsInvalidPlaybook reports whether err carries structural violations.
func IsInvalidPlaybook(err error) bool {
	var invalid *InvalidPlaybookError

	return errors.As(err, &invalid)
}

// IsValidationError checks if an error is a request validation error that
// should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrPlaybookNil) ||
		errors.Is(err, ErrCustomerIDRequired) ||
		errors.Is(err, ErrPlaybookIDRequired) ||
		errors.Is(err, ErrExecutionIDRequired)
}

// IsConflictError checks if an error is a business logic conflict.
func IsConflictError(err error) bool {
	return errors.Is(err, ErrCannotModifyArchived) ||
		errors.Is(err, ErrAlreadyActive)
}
