package models

import "time"

// ExecutionStatus defines the possible states of a playbook execution.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
	ExecutionStatusCancelled ExecutionStatus = "cancelled"
)

// IsTerminal reports whether the status admits no further transitions.
func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed || s == ExecutionStatusCancelled
}

// StepResult is the recorded outcome of one executed step.
type StepResult struct {
	StepID     string         `json:"stepId"`
	ActionType ActionType     `json:"actionType"`
	Status     string         `json:"status"`
	Output     map[string]any `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// Execution is a runtime instance of a playbook applied to one customer.
// It is owned by the execution tracker and never mutated by the editor.
type Execution struct {
	ID          string          `json:"id"`
	PlaybookID  string          `json:"playbookId"`
	CustomerID  string          `json:"customerId"`
	Status      ExecutionStatus `json:"status"`
	Results     []*StepResult   `json:"results,omitempty"`
	Error       string          `json:"error,omitempty"`
	StartedAt   time.Time       `json:"startedAt"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
}

// Clone returns a deep copy of the execution.
func (e *Execution) Clone() *Execution {
	if e == nil {
		return nil
	}

	clone := *e

	if e.CompletedAt != nil {
		completedAt := *e.CompletedAt
		clone.CompletedAt = &completedAt
	}

	if e.Results != nil {
		clone.Results = make([]*StepResult, 0, len(e.Results))
		for _, result := range e.Results {
			resultCopy := *result
			if result.Output != nil {
				resultCopy.Output = make(map[string]any, len(result.Output))
				for k, v := range result.Output {
					resultCopy.Output[k] = v
				}
			}

			clone.Results = append(clone.Results, &resultCopy)
		}
	}

	return &clone
}
