// Package execution tracks playbook executions as a state machine separate
// from the editor: pending -> running -> {completed | failed | cancelled}.
// Terminal states are final; an observed transition outside the adjacency set
// is a protocol error, flagged and never applied.
package execution

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cadencehq/cadence/pkg/models"
)

// ErrProtocol flags an observed status transition outside the legal
// adjacency set, e.g. completed -> running. It signals a defect in the
// reporting side, not a recoverable user error.
var ErrProtocol = errors.New("illegal execution status transition")

// transitions is the legal adjacency set. Status is observed by polling, so a
// fast execution can finish between two polls: pending admits every terminal
// state, with completion implying a pass through running that was never seen.
// Terminal states admit nothing.
var transitions = map[models.ExecutionStatus][]models.ExecutionStatus{
	models.ExecutionStatusPending: {
		models.ExecutionStatusRunning,
		models.ExecutionStatusCompleted,
		models.ExecutionStatusFailed,
		models.ExecutionStatusCancelled,
	},
	models.ExecutionStatusRunning: {
		models.ExecutionStatusCompleted,
		models.ExecutionStatusFailed,
		models.ExecutionStatusCancelled,
	},
}

// CanTransition reports whether from -> to is in the adjacency set.
func CanTransition(from, to models.ExecutionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}

	return false
}

// Tracker owns the local view of one execution. Observed updates are applied
// only when their status transition is legal.
type Tracker struct {
	mu      sync.Mutex
	current *models.Execution
	logger  *slog.Logger
}

// NewTracker starts tracking from the given execution snapshot, normally the
// pending record returned by the execute call.
func NewTracker(execution *models.Execution, logger *slog.Logger) *Tracker {
	return &Tracker{
		current: execution.Clone(),
		logger:  logger,
	}
}

// Execution returns a copy of the tracked state.
func (t *Tracker) Execution() *models.Execution {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.current.Clone()
}

// Status returns the tracked status.
func (t *Tracker) Status() models.ExecutionStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.current.Status
}

// Done reports whether the tracked execution reached a terminal state.
func (t *Tracker) Done() bool {
	return t.Status().IsTerminal()
}

// Observe applies an externally observed update. Same-status updates refresh
// the payload (accumulating results); a legal transition advances the state
// machine. An illegal transition is logged as a protocol error and the
// update is dropped, leaving local state intact.
func (t *Tracker) Observe(observed *models.Execution) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	from := t.current.Status
	to := observed.Status

	if from != to && !CanTransition(from, to) {
		t.logger.Error("Rejected illegal execution status transition",
			"execution_id", t.current.ID,
			"from", from,
			"to", to,
		)

		return fmt.Errorf("%w: %s -> %s", ErrProtocol, from, to)
	}

	t.current = observed.Clone()

	return nil
}
