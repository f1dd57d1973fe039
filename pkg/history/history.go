// Package history provides the bounded undo/redo stacks backing the playbook
// editor. Entries are whole-playbook snapshots rather than diffs; graphs in
// scope are small enough that copying wins on simplicity.
package history

import "github.com/cadencehq/cadence/pkg/models"

// MaxUndoSteps caps each stack. The oldest entry is discarded once the cap is
// exceeded.
const MaxUndoSteps = 50

// History holds the undo and redo stacks. Snapshots are deep copies; the
// stacks never alias the live playbook.
type History struct {
	undo  []*models.Playbook
	redo  []*models.Playbook
	limit int
}

// New creates a history bounded at MaxUndoSteps.
func New() *History {
	return NewWithLimit(MaxUndoSteps)
}

// NewWithLimit creates a history with a custom stack bound.
func NewWithLimit(limit int) *History {
	if limit < 1 {
		limit = 1
	}

	return &History{
		undo:  make([]*models.Playbook, 0, limit),
		redo:  make([]*models.Playbook, 0),
		limit: limit,
	}
}

// Record pushes the pre-mutation state onto the undo stack and clears the
// redo stack: any new edit invalidates the redo branch. Called exactly once
// per discrete user action, before the mutation is applied.
func (h *History) Record(current *models.Playbook) {
	h.undo = append(h.undo, current.Clone())
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}

	h.redo = h.redo[:0]
}

// Undo pops the most recent snapshot, pushing the current state onto the redo
// stack. Returns nil when the undo stack is empty; underflow is a no-op, not
// an error.
func (h *History) Undo(current *models.Playbook) *models.Playbook {
	if len(h.undo) == 0 {
		return nil
	}

	snapshot := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]

	h.redo = append(h.redo, current.Clone())
	if len(h.redo) > h.limit {
		h.redo = h.redo[1:]
	}

	return snapshot
}

// Redo is the symmetric inverse of Undo.
func (h *History) Redo(current *models.Playbook) *models.Playbook {
	if len(h.redo) == 0 {
		return nil
	}

	snapshot := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]

	h.undo = append(h.undo, current.Clone())
	if len(h.undo) > h.limit {
		h.undo = h.undo[1:]
	}

	return snapshot
}

func (h *History) CanUndo() bool { return len(h.undo) > 0 }
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Len returns the current undo stack depth.
func (h *History) Len() int { return len(h.undo) }

// Reset drops both stacks, used when a different playbook is loaded.
func (h *History) Reset() {
	h.undo = h.undo[:0]
	h.redo = h.redo[:0]
}
