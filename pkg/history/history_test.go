package history_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/history"
	"github.com/cadencehq/cadence/pkg/models"
)

func playbookNamed(name string) *models.Playbook {
	return &models.Playbook{Name: name, Status: models.PlaybookStatusDraft}
}

func TestHistory_UndoRedoRoundTrip(t *testing.T) {
	t.Parallel()

	hist := history.New()
	current := playbookNamed("v1")

	hist.Record(current)
	current.Name = "v2"

	snapshot := hist.Undo(current)
	require.NotNil(t, snapshot)
	assert.Equal(t, "v1", snapshot.Name)
	assert.True(t, hist.CanRedo())

	redone := hist.Redo(snapshot)
	require.NotNil(t, redone)
	assert.Equal(t, "v2", redone.Name)
}

func TestHistory_UnderflowIsNoOp(t *testing.T) {
	t.Parallel()

	hist := history.New()
	current := playbookNamed("only")

	assert.Nil(t, hist.Undo(current))
	assert.Nil(t, hist.Redo(current))
	assert.False(t, hist.CanUndo())
	assert.False(t, hist.CanRedo())
}

func TestHistory_RecordClearsRedo(t *testing.T) {
	t.Parallel()

	hist := history.New()
	current := playbookNamed("v1")

	hist.Record(current)
	current.Name = "v2"

	snapshot := hist.Undo(current)
	require.NotNil(t, snapshot)
	require.True(t, hist.CanRedo())

	// A fresh edit abandons the redo branch.
	hist.Record(snapshot)
	assert.False(t, hist.CanRedo())
	assert.Nil(t, hist.Redo(snapshot))
}

func TestHistory_CapDiscardsOldest(t *testing.T) {
	t.Parallel()

	hist := history.New()
	current := playbookNamed("v0")

	for i := 1; i <= history.MaxUndoSteps+10; i++ {
		hist.Record(current)
		current.Name = fmt.Sprintf("v%d", i)
	}

	assert.Equal(t, history.MaxUndoSteps, hist.Len())

	// Unwind completely; the deepest reachable state is the one recorded
	// right after the first ten were discarded.
	var last *models.Playbook
	for hist.CanUndo() {
		last = hist.Undo(current)
		current = last
	}

	require.NotNil(t, last)
	assert.Equal(t, "v10", last.Name)
}

func TestHistory_SnapshotsDoNotAliasLiveState(t *testing.T) {
	t.Parallel()

	hist := history.New()
	current := playbookNamed("before")
	current.Steps = []*models.Step{{StepID: "a", ActionType: models.ActionTypeEmail}}

	hist.Record(current)
	current.Steps[0].StepID = "mutated"

	snapshot := hist.Undo(current)
	require.NotNil(t, snapshot)
	assert.Equal(t, "a", snapshot.Steps[0].StepID)
}

func TestHistory_Reset(t *testing.T) {
	t.Parallel()

	hist := history.New()
	current := playbookNamed("v1")

	hist.Record(current)
	hist.Undo(current)
	require.True(t, hist.CanRedo())

	hist.Reset()
	assert.False(t, hist.CanUndo())
	assert.False(t, hist.CanRedo())
	assert.Equal(t, 0, hist.Len())
}
