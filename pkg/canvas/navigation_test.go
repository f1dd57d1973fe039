package canvas_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/canvas"
	"github.com/cadencehq/cadence/pkg/models"
)

func TestNavigation_FocusCyclesInListOrder(t *testing.T) {
	t.Parallel()

	session, _ := newTestSession(t)

	id, ok := session.FocusNext()
	require.True(t, ok)
	assert.Equal(t, "send-email", id)

	id, _ = session.FocusNext()
	assert.Equal(t, "create-task", id)

	// Wraps around at the end.
	id, _ = session.FocusNext()
	assert.Equal(t, "send-email", id)
}

func TestNavigation_FocusPrevStartsAtEnd(t *testing.T) {
	t.Parallel()

	session, _ := newTestSession(t)

	id, ok := session.FocusPrev()
	require.True(t, ok)
	assert.Equal(t, "create-task", id)

	id, _ = session.FocusPrev()
	assert.Equal(t, "send-email", id)

	id, _ = session.FocusPrev()
	assert.Equal(t, "create-task", id)
}

func TestNavigation_EmptyPlaybookIsSafe(t *testing.T) {
	t.Parallel()

	session := canvas.NewSession(&models.Playbook{Name: "Empty"}, nil, nil)

	_, ok := session.FocusNext()
	assert.False(t, ok)

	_, ok = session.FocusPrev()
	assert.False(t, ok)

	assert.False(t, session.ActivateFocused())
}

func TestNavigation_ActivateFocusedSelects(t *testing.T) {
	t.Parallel()

	session, recorder := newTestSession(t)

	session.FocusNext()
	require.True(t, session.ActivateFocused())

	selected, ok := session.Selection()
	assert.True(t, ok)
	assert.Equal(t, "send-email", selected)

	// Keyboard navigation is never a document mutation.
	assert.Equal(t, 0, recorder.calls)
}

func TestNavigation_FocusSurvivesUnrelatedDelete(t *testing.T) {
	t.Parallel()

	session, _ := newTestSession(t)

	session.FocusNext()
	require.NoError(t, session.DeleteStep("create-task"))

	id, ok := session.Focused()
	assert.True(t, ok)
	assert.Equal(t, "send-email", id)
}
