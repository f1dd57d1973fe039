package file_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/persistence/file"
)

func newTestPersistence(t *testing.T) *file.Persistence {
	t.Helper()

	return file.NewPersistence(t.TempDir(), slog.Default())
}

func activePlaybook() *models.Playbook {
	next := "create-task"
	threshold := 70.0

	return &models.Playbook{
		Name:        "Churn rescue",
		Description: "Re-engage at-risk customers",
		Status:      models.PlaybookStatusActive,
		TriggerType: models.TriggerTypeRiskScore,
		TriggerConditions: &models.TriggerConditions{
			Threshold:  &threshold,
			Comparison: "gt",
		},
		Steps: []*models.Step{
			{
				StepID:       "send-email",
				ActionType:   models.ActionTypeEmail,
				ActionConfig: models.EmailConfig{TemplateID: "rescue"},
				NextStep:     &next,
			},
			{
				StepID:       "create-task",
				ActionType:   models.ActionTypeTask,
				ActionConfig: models.TaskConfig{Title: "Call customer"},
			},
		},
	}
}

func TestPersistence_CreateAssignsIdentity(t *testing.T) {
	t.Parallel()

	store := newTestPersistence(t)
	ctx := context.Background()

	created, err := store.CreatePlaybook(ctx, activePlaybook())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, int64(1), created.Revision)
	assert.False(t, created.CreatedAt.IsZero())

	loaded, err := store.PlaybookByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, loaded.Name)
	require.Len(t, loaded.Steps, 2)

	// The tagged union survives the JSON round trip.
	config, ok := loaded.Steps[0].ActionConfig.(models.EmailConfig)
	require.True(t, ok)
	assert.Equal(t, "rescue", config.TemplateID)
}

func TestPersistence_GetMissingPlaybook(t *testing.T) {
	t.Parallel()

	store := newTestPersistence(t)

	_, err := store.PlaybookByID(context.Background(), "no-such-id")
	require.Error(t, err)
	assert.True(t, persistence.IsPlaybookNotFound(err))
}

func TestPersistence_UpdateBumpsRevision(t *testing.T) {
	t.Parallel()

	store := newTestPersistence(t)
	ctx := context.Background()

	created, err := store.CreatePlaybook(ctx, activePlaybook())
	require.NoError(t, err)

	created.Name = "Renamed"
	updated, err := store.UpdatePlaybook(ctx, created.ID, created)
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, int64(2), updated.Revision)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestPersistence_UpdateStaleRevisionConflicts(t *testing.T) {
	t.Parallel()

	store := newTestPersistence(t)
	ctx := context.Background()

	created, err := store.CreatePlaybook(ctx, activePlaybook())
	require.NoError(t, err)

	// First writer wins.
	first := created.Clone()
	first.Name = "First"
	_, err = store.UpdatePlaybook(ctx, created.ID, first)
	require.NoError(t, err)

	// Second writer still carries revision 1.
	second := created.Clone()
	second.Name = "Second"
	_, err = store.UpdatePlaybook(ctx, created.ID, second)

	require.Error(t, err)
	assert.True(t, persistence.IsConflict(err))

	loaded, err := store.PlaybookByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "First", loaded.Name)
}

func TestPersistence_DeletePlaybook(t *testing.T) {
	t.Parallel()

	store := newTestPersistence(t)
	ctx := context.Background()

	created, err := store.CreatePlaybook(ctx, activePlaybook())
	require.NoError(t, err)

	require.NoError(t, store.DeletePlaybook(ctx, created.ID))

	_, err = store.PlaybookByID(ctx, created.ID)
	assert.True(t, persistence.IsPlaybookNotFound(err))

	err = store.DeletePlaybook(ctx, created.ID)
	assert.True(t, persistence.IsPlaybookNotFound(err))
}

func TestPersistence_PlaybooksSortedNewestFirst(t *testing.T) {
	t.Parallel()

	store := newTestPersistence(t)
	ctx := context.Background()

	playbooks, err := store.Playbooks(ctx)
	require.NoError(t, err)
	assert.Empty(t, playbooks)

	first := activePlaybook()
	first.Name = "First created"
	_, err = store.CreatePlaybook(ctx, first)
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	second := activePlaybook()
	second.Name = "Second created"
	_, err = store.CreatePlaybook(ctx, second)
	require.NoError(t, err)

	playbooks, err = store.Playbooks(ctx)
	require.NoError(t, err)
	require.Len(t, playbooks, 2)
	assert.Equal(t, "Second created", playbooks[0].Name)
}

func TestPersistence_ExecuteRejectsDraft(t *testing.T) {
	t.Parallel()

	store := newTestPersistence(t)
	ctx := context.Background()

	draft := activePlaybook()
	draft.Status = models.PlaybookStatusDraft

	created, err := store.CreatePlaybook(ctx, draft)
	require.NoError(t, err)

	_, err = store.Execute(ctx, created.ID, "cust-1")
	require.Error(t, err)
	assert.True(t, persistence.IsInvalidState(err))
}

func TestPersistence_ExecuteRejectsInvalidPlaybook(t *testing.T) {
	t.Parallel()

	store := newTestPersistence(t)
	ctx := context.Background()

	invalid := activePlaybook()
	missing := "ghost"
	invalid.Steps[1].NextStep = &missing

	created, err := store.CreatePlaybook(ctx, invalid)
	require.NoError(t, err)

	_, err = store.Execute(ctx, created.ID, "cust-1")
	require.Error(t, err)
	assert.True(t, persistence.IsValidationFailed(err))
}

func TestPersistence_ExecuteRunsToCompletion(t *testing.T) {
	t.Parallel()

	store := newTestPersistence(t)
	ctx := context.Background()

	created, err := store.CreatePlaybook(ctx, activePlaybook())
	require.NoError(t, err)

	started, err := store.Execute(ctx, created.ID, "cust-1")
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusPending, started.Status)
	assert.Equal(t, "cust-1", started.CustomerID)

	// The background run finishes quickly for a two-step chain.
	require.Eventually(t, func() bool {
		current, err := store.ExecutionStatus(ctx, started.ID)

		return err == nil && current.Status == models.ExecutionStatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	final, err := store.ExecutionStatus(ctx, started.ID)
	require.NoError(t, err)
	require.Len(t, final.Results, 2)
	require.NotNil(t, final.CompletedAt)

	byPlaybook, err := store.ExecutionsByPlaybook(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, byPlaybook, 1)
	assert.Equal(t, started.ID, byPlaybook[0].ID)
}

func TestPersistence_ExecutionStatusMissing(t *testing.T) {
	t.Parallel()

	store := newTestPersistence(t)

	_, err := store.ExecutionStatus(context.Background(), "no-such-execution")
	require.Error(t, err)
	assert.True(t, persistence.IsExecutionNotFound(err))
}

func TestPersistence_HealthCheck(t *testing.T) {
	t.Parallel()

	store := newTestPersistence(t)
	assert.NoError(t, store.HealthCheck(context.Background()))

	missing := file.NewPersistence("/nonexistent/cadence-test", slog.Default())
	assert.Error(t, missing.HealthCheck(context.Background()))
}
