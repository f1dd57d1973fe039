package scheduler_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence/file"
	"github.com/cadencehq/cadence/pkg/scheduler"
	"github.com/cadencehq/cadence/pkg/services"
)

func scheduledPlaybook(status models.PlaybookStatus, schedule string) *models.Playbook {
	next := "create-task"

	return &models.Playbook{
		Name:        "Weekly check-in",
		Description: "Recurring touchpoint for key accounts",
		Status:      status,
		TriggerType: models.TriggerTypeScheduled,
		TriggerConditions: &models.TriggerConditions{
			Schedule:    schedule,
			CustomerIDs: []string{"cust-1", "cust-2"},
		},
		Steps: []*models.Step{
			{
				StepID:       "send-email",
				ActionType:   models.ActionTypeEmail,
				ActionConfig: models.EmailConfig{TemplateID: "check-in"},
				NextStep:     &next,
			},
			{
				StepID:       "create-task",
				ActionType:   models.ActionTypeTask,
				ActionConfig: models.TaskConfig{Title: "Prepare agenda"},
			},
		},
	}
}

func TestScheduler_RunsActiveScheduledPlaybooks(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir(), slog.Default())
	ctx := context.Background()

	created, err := store.CreatePlaybook(ctx, scheduledPlaybook(models.PlaybookStatusActive, "@every 1s"))
	require.NoError(t, err)

	executions := services.NewExecution(store, nil)
	sched := scheduler.New(store, executions, slog.Default(), time.Minute)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	require.NoError(t, sched.Start(runCtx))
	t.Cleanup(sched.Stop)

	// One tick starts an execution per listed customer.
	require.Eventually(t, func() bool {
		recorded, err := store.ExecutionsByPlaybook(ctx, created.ID)

		return err == nil && len(recorded) >= 2
	}, 5*time.Second, 50*time.Millisecond)

	recorded, err := store.ExecutionsByPlaybook(ctx, created.ID)
	require.NoError(t, err)

	customers := make(map[string]bool)
	for _, execution := range recorded {
		customers[execution.CustomerID] = true
	}

	assert.True(t, customers["cust-1"])
	assert.True(t, customers["cust-2"])
}

func TestScheduler_IgnoresDraftsAndOtherTriggers(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir(), slog.Default())
	ctx := context.Background()

	draft, err := store.CreatePlaybook(ctx, scheduledPlaybook(models.PlaybookStatusDraft, "@every 1s"))
	require.NoError(t, err)

	manual := scheduledPlaybook(models.PlaybookStatusActive, "")
	manual.TriggerType = models.TriggerTypeManual
	manual.TriggerConditions = nil
	active, err := store.CreatePlaybook(ctx, manual)
	require.NoError(t, err)

	executions := services.NewExecution(store, nil)
	sched := scheduler.New(store, executions, slog.Default(), time.Minute)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	require.NoError(t, sched.Start(runCtx))
	t.Cleanup(sched.Stop)

	time.Sleep(1500 * time.Millisecond)

	for _, id := range []string{draft.ID, active.ID} {
		recorded, err := store.ExecutionsByPlaybook(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, recorded)
	}
}

func TestScheduler_InvalidCronExpressionIsSkipped(t *testing.T) {
	t.Parallel()

	store := file.NewPersistence(t.TempDir(), slog.Default())
	ctx := context.Background()

	_, err := store.CreatePlaybook(ctx, scheduledPlaybook(models.PlaybookStatusActive, "not a cron expr"))
	require.NoError(t, err)

	executions := services.NewExecution(store, nil)
	sched := scheduler.New(store, executions, slog.Default(), time.Minute)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// A bad schedule must not fail startup; it is logged and skipped.
	require.NoError(t, sched.Start(runCtx))
	sched.Stop()
}
