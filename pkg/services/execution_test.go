package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/persistence"
	"github.com/cadencehq/cadence/pkg/services"
)

// fakePersistence is an in-memory store that counts execute calls so tests
// can assert the service never reaches it for ineligible playbooks.
type fakePersistence struct {
	playbooks    map[string]*models.Playbook
	executions   map[string]*models.Execution
	executeCalls int
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{
		playbooks:  make(map[string]*models.Playbook),
		executions: make(map[string]*models.Execution),
	}
}

func (f *fakePersistence) Playbooks(context.Context) ([]*models.Playbook, error) {
	out := make([]*models.Playbook, 0, len(f.playbooks))
	for _, playbook := range f.playbooks {
		out = append(out, playbook.Clone())
	}

	return out, nil
}

func (f *fakePersistence) PlaybookByID(_ context.Context, id string) (*models.Playbook, error) {
	playbook, ok := f.playbooks[id]
	if !ok {
		return nil, persistence.NewPlaybookError("GetByID", id, persistence.ErrPlaybookNotFound)
	}

	return playbook.Clone(), nil
}

func (f *fakePersistence) CreatePlaybook(_ context.Context, playbook *models.Playbook) (*models.Playbook, error) {
	stored := playbook.Clone()
	if stored.ID == "" {
		stored.ID = "pb-fake"
	}

	stored.Revision = 1
	f.playbooks[stored.ID] = stored

	return stored.Clone(), nil
}

func (f *fakePersistence) UpdatePlaybook(_ context.Context, id string, playbook *models.Playbook) (*models.Playbook, error) {
	existing, ok := f.playbooks[id]
	if !ok {
		return nil, persistence.NewPlaybookError("Update", id, persistence.ErrPlaybookNotFound)
	}

	stored := playbook.Clone()
	stored.ID = id
	stored.Revision = existing.Revision + 1
	f.playbooks[id] = stored

	return stored.Clone(), nil
}

func (f *fakePersistence) DeletePlaybook(_ context.Context, id string) error {
	if _, ok := f.playbooks[id]; !ok {
		return persistence.NewPlaybookError("Delete", id, persistence.ErrPlaybookNotFound)
	}

	delete(f.playbooks, id)

	return nil
}

func (f *fakePersistence) Execute(_ context.Context, playbookID, customerID string) (*models.Execution, error) {
	f.executeCalls++

	execution := &models.Execution{
		ID:         "ex-fake",
		PlaybookID: playbookID,
		CustomerID: customerID,
		Status:     models.ExecutionStatusPending,
	}
	f.executions[execution.ID] = execution

	return execution.Clone(), nil
}

func (f *fakePersistence) ExecutionStatus(_ context.Context, executionID string) (*models.Execution, error) {
	execution, ok := f.executions[executionID]
	if !ok {
		return nil, &persistence.ExecutionError{Op: "GetByID", ExecutionID: executionID, Err: persistence.ErrExecutionNotFound}
	}

	return execution.Clone(), nil
}

func (f *fakePersistence) ExecutionsByPlaybook(_ context.Context, playbookID string) ([]*models.Execution, error) {
	out := make([]*models.Execution, 0)

	for _, execution := range f.executions {
		if execution.PlaybookID == playbookID {
			out = append(out, execution.Clone())
		}
	}

	return out, nil
}

func (f *fakePersistence) HealthCheck(context.Context) error { return nil }

func (f *fakePersistence) Close(context.Context) error { return nil }

func storedPlaybook(status models.PlaybookStatus) *models.Playbook {
	next := "create-task"
	threshold := 70.0

	return &models.Playbook{
		ID:          "pb-1",
		Name:        "Churn rescue",
		Description: "Re-engage at-risk customers",
		Status:      status,
		Revision:    1,
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

func TestExecution_ExecuteActivePlaybook(t *testing.T) {
	t.Parallel()

	store := newFakePersistence()
	store.playbooks["pb-1"] = storedPlaybook(models.PlaybookStatusActive)

	service := services.NewExecution(store, nil)

	execution, err := service.Execute(context.Background(), "pb-1", "cust-1")
	require.NoError(t, err)

	assert.Equal(t, models.ExecutionStatusPending, execution.Status)
	assert.Equal(t, "cust-1", execution.CustomerID)
	assert.Equal(t, 1, store.executeCalls)
}

// Executing a never-activated draft fails up front: the persistence execute
// endpoint is never touched and no execution record appears.
func TestExecution_ExecuteDraftFailsBeforePersistence(t *testing.T) {
	t.Parallel()

	store := newFakePersistence()
	store.playbooks["pb-1"] = storedPlaybook(models.PlaybookStatusDraft)

	service := services.NewExecution(store, nil)

	_, err := service.Execute(context.Background(), "pb-1", "cust-1")
	require.Error(t, err)
	assert.True(t, persistence.IsInvalidState(err))
	assert.Equal(t, 0, store.executeCalls)
	assert.Empty(t, store.executions)
}

func TestExecution_ExecuteInvalidPlaybookFailsBeforePersistence(t *testing.T) {
	t.Parallel()

	playbook := storedPlaybook(models.PlaybookStatusActive)
	missing := "ghost"
	playbook.Steps[1].NextStep = &missing

	store := newFakePersistence()
	store.playbooks["pb-1"] = playbook

	service := services.NewExecution(store, nil)

	_, err := service.Execute(context.Background(), "pb-1", "cust-1")
	require.Error(t, err)
	assert.True(t, services.IsInvalidPlaybook(err))
	assert.Equal(t, 0, store.executeCalls)
}

func TestExecution_ExecuteRequiresIdentifiers(t *testing.T) {
	t.Parallel()

	service := services.NewExecution(newFakePersistence(), nil)

	_, err := service.Execute(context.Background(), "", "cust-1")
	assert.ErrorIs(t, err, services.ErrPlaybookIDRequired)

	_, err = service.Execute(context.Background(), "pb-1", "")
	assert.ErrorIs(t, err, services.ErrCustomerIDRequired)
}

func TestExecution_StatusAndList(t *testing.T) {
	t.Parallel()

	store := newFakePersistence()
	store.playbooks["pb-1"] = storedPlaybook(models.PlaybookStatusActive)

	service := services.NewExecution(store, nil)

	started, err := service.Execute(context.Background(), "pb-1", "cust-1")
	require.NoError(t, err)

	fetched, err := service.Status(context.Background(), started.ID)
	require.NoError(t, err)
	assert.Equal(t, started.ID, fetched.ID)

	listed, err := service.ListByPlaybook(context.Background(), "pb-1")
	require.NoError(t, err)
	require.Len(t, listed, 1)

	_, err = service.Status(context.Background(), "")
	assert.ErrorIs(t, err, services.ErrExecutionIDRequired)
}
