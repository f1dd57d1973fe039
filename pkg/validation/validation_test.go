package validation_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/validation"
)

func validPlaybook() *models.Playbook {
	next := "create-task"
	threshold := 70.0

	return &models.Playbook{
		Name:        "Churn rescue",
		Description: "Re-engage customers whose risk score spikes",
		Status:      models.PlaybookStatusDraft,
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

func codes(errs []validation.Error) []validation.Code {
	out := make([]validation.Code, 0, len(errs))
	for _, err := range errs {
		out = append(out, err.Code)
	}

	return out
}

func TestValidate_CleanPlaybook(t *testing.T) {
	t.Parallel()

	playbook := validPlaybook()

	assert.Empty(t, validation.Validate(playbook, false))
	assert.Empty(t, validation.Validate(playbook, true))
	assert.True(t, validation.IsValid(playbook))
}

func TestValidate_StepCountBounds(t *testing.T) {
	t.Parallel()

	playbook := validPlaybook()
	playbook.Steps = playbook.Steps[:1]

	errs := validation.Validate(playbook, false)
	require.Len(t, errs, 1)
	assert.Equal(t, validation.CodeTooFewSteps, errs[0].Code)

	playbook = validPlaybook()
	for i := 0; len(playbook.Steps) <= validation.MaxSteps; i++ {
		playbook.Steps = append(playbook.Steps, &models.Step{
			StepID:     fmt.Sprintf("extra-%d", i),
			ActionType: models.ActionTypeTask,
		})
	}

	errs = validation.Validate(playbook, false)
	require.Len(t, errs, 1)
	assert.Equal(t, validation.CodeTooManySteps, errs[0].Code)
}

func TestValidate_TriggerRulesAreStrictOnly(t *testing.T) {
	t.Parallel()

	playbook := validPlaybook()
	playbook.TriggerType = ""
	playbook.TriggerConditions = nil

	assert.Empty(t, validation.Validate(playbook, false))

	errs := validation.Validate(playbook, true)
	require.Len(t, errs, 1)
	assert.Equal(t, validation.CodeTriggerRequired, errs[0].Code)
}

func TestValidate_TriggerParameterRequirements(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		triggerType models.TriggerType
		conditions  *models.TriggerConditions
		wantCode    validation.Code
	}{
		{
			name:        "risk score without threshold",
			triggerType: models.TriggerTypeRiskScore,
			conditions:  &models.TriggerConditions{Comparison: "gt"},
			wantCode:    validation.CodeTriggerIncomplete,
		},
		{
			name:        "health score without conditions",
			triggerType: models.TriggerTypeHealthScore,
			conditions:  nil,
			wantCode:    validation.CodeTriggerIncomplete,
		},
		{
			name:        "scheduled without cron expression",
			triggerType: models.TriggerTypeScheduled,
			conditions:  &models.TriggerConditions{CustomerIDs: []string{"c-1"}},
			wantCode:    validation.CodeTriggerIncomplete,
		},
		{
			name:        "manual needs nothing",
			triggerType: models.TriggerTypeManual,
			conditions:  nil,
			wantCode:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			playbook := validPlaybook()
			playbook.TriggerType = tt.triggerType
			playbook.TriggerConditions = tt.conditions

			errs := validation.Validate(playbook, true)

			if tt.wantCode == "" {
				assert.Empty(t, errs)

				return
			}

			require.Len(t, errs, 1)
			assert.Equal(t, tt.wantCode, errs[0].Code)
		})
	}
}

func TestValidate_ReferenceIntegrity(t *testing.T) {
	t.Parallel()

	playbook := validPlaybook()
	missing := "no-such-step"
	self := "create-task"
	playbook.Steps[0].NextStep = &missing
	playbook.Steps[1].NextStep = &self

	errs := validation.Validate(playbook, false)

	assert.Equal(t, []validation.Code{
		validation.CodeDanglingReference,
		validation.CodeSelfReference,
	}, codes(errs))
	assert.Equal(t, "send-email", errs[0].StepID)
	assert.Equal(t, "create-task", errs[1].StepID)
}

func TestValidate_DuplicateStepIDs(t *testing.T) {
	t.Parallel()

	playbook := validPlaybook()
	playbook.Steps[1].StepID = "send-email"
	playbook.Steps[0].NextStep = nil

	errs := validation.Validate(playbook, false)
	require.Len(t, errs, 1)
	assert.Equal(t, validation.CodeDuplicateStepID, errs[0].Code)
	assert.Equal(t, "send-email", errs[0].StepID)
}

func TestValidate_ConditionBranchRules(t *testing.T) {
	t.Parallel()

	playbook := validPlaybook()
	playbook.Steps[1].ActionType = models.ActionTypeCondition
	playbook.Steps[1].ActionConfig = models.ConditionConfig{}

	errs := validation.Validate(playbook, false)
	require.Len(t, errs, 1)
	assert.Equal(t, validation.CodeNoBranches, errs[0].Code)

	playbook.Steps[1].ActionConfig = models.ConditionConfig{
		Branches: []models.Branch{{Label: "high", Target: "send-email"}},
	}
	assert.Empty(t, validation.Validate(playbook, false))
}

// Scenario: a condition step branching to a step that was deleted reports one
// dangling reference against the condition step, and the playbook stays
// editable as a draft.
func TestValidate_DeletedBranchTargetReported(t *testing.T) {
	t.Parallel()

	playbook := validPlaybook()
	playbook.Steps[1].ActionType = models.ActionTypeCondition
	playbook.Steps[1].ActionConfig = models.ConditionConfig{
		Branches: []models.Branch{{Label: "high", Target: "deleted-step"}},
	}

	errs := validation.Validate(playbook, false)
	require.Len(t, errs, 1)
	assert.Equal(t, validation.CodeDanglingReference, errs[0].Code)
	assert.Equal(t, "create-task", errs[0].StepID)
	assert.Contains(t, errs[0].Message, "deleted-step")
}

func TestValidate_OrderIsDeterministic(t *testing.T) {
	t.Parallel()

	playbook := validPlaybook()
	playbook.Name = ""
	playbook.Description = ""
	playbook.TriggerType = ""
	missing := "ghost"
	playbook.Steps[0].NextStep = &missing

	first := codes(validation.Validate(playbook, true))

	assert.Equal(t, []validation.Code{
		validation.CodeNameRequired,
		validation.CodeDescriptionRequired,
		validation.CodeTriggerRequired,
		validation.CodeDanglingReference,
	}, first)

	for range 10 {
		assert.Equal(t, first, codes(validation.Validate(playbook, true)))
	}
}
