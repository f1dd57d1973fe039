// Package validation checks playbook graphs against the structural rules the
// editor and the activation path share. Validation is pure: it never mutates
// the playbook and reports violations in a deterministic order.
package validation

import (
	"fmt"

	"github.com/cadencehq/cadence/pkg/models"
)

// Step-count bounds for an executable playbook.
const (
	MinSteps = 2
	MaxSteps = 50
)

// Code identifies a class of structural violation.
type Code string

const (
	CodeNameRequired        Code = "name_required"
	CodeDescriptionRequired Code = "description_required"
	CodeTooFewSteps         Code = "too_few_steps"
	CodeTooManySteps        Code = "too_many_steps"
	CodeTriggerRequired     Code = "trigger_required"
	CodeTriggerIncomplete   Code = "trigger_incomplete"
	CodeDuplicateStepID     Code = "duplicate_step_id"
	CodeDanglingReference   Code = "dangling_reference"
	CodeSelfReference       Code = "self_reference"
	CodeNoBranches          Code = "no_branches"
)

// Error is a single structural violation. StepID is set for per-step rules.
type Error struct {
	Code    Code   `json:"code"`
	Field   string `json:"field,omitempty"`
	StepID  string `json:"stepId,omitempty"`
	Message string `json:"message"`
}

func (e Error) Error() string {
	if e.StepID != "" {
		return fmt.Sprintf("%s: step %s: %s", e.Code, e.StepID, e.Message)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Validate checks a playbook and returns all violations. Strict mode adds the
// activation-grade requirements (trigger configured, description present).
//
// Errors are reported in a fixed order: name/description presence, step-count
// bounds, trigger requirements, then per-step reference integrity in step
// order.
func Validate(playbook *models.Playbook, strict bool) []Error {
	errs := make([]Error, 0)

	errs = append(errs, checkIdentity(playbook, strict)...)
	errs = append(errs, checkStepCount(playbook)...)

	if strict {
		errs = append(errs, checkTrigger(playbook)...)
	}

	errs = append(errs, checkSteps(playbook)...)

	return errs
}

// IsValid reports whether the playbook passes activation-grade validation.
func IsValid(playbook *models.Playbook) bool {
	return len(Validate(playbook, true)) == 0
}

func checkIdentity(playbook *models.Playbook, strict bool) []Error {
	errs := make([]Error, 0)

	if playbook.Name == "" {
		errs = append(errs, Error{
			Code:    CodeNameRequired,
			Field:   "name",
			Message: "playbook name is required",
		})
	}

	if strict && playbook.Description == "" {
		errs = append(errs, Error{
			Code:    CodeDescriptionRequired,
			Field:   "description",
			Message: "playbook description is required",
		})
	}

	return errs
}

func checkStepCount(playbook *models.Playbook) []Error {
	count := len(playbook.Steps)

	switch {
	case count < MinSteps:
		return []Error{{
			Code:    CodeTooFewSteps,
			Field:   "steps",
			Message: fmt.Sprintf("playbook has %d steps, at least %d required", count, MinSteps),
		}}
	case count > MaxSteps:
		return []Error{{
			Code:    CodeTooManySteps,
			Field:   "steps",
			Message: fmt.Sprintf("playbook has %d steps, at most %d allowed", count, MaxSteps),
		}}
	default:
		return nil
	}
}

func checkTrigger(playbook *models.Playbook) []Error {
	if playbook.TriggerType == "" {
		return []Error{{
			Code:    CodeTriggerRequired,
			Field:   "triggerType",
			Message: "trigger type is required",
		}}
	}

	errs := make([]Error, 0)

	switch playbook.TriggerType {
	case models.TriggerTypeRiskScore, models.TriggerTypeHealthScore:
		if playbook.TriggerConditions == nil || playbook.TriggerConditions.Threshold == nil {
			errs = append(errs, Error{
				Code:    CodeTriggerIncomplete,
				Field:   "triggerConditions",
				Message: fmt.Sprintf("%s trigger requires a threshold", playbook.TriggerType),
			})
		}
	case models.TriggerTypeScheduled:
		if playbook.TriggerConditions == nil || playbook.TriggerConditions.Schedule == "" {
			errs = append(errs, Error{
				Code:    CodeTriggerIncomplete,
				Field:   "triggerConditions",
				Message: "scheduled trigger requires a cron schedule",
			})
		}
	case models.TriggerTypeManual:
		// No parameters required.
	}

	return errs
}

func checkSteps(playbook *models.Playbook) []Error {
	errs := make([]Error, 0)
	seen := make(map[string]bool, len(playbook.Steps))

	for _, step := range playbook.Steps {
		if seen[step.StepID] {
			errs = append(errs, Error{
				Code:    CodeDuplicateStepID,
				StepID:  step.StepID,
				Message: "step ID is not unique within the playbook",
			})
		}

		seen[step.StepID] = true
	}

	for _, step := range playbook.Steps {
		if step.ActionType == models.ActionTypeCondition {
			config, ok := step.ActionConfig.(models.ConditionConfig)
			if !ok || len(config.Branches) == 0 {
				errs = append(errs, Error{
					Code:    CodeNoBranches,
					StepID:  step.StepID,
					Message: "condition step has no branches",
				})
			}
		}

		for _, target := range step.References() {
			switch {
			case target == step.StepID:
				errs = append(errs, Error{
					Code:    CodeSelfReference,
					StepID:  step.StepID,
					Message: "step references itself as its successor",
				})
			case !playbook.HasStep(target):
				errs = append(errs, Error{
					Code:    CodeDanglingReference,
					StepID:  step.StepID,
					Message: fmt.Sprintf("successor %q does not exist in the playbook", target),
				})
			}
		}
	}

	return errs
}
