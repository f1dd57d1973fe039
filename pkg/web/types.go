// Package web provides HTTP request and response types for the playbook API.
package web

import (
	"encoding/json"

	"github.com/cadencehq/cadence/pkg/models"
	"github.com/cadencehq/cadence/pkg/validation"
)

// CreatePlaybookRequest represents the request body for creating a new playbook.
type CreatePlaybookRequest struct {
	Name              string                    `json:"name"                        validate:"required,min=3"`
	Description       string                    `json:"description"`
	TriggerType       models.TriggerType        `json:"triggerType,omitempty"`
	TriggerConditions *models.TriggerConditions `json:"triggerConditions,omitempty"`
	Steps             []StepRequest             `json:"steps"`
}

// UpdatePlaybookRequest represents the request body for updating an existing
// playbook. The revision must match the stored copy; a stale revision yields
// a conflict.
type UpdatePlaybookRequest struct {
	Name              *string                   `json:"name,omitempty"              validate:"omitempty,min=3"`
	Description       *string                   `json:"description,omitempty"`
	TriggerType       *models.TriggerType       `json:"triggerType,omitempty"`
	TriggerConditions *models.TriggerConditions `json:"triggerConditions,omitempty"`
	Steps             []StepRequest             `json:"steps,omitempty"`
	Revision          int64                     `json:"revision"                    validate:"required,min=1"`
}

// StepRequest represents one step in a create or update payload. The config
// is kept raw so it can be checked against the action type's schema before
// decoding into the typed union.
type StepRequest struct {
	StepID       string            `json:"stepId"       validate:"required,min=1"`
	ActionType   models.ActionType `json:"actionType"   validate:"required"`
	ActionConfig json.RawMessage   `json:"actionConfig"`
	NextStep     *string           `json:"nextStep,omitempty"`
	Conditions   string            `json:"conditions,omitempty"`
	PositionX    float64           `json:"positionX,omitempty"`
	PositionY    float64           `json:"positionY,omitempty"`
}

// ExecuteRequest represents the request body for starting an execution.
type ExecuteRequest struct {
	CustomerID string `json:"customerId" validate:"required,min=1"`
}

// ValidationResponse is the result of a validation run.
type ValidationResponse struct {
	Valid  bool               `json:"valid"`
	Errors []validation.Error `json:"errors"`
}

// ToModel converts a step request into the graph model, decoding the raw
// config into its typed variant.
func (r StepRequest) ToModel() (*models.Step, error) {
	config, err := models.DecodeActionConfig(r.ActionType, r.ActionConfig)
	if err != nil {
		return nil, err
	}

	return &models.Step{
		StepID:       r.StepID,
		ActionType:   r.ActionType,
		ActionConfig: config,
		NextStep:     r.NextStep,
		Conditions:   r.Conditions,
		PositionX:    r.PositionX,
		PositionY:    r.PositionY,
	}, nil
}
