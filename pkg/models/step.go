package models

import (
	"encoding/json"
	"fmt"
)

// ActionType identifies the kind of a step node.
type ActionType string

const (
	ActionTypeEmail        ActionType = "email"
	ActionTypeTask         ActionType = "task"
	ActionTypeMeeting      ActionType = "meeting"
	ActionTypeNotification ActionType = "notification"
	ActionTypeCondition    ActionType = "condition"
	ActionTypeDelay        ActionType = "delay"
)

// Step is a single node in a playbook graph. A step has at most one outgoing
// edge (NextStep); condition steps branch through the ordered branch list in
// their ConditionConfig instead.
type Step struct {
	StepID       string       `json:"stepId"       validate:"required"`
	ActionType   ActionType   `json:"actionType"   validate:"required"`
	ActionConfig ActionConfig `json:"actionConfig,omitempty"`
	NextStep     *string      `json:"nextStep,omitempty"`
	Conditions   string       `json:"conditions,omitempty"`
	PositionX    float64      `json:"positionX,omitempty"`
	PositionY    float64      `json:"positionY,omitempty"`
}

// Branch is one named outcome of a condition step. When holds the guard
// expression evaluated against the execution environment; branches are tried
// in order and the first match wins.
type Branch struct {
	Label  string `json:"label"  validate:"required"`
	Target string `json:"target" validate:"required"`
	When   string `json:"when,omitempty"`
}

// References returns every outgoing step reference: the single NextStep edge
// plus, for condition steps, all branch targets and the default target.
// Validation applies the same integrity rules to each entry.
func (s *Step) References() []string {
	refs := make([]string, 0, 1)
	if s.NextStep != nil && *s.NextStep != "" {
		refs = append(refs, *s.NextStep)
	}

	if cfg, ok := s.ActionConfig.(ConditionConfig); ok {
		for _, branch := range cfg.Branches {
			refs = append(refs, branch.Target)
		}

		if cfg.Default != nil && *cfg.Default != "" {
			refs = append(refs, *cfg.Default)
		}
	}

	return refs
}

type stepAlias struct {
	StepID       string          `json:"stepId"`
	ActionType   ActionType      `json:"actionType"`
	ActionConfig json.RawMessage `json:"actionConfig,omitempty"`
	NextStep     *string         `json:"nextStep,omitempty"`
	Conditions   string          `json:"conditions,omitempty"`
	PositionX    float64         `json:"positionX,omitempty"`
	PositionY    float64         `json:"positionY,omitempty"`
}

// UnmarshalJSON decodes the action config into the variant selected by
// actionType, keeping the tagged union closed over known action kinds.
func (s *Step) UnmarshalJSON(data []byte) error {
	var alias stepAlias

	err := json.Unmarshal(data, &alias)
	if err != nil {
		return err
	}

	config, err := DecodeActionConfig(alias.ActionType, alias.ActionConfig)
	if err != nil {
		return fmt.Errorf("step %s: %w", alias.StepID, err)
	}

	s.StepID = alias.StepID
	s.ActionType = alias.ActionType
	s.ActionConfig = config
	s.NextStep = alias.NextStep
	s.Conditions = alias.Conditions
	s.PositionX = alias.PositionX
	s.PositionY = alias.PositionY

	return nil
}
