package models

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownActionType is returned when decoding a step whose actionType has
// no registered config variant.
var ErrUnknownActionType = errors.New("unknown action type")

// ActionConfig is the per-kind configuration of a step, modeled as a tagged
// union keyed by ActionType so validation can be exhaustive over variants.
// All variants are plain value types.
type ActionConfig interface {
	ActionType() ActionType
}

// EmailConfig configures an email step.
type EmailConfig struct {
	TemplateID string `json:"templateId,omitempty"`
	Subject    string `json:"subject,omitempty"`
	Body       string `json:"body,omitempty"`
	Recipient  string `json:"recipient,omitempty"`
}

func (EmailConfig) ActionType() ActionType { return ActionTypeEmail }

// TaskConfig configures a task-creation step.
type TaskConfig struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Assignee    string `json:"assignee,omitempty"`
	DueInDays   int    `json:"dueInDays,omitempty"`
}

func (TaskConfig) ActionType() ActionType { return ActionTypeTask }

// MeetingConfig configures a meeting-scheduling step.
type MeetingConfig struct {
	Title           string `json:"title"`
	DurationMinutes int    `json:"durationMinutes,omitempty"`
	Agenda          string `json:"agenda,omitempty"`
}

func (MeetingConfig) ActionType() ActionType { return ActionTypeMeeting }

// NotificationConfig configures an internal notification step.
type NotificationConfig struct {
	Channel string `json:"channel"`
	Message string `json:"message"`
}

func (NotificationConfig) ActionType() ActionType { return ActionTypeNotification }

// ConditionConfig configures a branching step. Branches are ordered; the
// first branch whose When expression evaluates true selects the successor.
// Default names the successor when no branch matches.
type ConditionConfig struct {
	Branches []Branch `json:"branches"`
	Default  *string  `json:"default,omitempty"`
}

func (ConditionConfig) ActionType() ActionType { return ActionTypeCondition }

// DelayConfig configures a wait step.
type DelayConfig struct {
	Minutes int `json:"minutes"`
}

func (DelayConfig) ActionType() ActionType { return ActionTypeDelay }

// DecodeActionConfig decodes raw config JSON into the variant matching the
// action type. A nil raw payload yields the variant's zero value so partially
// edited steps survive a round trip.
func DecodeActionConfig(actionType ActionType, raw json.RawMessage) (ActionConfig, error) {
	decode := func(target any) error {
		if len(raw) == 0 {
			return nil
		}

		return json.Unmarshal(raw, target)
	}

	switch actionType {
	case ActionTypeEmail:
		var config EmailConfig

		err := decode(&config)

		return config, err
	case ActionTypeTask:
		var config TaskConfig

		err := decode(&config)

		return config, err
	case ActionTypeMeeting:
		var config MeetingConfig

		err := decode(&config)

		return config, err
	case ActionTypeNotification:
		var config NotificationConfig

		err := decode(&config)

		return config, err
	case ActionTypeCondition:
		var config ConditionConfig

		err := decode(&config)

		return config, err
	case ActionTypeDelay:
		var config DelayConfig

		err := decode(&config)

		return config, err
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownActionType, actionType)
	}
}
