// Package events defines event types for playbook lifecycle notifications.
package events

import (
	"time"
)

type EventType string

// Topic is the in-process channel all playbook events flow on.
const Topic = "cadence.events"

const EventTypeMetadataKey = "event_type"

const (
	// Playbook lifecycle events.
	PlaybookSavedEvent     EventType = "playbook.saved"
	PlaybookActivatedEvent EventType = "playbook.activated"
	PlaybookArchivedEvent  EventType = "playbook.archived"

	// Execution lifecycle events.
	ExecutionStartedEvent EventType = "execution.started"

	// Editor surface events.
	ValidationFailedEvent EventType = "playbook.validation_failed"
	NotificationEvent     EventType = "notification"
)

// Event is anything publishable on the bus.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	PlaybookID string    `json:"playbookId,omitempty"`
}

type PlaybookSaved struct {
	BaseEvent

	Revision int64 `json:"revision"`
}

func (e PlaybookSaved) GetType() EventType { return PlaybookSavedEvent }

type PlaybookActivated struct {
	BaseEvent
}

func (e PlaybookActivated) GetType() EventType { return PlaybookActivatedEvent }

type PlaybookArchived struct {
	BaseEvent
}

func (e PlaybookArchived) GetType() EventType { return PlaybookArchivedEvent }

type ExecutionStarted struct {
	BaseEvent

	ExecutionID string `json:"executionId"`
	CustomerID  string `json:"customerId"`
}

func (e ExecutionStarted) GetType() EventType { return ExecutionStartedEvent }

type ValidationFailed struct {
	BaseEvent

	Errors []string `json:"errors"`
}

func (e ValidationFailed) GetType() EventType { return ValidationFailedEvent }

type Notification struct {
	BaseEvent

	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e Notification) GetType() EventType { return NotificationEvent }
