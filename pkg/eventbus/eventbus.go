// Package eventbus provides in-process event distribution for playbook
// lifecycle notifications.
package eventbus

import (
	"context"

	"github.com/cadencehq/cadence/pkg/events"
)

// EventHandler processes one decoded event payload.
type EventHandler func(ctx context.Context, payload []byte) error

// EventBus publishes playbook events and dispatches them to subscribed
// handlers by event type.
type EventBus interface {
	Publish(ctx context.Context, event events.Event) error
	Handle(eventType events.EventType, handler EventHandler)
	Subscribe(ctx context.Context) error
	Close() error
	GenerateID() string
}
