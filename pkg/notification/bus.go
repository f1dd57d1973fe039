package notification

import (
	"context"
	"time"

	"github.com/cadencehq/cadence/pkg/eventbus"
	"github.com/cadencehq/cadence/pkg/events"
)

// BusNotifier publishes notifications on the event bus so any surface
// (toasts, activity feeds) can subscribe without coupling to the editor.
type BusNotifier struct {
	bus eventbus.EventBus
}

func NewBusNotifier(bus eventbus.EventBus) *BusNotifier {
	return &BusNotifier{bus: bus}
}

func (n *BusNotifier) Notify(ctx context.Context, kind Kind, message string) {
	_ = n.bus.Publish(ctx, events.Notification{
		BaseEvent: events.BaseEvent{
			ID:        n.bus.GenerateID(),
			Type:      events.NotificationEvent,
			Timestamp: time.Now().UTC(),
		},
		Kind:    string(kind),
		Message: message,
	})
}
