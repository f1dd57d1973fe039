package eventbus_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/eventbus"
	"github.com/cadencehq/cadence/pkg/events"
)

func TestGoChannelEventBus_PublishAndSubscribe(t *testing.T) {
	t.Parallel()

	bus := eventbus.NewGoChannelEventBus(slog.Default())
	t.Cleanup(func() { _ = bus.Close() })

	received := make(chan events.PlaybookSaved, 1)

	bus.Handle(events.PlaybookSavedEvent, func(_ context.Context, payload []byte) error {
		var event events.PlaybookSaved
		if err := json.Unmarshal(payload, &event); err != nil {
			return err
		}

		received <- event

		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	err := bus.Publish(ctx, events.PlaybookSaved{
		BaseEvent: events.BaseEvent{
			ID:         bus.GenerateID(),
			Type:       events.PlaybookSavedEvent,
			Timestamp:  time.Now().UTC(),
			PlaybookID: "pb-1",
		},
		Revision: 3,
	})
	require.NoError(t, err)

	select {
	case event := <-received:
		assert.Equal(t, "pb-1", event.PlaybookID)
		assert.Equal(t, int64(3), event.Revision)
	case <-time.After(2 * time.Second):
		t.Fatal("event never delivered")
	}
}

func TestGoChannelEventBus_UnhandledTypesAreDropped(t *testing.T) {
	t.Parallel()

	bus := eventbus.NewGoChannelEventBus(slog.Default())
	t.Cleanup(func() { _ = bus.Close() })

	saved := make(chan struct{}, 2)

	bus.Handle(events.PlaybookSavedEvent, func(context.Context, []byte) error {
		saved <- struct{}{}

		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	// No handler for activation events; they are acked and dropped.
	require.NoError(t, bus.Publish(ctx, events.PlaybookActivated{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.PlaybookActivatedEvent},
	}))
	require.NoError(t, bus.Publish(ctx, events.PlaybookSaved{
		BaseEvent: events.BaseEvent{ID: bus.GenerateID(), Type: events.PlaybookSavedEvent},
	}))

	select {
	case <-saved:
	case <-time.After(2 * time.Second):
		t.Fatal("saved event never delivered")
	}

	select {
	case <-saved:
		t.Fatal("unexpected second delivery")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestGenerateID_Unique(t *testing.T) {
	t.Parallel()

	bus := eventbus.NewGoChannelEventBus(slog.Default())
	t.Cleanup(func() { _ = bus.Close() })

	seen := make(map[string]bool)
	for range 100 {
		id := bus.GenerateID()
		assert.False(t, seen[id])
		seen[id] = true
	}
}
