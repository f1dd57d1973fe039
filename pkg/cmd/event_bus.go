package cmd

import (
	"log/slog"

	"github.com/cadencehq/cadence/pkg/eventbus"
)

// NewEventBus creates the event bus for a binary. Only the in-process
// gochannel provider is supported; the provider flag exists so deployments
// can fail loudly on a misconfigured value instead of silently dropping
// events.
func NewEventBus(provider string, logger *slog.Logger) eventbus.EventBus {
	switch provider {
	case "", "gochannel":
		return eventbus.NewGoChannelEventBus(logger)
	default:
		panic("Unsupported event bus provider: " + provider)
	}
}
