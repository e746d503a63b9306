package influxdb

import (
	"context"

	"github.com/deckworks/deck-core/internal/bus"
)

// RecorderLogger is the logging interface the recorder needs.
type RecorderLogger interface {
	Debug(msg string, args ...any)
}

// Recorder subscribes to the internal bus and writes usage history:
// dispatch outcomes (which double as press records, since every press
// that reaches a plugin produces one) and panel connectivity
// transitions. Writes are non-blocking; history never slows the deck.
type Recorder struct {
	client *Client
	bus    bus.MessageBus
	logger RecorderLogger
}

// NewRecorder creates a recorder. Call Run to start consuming.
func NewRecorder(client *Client, eventBus bus.MessageBus, logger RecorderLogger) *Recorder {
	return &Recorder{client: client, bus: eventBus, logger: logger}
}

// Run consumes bus events until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) error {
	events := r.bus.Subscribe(bus.TopicDispatch, bus.TopicDeviceState)
	defer r.bus.Unsubscribe(events)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-events:
			if !ok {
				return nil
			}
			switch event := raw.(type) {
			case bus.DispatchEvent:
				r.client.WritePress(event.PageID, event.Slot)
				r.client.WriteDispatch(event.PluginID, event.PageID, event.Slot, event.OK, event.Duration)
				r.logger.Debug("dispatch recorded", "plugin_id", event.PluginID, "ok", event.OK)
			case bus.DeviceStateEvent:
				r.client.WriteConnectivity(event.State)
				r.logger.Debug("connectivity recorded", "state", event.State)
			}
		}
	}
}
