package mqtt

import (
	"context"
	"encoding/json"

	"github.com/deckworks/deck-core/internal/bus"
)

// NotifierLogger is the logging interface the notifier needs.
type NotifierLogger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// Notifier forwards internal bus events to MQTT. Each bus topic maps to
// one MQTT topic; payloads are the bus event structs encoded as JSON.
// Publish failures are logged and skipped, never retried: state topics
// are retained, so the next successful publish restores a correct
// picture.
type Notifier struct {
	client *Client
	bus    bus.MessageBus
	logger NotifierLogger
}

// NewNotifier creates a notifier. Call Run to start forwarding.
func NewNotifier(client *Client, eventBus bus.MessageBus, logger NotifierLogger) *Notifier {
	return &Notifier{client: client, bus: eventBus, logger: logger}
}

// Run forwards bus events until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	events := n.bus.Subscribe(
		bus.TopicPage,
		bus.TopicButton,
		bus.TopicBrightness,
		bus.TopicDeviceState,
		bus.TopicDispatch,
	)
	defer n.bus.Unsubscribe(events)

	topics := Topics{}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-events:
			if !ok {
				return nil
			}

			var topic string
			var retained bool
			switch raw.(type) {
			case bus.PageEvent:
				topic, retained = topics.PageState(), true
			case bus.ButtonEvent:
				topic, retained = topics.ButtonState(), true
			case bus.BrightnessEvent:
				topic, retained = topics.BrightnessState(), true
			case bus.DeviceStateEvent:
				topic, retained = topics.DeviceState(), true
			case bus.DispatchEvent:
				topic, retained = topics.DispatchEvent(), false
			default:
				continue
			}

			payload, err := json.Marshal(raw)
			if err != nil {
				n.logger.Warn("event encode failed", "topic", topic, "error", err)
				continue
			}
			if err := n.client.Publish(topic, payload, byte(n.client.cfg.QoS), retained); err != nil {
				n.logger.Warn("mqtt publish failed", "topic", topic, "error", err)
				continue
			}
			n.logger.Debug("event forwarded", "topic", topic)
		}
	}
}
