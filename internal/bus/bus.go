package bus

import (
	"reflect"

	"github.com/cskr/pubsub"
)

// Subscription is a channel delivering events for subscribed topics.
type Subscription chan any

// MessageBus is the in-process event channel between core components.
// The config store publishes mutations, the device synchronizer publishes
// connectivity changes and subscribes to mutations, and outward-facing
// notifiers (MQTT, history) subscribe to everything they forward.
type MessageBus interface {
	Publish(topic string, msg any)
	Subscribe(topics ...string) Subscription
	Unsubscribe(ch Subscription, topics ...string)
	Close()
}

// Logger is the minimal logging interface the bus needs.
type Logger interface {
	Debug(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// subscriberBuffer is the per-subscriber channel capacity. Slow consumers
// buffer up to this many events before publishers block, so forwarding
// loops must drain promptly.
const subscriberBuffer = 128

// PubSubBus implements MessageBus on top of cskr/pubsub.
type PubSubBus struct {
	ps     *pubsub.PubSub
	logger Logger
}

// New creates a message bus. A nil logger disables debug logging.
func New(logger Logger) *PubSubBus {
	if logger == nil {
		logger = noopLogger{}
	}
	return &PubSubBus{
		ps:     pubsub.New(subscriberBuffer),
		logger: logger,
	}
}

func (b *PubSubBus) Publish(topic string, msg any) {
	b.logger.Debug("bus publish", "topic", topic, "payload_type", payloadType(msg))
	b.ps.Pub(msg, topic)
}

func (b *PubSubBus) Subscribe(topics ...string) Subscription {
	ch := b.ps.Sub(topics...)
	b.logger.Debug("bus subscribe", "topics", topics)
	return ch
}

func (b *PubSubBus) Unsubscribe(ch Subscription, topics ...string) {
	if len(topics) == 0 {
		b.ps.Unsub(ch)
		return
	}
	b.ps.Unsub(ch, topics...)
}

func (b *PubSubBus) Close() {
	b.ps.Shutdown()
}

func payloadType(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}
