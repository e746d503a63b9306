//go:build integration

package mqtt

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/deckworks/deck-core/internal/bus"
	"github.com/deckworks/deck-core/internal/infrastructure/config"
)

// Integration tests for the MQTT client and notifier.
// These tests require a running MQTT broker at 127.0.0.1:1883.
//
// Run with:
//   go test -tags=integration -v ./internal/infrastructure/mqtt/...

func integrationConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "deckd-integration-test",
			TLS:      false,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

func TestIntegration_ConnectAndClose(t *testing.T) {
	client, err := Connect(integrationConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestIntegration_PublishSubscribeRoundtrip(t *testing.T) {
	cfg := integrationConfig()
	cfg.Broker.ClientID = "deckd-int-roundtrip"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	var mu sync.Mutex
	var received []byte
	done := make(chan struct{})

	topic := Topics{}.PageState()
	err = client.Subscribe(topic, 1, func(_ string, payload []byte) error {
		mu.Lock()
		received = payload
		mu.Unlock()
		close(done)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	want := []byte(`{"type":"activated","page_id":"p1"}`)
	if err := client.Publish(topic, want, 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}

	mu.Lock()
	defer mu.Unlock()
	if string(received) != string(want) {
		t.Errorf("received %s, want %s", received, want)
	}
}

func TestIntegration_NotifierForwardsBusEvents(t *testing.T) {
	cfg := integrationConfig()
	cfg.Broker.ClientID = "deckd-int-notifier"

	client, err := Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	received := make(chan []byte, 1)
	err = client.Subscribe(Topics{}.PageState(), 1, func(_ string, payload []byte) error {
		select {
		case received <- payload:
		default:
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	eventBus := bus.New(nil)
	defer eventBus.Close()

	notifier := NewNotifier(client, eventBus, noopNotifierLogger{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = notifier.Run(ctx) }()

	// Give the notifier time to subscribe before publishing.
	time.Sleep(100 * time.Millisecond)
	eventBus.Publish(bus.TopicPage, bus.PageEvent{Type: bus.PageActivated, PageID: "p1"})

	select {
	case payload := <-received:
		var event bus.PageEvent
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("decoding payload: %v", err)
		}
		if event.PageID != "p1" || event.Type != bus.PageActivated {
			t.Errorf("event = %+v", event)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("notifier did not forward event")
	}
}

type noopNotifierLogger struct{}

func (noopNotifierLogger) Debug(string, ...any) {}
func (noopNotifierLogger) Warn(string, ...any)  {}
