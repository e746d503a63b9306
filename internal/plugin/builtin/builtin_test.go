package builtin

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deckworks/deck-core/internal/plugin"
)

func TestRegisterAll(t *testing.T) {
	r := plugin.NewRegistry()
	if err := RegisterAll(r); err != nil {
		t.Fatalf("RegisterAll() error = %v", err)
	}

	want := []string{
		"homeassistant.control",
		"network.ping",
		"network.show_ip",
		"network.speed",
		"network.toggle_wifi",
		"system.cpu_info",
		"system.disk_space",
		"system.memory_info",
		"system.process_control",
		"system.reboot",
		"system.shutdown",
	}
	got := r.List()
	if len(got) != len(want) {
		t.Fatalf("registered %d plugins, want %d", len(got), len(want))
	}
	for i, desc := range got {
		if desc.ID != want[i] {
			t.Errorf("plugin[%d] = %s, want %s", i, desc.ID, want[i])
		}
		if desc.Category == "" {
			t.Errorf("plugin %s has no category", desc.ID)
		}
		if !strings.HasPrefix(desc.ID, desc.Category+".") {
			t.Errorf("plugin %s category = %s, want ID namespace", desc.ID, desc.Category)
		}
	}
}

func TestRegisterAllTwiceFails(t *testing.T) {
	r := plugin.NewRegistry()
	if err := RegisterAll(r); err != nil {
		t.Fatalf("first RegisterAll() error = %v", err)
	}
	if err := RegisterAll(r); !errors.Is(err, plugin.ErrDuplicatePlugin) {
		t.Errorf("second RegisterAll() error = %v, want ErrDuplicatePlugin", err)
	}
}

func TestProcessControlSchema(t *testing.T) {
	schema := (ProcessControl{}).Descriptor().Schema

	valid := map[string]any{"action": "restart", "service": "nginx"}
	if err := schema.Validate(valid); err != nil {
		t.Errorf("Validate(valid) error = %v", err)
	}

	invalid := []map[string]any{
		{"action": "kill", "service": "nginx"},
		{"action": "restart"},
		{"service": "nginx"},
		{"action": "restart", "service": "nginx", "force": true},
	}
	for _, cfg := range invalid {
		if err := schema.Validate(cfg); !errors.Is(err, plugin.ErrInvalidConfig) {
			t.Errorf("Validate(%v) error = %v, want ErrInvalidConfig", cfg, err)
		}
	}
}

func TestPingSchemaDefaults(t *testing.T) {
	schema := (Ping{}).Descriptor().Schema

	merged := schema.ApplyDefaults(plugin.Config{"host": "10.0.0.1"})
	if merged["count"] != 3 {
		t.Errorf("count default = %v, want 3", merged["count"])
	}
	if err := schema.Validate(map[string]any{"count": 3}); !errors.Is(err, plugin.ErrInvalidConfig) {
		t.Errorf("Validate(no host) error = %v, want ErrInvalidConfig", err)
	}
}

func TestHomeAssistantExecute(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ha := NewHomeAssistant()
	cfg := plugin.Config{
		"url":       server.URL + "/",
		"token":     "secret",
		"domain":    "light",
		"service":   "turn_on",
		"entity_id": "light.desk",
	}

	result, err := ha.Execute(context.Background(), cfg, plugin.SlotContext{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if gotPath != "/api/services/light/turn_on" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotBody["entity_id"] != "light.desk" {
		t.Errorf("body = %v", gotBody)
	}
	if !strings.Contains(result.Message, "light.turn_on") {
		t.Errorf("message = %q", result.Message)
	}
}

func TestHomeAssistantExecuteErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	ha := NewHomeAssistant()
	cfg := plugin.Config{
		"url":       server.URL,
		"token":     "bad",
		"domain":    "light",
		"service":   "turn_on",
		"entity_id": "light.desk",
	}

	if _, err := ha.Execute(context.Background(), cfg, plugin.SlotContext{}); err == nil {
		t.Fatal("expected error on 401 response")
	}
}

func TestHomeAssistantHonoursContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	ha := NewHomeAssistant()
	cfg := plugin.Config{
		"url":       server.URL,
		"token":     "t",
		"domain":    "light",
		"service":   "turn_on",
		"entity_id": "light.desk",
	}

	if _, err := ha.Execute(ctx, cfg, plugin.SlotContext{}); err == nil {
		t.Fatal("expected context deadline error")
	}
}

func TestIntValue(t *testing.T) {
	cfg := plugin.Config{"a": 2, "b": float64(5), "c": "x"}
	if got := intValue(cfg, "a", 0); got != 2 {
		t.Errorf("intValue(int) = %d", got)
	}
	if got := intValue(cfg, "b", 0); got != 5 {
		t.Errorf("intValue(float64) = %d", got)
	}
	if got := intValue(cfg, "c", 7); got != 7 {
		t.Errorf("intValue(string) = %d, want fallback", got)
	}
	if got := intValue(cfg, "missing", 9); got != 9 {
		t.Errorf("intValue(missing) = %d, want fallback", got)
	}
}
