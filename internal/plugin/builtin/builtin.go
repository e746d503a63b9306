// Package builtin provides the stock action plugins: system control,
// network diagnostics, and Home Assistant service calls.
package builtin

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/deckworks/deck-core/internal/plugin"
)

// RegisterAll registers every built-in plugin with the registry.
func RegisterAll(r *plugin.Registry) error {
	plugins := []plugin.Plugin{
		&Shutdown{},
		&Reboot{},
		&CPUInfo{},
		&MemoryInfo{},
		&ProcessControl{},
		&DiskSpace{},
		&ShowIP{},
		&NetworkSpeed{},
		&ToggleWiFi{},
		&Ping{},
		NewHomeAssistant(),
	}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return fmt.Errorf("registering %s: %w", p.Descriptor().ID, err)
		}
	}
	return nil
}

// runCommand executes a system command and returns its combined output.
// Output is trimmed; failures include the output for diagnosis.
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	text := strings.TrimSpace(string(out))
	if err != nil {
		if text != "" {
			return "", fmt.Errorf("%s: %w: %s", name, err, text)
		}
		return "", fmt.Errorf("%s: %w", name, err)
	}
	return text, nil
}

// stringValue reads a string key from a config with defaults applied.
func stringValue(cfg plugin.Config, key string) string {
	s, _ := cfg[key].(string)
	return s
}

// intValue reads an integer key, accepting the float64 form JSON
// decoding produces.
func intValue(cfg plugin.Config, key string, fallback int) int {
	switch v := cfg[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return fallback
	}
}
