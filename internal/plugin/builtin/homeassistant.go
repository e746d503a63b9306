package builtin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/deckworks/deck-core/internal/plugin"
)

// HomeAssistant calls a Home Assistant service over its REST API.
type HomeAssistant struct {
	client *http.Client
}

// NewHomeAssistant creates the plugin with a bounded HTTP client.
func NewHomeAssistant() *HomeAssistant {
	return &HomeAssistant{
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (h *HomeAssistant) Descriptor() plugin.Descriptor {
	return plugin.Descriptor{
		ID:          "homeassistant.control",
		Name:        "Home Assistant",
		Description: "Call a Home Assistant service",
		Icon:        "home",
		Category:    "homeassistant",
		Schema: plugin.Schema{
			Properties: map[string]plugin.Property{
				"url": {
					Type:        plugin.TypeString,
					Description: "Base URL of the Home Assistant instance",
				},
				"token": {
					Type:        plugin.TypeString,
					Description: "Long-lived access token",
				},
				"domain": {
					Type:        plugin.TypeString,
					Description: "Service domain, e.g. light or switch",
				},
				"service": {
					Type:        plugin.TypeString,
					Description: "Service name, e.g. turn_on",
				},
				"entity_id": {
					Type:        plugin.TypeString,
					Description: "Target entity",
				},
			},
			Required: []string{"url", "token", "domain", "service", "entity_id"},
		},
	}
}

func (h *HomeAssistant) Execute(ctx context.Context, cfg plugin.Config, _ plugin.SlotContext) (*plugin.Result, error) {
	baseURL := strings.TrimRight(stringValue(cfg, "url"), "/")
	domain := stringValue(cfg, "domain")
	service := stringValue(cfg, "service")
	entityID := stringValue(cfg, "entity_id")

	body, err := json.Marshal(map[string]string{"entity_id": entityID})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/services/%s/%s", baseURL, domain, service)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+stringValue(cfg, "token"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling home assistant: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("home assistant returned %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	return &plugin.Result{
		Message: fmt.Sprintf("%s.%s %s", domain, service, entityID),
		Data: map[string]any{
			"domain":    domain,
			"service":   service,
			"entity_id": entityID,
			"status":    resp.StatusCode,
		},
	}, nil
}
