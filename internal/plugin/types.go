package plugin

import "context"

// PropertyType enumerates the value types a schema property accepts.
type PropertyType string

const (
	TypeString  PropertyType = "string"
	TypeInteger PropertyType = "integer"
	TypeNumber  PropertyType = "number"
	TypeBoolean PropertyType = "boolean"
)

// Property describes one config key: its type, an optional default
// applied at execution time, and an optional closed set of allowed
// values.
type Property struct {
	Type        PropertyType `json:"type"`
	Description string       `json:"description,omitempty"`
	Default     any          `json:"default,omitempty"`
	Enum        []any        `json:"enum,omitempty"`
}

// Schema declares the config contract of a plugin. Keys outside
// Properties are rejected; keys in Required must be present.
type Schema struct {
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Descriptor identifies a plugin to configuration surfaces. IDs are
// dotted namespaces like "system.reboot" or "network.ping".
type Descriptor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Category    string `json:"category"`
	Schema      Schema `json:"schema"`
}

// Config is a validated plugin configuration as stored on a button.
type Config map[string]any

// SlotContext tells a plugin which button invoked it.
type SlotContext struct {
	PageID string
	Slot   int
	Label  string
}

// Result is what a plugin execution produced. Message is a short human
// line for logs and notifications; Data carries structured output.
type Result struct {
	Message string         `json:"message,omitempty"`
	Data    map[string]any `json:"data,omitempty"`
}

// Plugin is one executable action. Execute must honour ctx cancellation;
// the dispatcher enforces a deadline and abandons executions that ignore
// it.
type Plugin interface {
	Descriptor() Descriptor
	Execute(ctx context.Context, cfg Config, slot SlotContext) (*Result, error)
}
