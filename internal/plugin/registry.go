package plugin

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry holds the available plugins keyed by ID. Registration happens
// at startup; lookups and executions run concurrently afterwards.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	plugins map[string]Plugin
	logger  Logger
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		plugins: make(map[string]Plugin),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Register adds a plugin. IDs must be unique.
func (r *Registry) Register(p Plugin) error {
	desc := p.Descriptor()
	if desc.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidConfig)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.plugins[desc.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePlugin, desc.ID)
	}
	r.plugins[desc.ID] = p
	r.logger.Debug("plugin registered", "plugin_id", desc.ID)
	return nil
}

// Get returns the plugin with the given ID.
func (r *Registry) Get(id string) (Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.plugins[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, id)
	}
	return p, nil
}

// List returns all plugin descriptors sorted by ID.
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	descriptors := make([]Descriptor, 0, len(r.plugins))
	for _, p := range r.plugins {
		descriptors = append(descriptors, p.Descriptor())
	}
	sort.Slice(descriptors, func(i, j int) bool {
		return descriptors[i].ID < descriptors[j].ID
	})
	return descriptors
}

// ValidateConfig checks a config against the named plugin's schema.
// The config store calls this before persisting a button action, so a
// button with a config its plugin cannot accept is never stored.
func (r *Registry) ValidateConfig(pluginID string, config map[string]any) error {
	p, err := r.Get(pluginID)
	if err != nil {
		return err
	}
	return p.Descriptor().Schema.Validate(config)
}

// Execute runs a plugin with defaults applied. A panicking plugin is
// contained and reported as ErrExecutionPanic; it never takes the
// process down.
func (r *Registry) Execute(ctx context.Context, pluginID string, cfg Config, slot SlotContext) (result *Result, err error) {
	p, getErr := r.Get(pluginID)
	if getErr != nil {
		return nil, getErr
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("plugin panicked",
				"plugin_id", pluginID,
				"page_id", slot.PageID,
				"slot", slot.Slot,
				"panic", rec)
			result = nil
			err = fmt.Errorf("%w: %s: %v", ErrExecutionPanic, pluginID, rec)
		}
	}()

	merged := p.Descriptor().Schema.ApplyDefaults(cfg)
	return p.Execute(ctx, merged, slot)
}
