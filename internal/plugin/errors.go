package plugin

import "errors"

// Domain errors for the plugin package.
var (
	// ErrUnknownPlugin is returned when a plugin ID is not registered.
	ErrUnknownPlugin = errors.New("plugin: unknown plugin")

	// ErrDuplicatePlugin is returned when registering an ID twice.
	ErrDuplicatePlugin = errors.New("plugin: duplicate plugin id")

	// ErrInvalidConfig is returned when a config fails schema validation.
	ErrInvalidConfig = errors.New("plugin: invalid config")

	// ErrExecutionPanic is returned when a plugin panics during Execute.
	ErrExecutionPanic = errors.New("plugin: execution panicked")
)
