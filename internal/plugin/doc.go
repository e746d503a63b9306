// Package plugin defines the action plugin contract and the registry
// that holds available plugins.
//
// A plugin is a named, executable action with a declared config schema.
// The schema is the gate between configuration and execution: the config
// store validates a button's action config against it before persisting,
// and the dispatcher applies schema defaults before running. Validation
// is strict. Unknown keys and wrong types are rejected outright, never
// coerced, so a config that reaches Execute is one the plugin declared
// it can handle.
//
// Built-in plugins live in the builtin subpackage and are registered at
// startup. The registry contains plugin panics; a misbehaving plugin
// fails its own execution and nothing else.
package plugin
