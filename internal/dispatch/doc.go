// Package dispatch connects key presses to plugin executions.
//
// The dispatcher reads debounced presses from the synchronizer, looks
// up the pressed button in the store, and runs its plugin in a fresh
// goroutine under a deadline. Executions are isolated: a failure or
// panic affects only its own press, and a plugin that ignores its
// context is abandoned at the deadline rather than waited for. Every
// outcome, success, failure or timeout, is published on the bus.
package dispatch
