package dispatch

import "errors"

// Domain errors for the dispatch package.
var (
	// ErrPluginTimeout is returned when a plugin execution exceeds the
	// dispatch deadline. The execution goroutine is abandoned; a plugin
	// that ignores its context leaks until it returns on its own.
	ErrPluginTimeout = errors.New("dispatch: plugin timed out")
)
