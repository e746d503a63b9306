package devsync

import "errors"

// Domain errors for the devsync package.
var (
	// ErrDeviceNotFound is returned by an Opener when no panel is
	// attached. The synchronizer treats it as retryable.
	ErrDeviceNotFound = errors.New("devsync: device not found")

	// ErrNotConnected is returned for operations that need a live
	// device connection.
	ErrNotConnected = errors.New("devsync: device not connected")
)
