package devsync

import (
	"context"
	"time"

	"github.com/deckworks/deck-core/internal/render"
)

// DeviceInfo describes an opened panel.
type DeviceInfo struct {
	Serial    string
	KeyCount  int
	Columns   int
	Rows      int
	KeyPixels int
}

// KeyEvent is one key state transition reported by the device. Pressed
// is true on key-down, false on key-up.
type KeyEvent struct {
	Slot    int
	Pressed bool
}

// Handle is an open connection to a button panel. Implementations are
// used by a single goroutine; the synchronizer never calls a handle
// concurrently.
type Handle interface {
	Info() DeviceInfo

	// WriteKeyImage pushes a rendered face to one key.
	WriteKeyImage(slot int, bitmap *render.Bitmap) error

	// SetBrightness sets the backlight, 0-100.
	SetBrightness(level int) error

	// PollEvents blocks up to timeout and returns any key transitions
	// that occurred. An empty slice on timeout is not an error.
	PollEvents(timeout time.Duration) ([]KeyEvent, error)

	Close() error
}

// Opener locates and opens a panel. Open returns ErrDeviceNotFound when
// no panel is present; the synchronizer backs off and retries.
type Opener interface {
	Open(ctx context.Context) (Handle, error)
}
