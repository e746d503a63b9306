// Package hid provides panel device access. The emulator in this
// package implements the device contract in software so the full
// pipeline runs on machines with no panel attached.
package hid

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/deckworks/deck-core/internal/devsync"
	"github.com/deckworks/deck-core/internal/render"
)

// Emulator is an in-memory panel. It records every frame and brightness
// write and lets callers inject key events, which makes it both the
// development backend and a realistic fixture.
type Emulator struct {
	info devsync.DeviceInfo

	mu         sync.Mutex
	frames     map[int]*render.Bitmap
	brightness int
	closed     bool

	events chan devsync.KeyEvent
}

// NewEmulator creates an emulated panel with the given geometry.
func NewEmulator(info devsync.DeviceInfo) *Emulator {
	if info.Serial == "" {
		info.Serial = "emulator-000"
	}
	return &Emulator{
		info:       info,
		frames:     make(map[int]*render.Bitmap),
		brightness: -1,
		events:     make(chan devsync.KeyEvent, 64),
	}
}

func (e *Emulator) Info() devsync.DeviceInfo {
	return e.info
}

func (e *Emulator) WriteKeyImage(slot int, bitmap *render.Bitmap) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return devsync.ErrNotConnected
	}
	if slot < 0 || slot >= e.info.KeyCount {
		return fmt.Errorf("emulator: slot %d out of range", slot)
	}
	e.frames[slot] = bitmap
	return nil
}

func (e *Emulator) SetBrightness(level int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return devsync.ErrNotConnected
	}
	e.brightness = level
	return nil
}

func (e *Emulator) PollEvents(timeout time.Duration) ([]devsync.KeyEvent, error) {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, devsync.ErrNotConnected
	}
	e.mu.Unlock()

	var events []devsync.KeyEvent
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-e.events:
		events = append(events, ev)
	case <-timer.C:
		return nil, nil
	}

	// Collect whatever else is already queued.
	for {
		select {
		case ev := <-e.events:
			events = append(events, ev)
		default:
			return events, nil
		}
	}
}

func (e *Emulator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

// PressKey injects a key-down followed by a key-up.
func (e *Emulator) PressKey(slot int) {
	e.events <- devsync.KeyEvent{Slot: slot, Pressed: true}
	e.events <- devsync.KeyEvent{Slot: slot, Pressed: false}
}

// InjectEvent queues a raw key transition.
func (e *Emulator) InjectEvent(ev devsync.KeyEvent) {
	e.events <- ev
}

// Frame returns the last bitmap written to a slot, or nil.
func (e *Emulator) Frame(slot int) *render.Bitmap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames[slot]
}

// Brightness returns the last pushed backlight level, -1 before any.
func (e *Emulator) Brightness() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.brightness
}

// EmulatorOpener opens the same emulator on every attempt.
type EmulatorOpener struct {
	mu       sync.Mutex
	template devsync.DeviceInfo
	current  *Emulator
}

// NewEmulatorOpener creates an opener producing emulators with the
// given geometry. Each Open call hands out a fresh emulator, matching
// how a reopened physical device starts blank.
func NewEmulatorOpener(info devsync.DeviceInfo) *EmulatorOpener {
	return &EmulatorOpener{template: info}
}

func (o *EmulatorOpener) Open(ctx context.Context) (devsync.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.current = NewEmulator(o.template)
	return o.current, nil
}

// Current returns the most recently opened emulator, or nil.
func (o *EmulatorOpener) Current() *Emulator {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.current
}
