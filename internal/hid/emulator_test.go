package hid

import (
	"context"
	"testing"
	"time"

	"github.com/deckworks/deck-core/internal/devsync"
)

func testInfo() devsync.DeviceInfo {
	return devsync.DeviceInfo{KeyCount: 6, Columns: 3, Rows: 2, KeyPixels: 72}
}

func TestEmulatorWriteAndBrightness(t *testing.T) {
	e := NewEmulator(testInfo())

	if err := e.SetBrightness(70); err != nil {
		t.Fatalf("SetBrightness() error = %v", err)
	}
	if got := e.Brightness(); got != 70 {
		t.Errorf("Brightness() = %d, want 70", got)
	}

	if err := e.WriteKeyImage(7, nil); err == nil {
		t.Error("WriteKeyImage(out of range) should fail")
	}
}

func TestEmulatorPollEvents(t *testing.T) {
	e := NewEmulator(testInfo())

	events, err := e.PollEvents(10 * time.Millisecond)
	if err != nil {
		t.Fatalf("PollEvents() error = %v", err)
	}
	if len(events) != 0 {
		t.Errorf("idle poll returned %d events", len(events))
	}

	e.PressKey(3)
	events, err = e.PollEvents(time.Second)
	if err != nil {
		t.Fatalf("PollEvents() error = %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("PressKey produced %d events, want 2", len(events))
	}
	if !events[0].Pressed || events[1].Pressed || events[0].Slot != 3 {
		t.Errorf("events = %+v", events)
	}
}

func TestEmulatorClosedRejectsIO(t *testing.T) {
	e := NewEmulator(testInfo())
	_ = e.Close()

	if err := e.SetBrightness(10); err == nil {
		t.Error("SetBrightness after Close should fail")
	}
	if _, err := e.PollEvents(time.Millisecond); err == nil {
		t.Error("PollEvents after Close should fail")
	}
}

func TestEmulatorOpenerFreshPerOpen(t *testing.T) {
	opener := NewEmulatorOpener(testInfo())

	first, err := opener.Open(context.Background())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	second, err := opener.Open(context.Background())
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	if first == second {
		t.Error("opener reused a handle across opens")
	}
	if opener.Current() != second {
		t.Error("Current() should track the latest open")
	}
}
