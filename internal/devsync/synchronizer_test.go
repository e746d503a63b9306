package devsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/deckworks/deck-core/internal/deck"
	"github.com/deckworks/deck-core/internal/render"
)

// memRepository is an in-memory deck repository for synchronizer tests.
type memRepository struct {
	mu   sync.Mutex
	snap *deck.Snapshot
}

func (m *memRepository) Load(context.Context) (*deck.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.snap == nil {
		return &deck.Snapshot{Brightness: deck.MaxBrightness}, nil
	}
	return m.snap.DeepCopy(), nil
}

func (m *memRepository) Save(_ context.Context, snap *deck.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap = snap.DeepCopy()
	return nil
}

// fakeHandle is a scripted device. Writes and brightness calls are
// recorded; PollEvents feeds from a queue and can be told to fail.
type fakeHandle struct {
	mu         sync.Mutex
	writes     map[int]int
	brightness []int
	events     []KeyEvent
	pollErr    error
	writeErr   error
	closed     bool
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{writes: make(map[int]int)}
}

func (f *fakeHandle) Info() DeviceInfo {
	return DeviceInfo{Serial: "fake-001", KeyCount: 6, Columns: 3, Rows: 2, KeyPixels: 72}
}

func (f *fakeHandle) WriteKeyImage(slot int, _ *render.Bitmap) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes[slot]++
	return nil
}

func (f *fakeHandle) SetBrightness(level int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.brightness = append(f.brightness, level)
	return nil
}

func (f *fakeHandle) PollEvents(timeout time.Duration) ([]KeyEvent, error) {
	f.mu.Lock()
	if f.pollErr != nil {
		err := f.pollErr
		f.mu.Unlock()
		return nil, err
	}
	if len(f.events) == 0 {
		f.mu.Unlock()
		time.Sleep(timeout)
		return nil, nil
	}
	events := f.events
	f.events = nil
	f.mu.Unlock()
	return events, nil
}

func (f *fakeHandle) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeHandle) queueEvents(events ...KeyEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, events...)
}

func (f *fakeHandle) writeCount(slot int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[slot]
}

func (f *fakeHandle) failPolls(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pollErr = err
}

// fakeOpener hands out handles in sequence, once each.
type fakeOpener struct {
	mu      sync.Mutex
	handles []Handle
	opens   int
}

func (f *fakeOpener) Open(context.Context) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if len(f.handles) == 0 {
		return nil, ErrDeviceNotFound
	}
	h := f.handles[0]
	f.handles = f.handles[1:]
	return h, nil
}

func (f *fakeOpener) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

func newTestSynchronizer(t *testing.T, opener Opener) (*Synchronizer, *deck.Store) {
	t.Helper()

	store := deck.NewStore(&memRepository{}, deck.StoreOptions{KeyCount: 6})
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("store.Load() error = %v", err)
	}

	renderer, err := render.NewRenderer(render.RendererOptions{KeyPixels: 72})
	if err != nil {
		t.Fatalf("NewRenderer() error = %v", err)
	}

	sync := NewSynchronizer(store, renderer, render.NewCache(64), opener, nil, SynchronizerOptions{
		HeartbeatInterval: 50 * time.Millisecond,
		PollTimeout:       5 * time.Millisecond,
		ReconnectInitial:  10 * time.Millisecond,
		ReconnectMax:      20 * time.Millisecond,
	})
	return sync, store
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

func TestSynchronizerPaintsFullFrameOnConnect(t *testing.T) {
	handle := newFakeHandle()
	sync, _ := newTestSynchronizer(t, &fakeOpener{handles: []Handle{handle}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sync.Run(ctx) }()

	waitFor(t, time.Second, func() bool {
		for slot := 0; slot < 6; slot++ {
			if handle.writeCount(slot) == 0 {
				return false
			}
		}
		return true
	})

	if sync.State() != StateConnected {
		t.Errorf("state = %s, want connected", sync.State())
	}

	handle.mu.Lock()
	brightness := append([]int(nil), handle.brightness...)
	handle.mu.Unlock()
	if len(brightness) == 0 || brightness[0] != deck.MaxBrightness {
		t.Errorf("brightness pushes = %v, want initial %d", brightness, deck.MaxBrightness)
	}
}

func TestSynchronizerSkipsUnchangedKeys(t *testing.T) {
	handle := newFakeHandle()
	sync, _ := newTestSynchronizer(t, &fakeOpener{handles: []Handle{handle}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sync.Run(ctx) }()

	waitFor(t, time.Second, func() bool { return handle.writeCount(0) > 0 })

	// Sit through several heartbeats; nothing changed, nothing rewrites.
	time.Sleep(200 * time.Millisecond)
	if got := handle.writeCount(0); got != 1 {
		t.Errorf("slot 0 written %d times, want 1", got)
	}
}

func TestSynchronizerDebouncesPresses(t *testing.T) {
	handle := newFakeHandle()
	sync, store := newTestSynchronizer(t, &fakeOpener{handles: []Handle{handle}})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sync.Run(ctx) }()

	waitFor(t, time.Second, func() bool { return sync.State() == StateConnected })

	// Two downs without a release must emit one press; the release then
	// rearms the slot.
	handle.queueEvents(
		KeyEvent{Slot: 2, Pressed: true},
		KeyEvent{Slot: 2, Pressed: true},
		KeyEvent{Slot: 2, Pressed: false},
		KeyEvent{Slot: 2, Pressed: true},
	)

	var presses []Press
	deadline := time.After(time.Second)
	for len(presses) < 2 {
		select {
		case p := <-sync.Presses():
			presses = append(presses, p)
		case <-deadline:
			t.Fatalf("got %d presses before timeout, want 2", len(presses))
		}
	}

	select {
	case p := <-sync.Presses():
		t.Fatalf("unexpected third press: %+v", p)
	case <-time.After(50 * time.Millisecond):
	}

	activeID := store.ActivePage().ID
	for _, p := range presses {
		if p.Slot != 2 || p.PageID != activeID {
			t.Errorf("press = %+v, want slot 2 on page %s", p, activeID)
		}
	}
}

func TestSynchronizerReconnectsAfterIOError(t *testing.T) {
	first := newFakeHandle()
	second := newFakeHandle()
	opener := &fakeOpener{handles: []Handle{first, second}}
	sync, _ := newTestSynchronizer(t, opener)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sync.Run(ctx) }()

	waitFor(t, time.Second, func() bool { return first.writeCount(0) > 0 })

	first.failPolls(errors.New("usb gone"))

	// The replacement connection gets a full repaint.
	waitFor(t, time.Second, func() bool {
		for slot := 0; slot < 6; slot++ {
			if second.writeCount(slot) == 0 {
				return false
			}
		}
		return true
	})

	first.mu.Lock()
	closed := first.closed
	first.mu.Unlock()
	if !closed {
		t.Error("failed handle was not closed")
	}
}

func TestSynchronizerBacksOffWhenAbsent(t *testing.T) {
	opener := &fakeOpener{}
	sync, _ := newTestSynchronizer(t, opener)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := sync.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
	if sync.State() != StateDisconnected {
		t.Errorf("state after shutdown = %s, want disconnected", sync.State())
	}

	// 10ms, 20ms, 20ms... within 100ms that is a handful of attempts,
	// not a tight loop.
	if n := opener.openCount(); n < 2 || n > 10 {
		t.Errorf("open attempts = %d, want a few", n)
	}
}

// flappingOpener always opens successfully, but every handle it hands
// out fails its first write, so serve dies immediately after connect.
type flappingOpener struct {
	mu    sync.Mutex
	opens int
}

func (f *flappingOpener) Open(context.Context) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	h := newFakeHandle()
	h.writeErr = errors.New("usb flap")
	return h, nil
}

func (f *flappingOpener) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

func TestSynchronizerBacksOffWhenDeviceFlaps(t *testing.T) {
	opener := &flappingOpener{}
	sync, _ := newTestSynchronizer(t, opener)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := sync.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}

	// Every cycle opens, fails the first write and must then sleep.
	// 10ms, 20ms, 20ms... caps the attempts; a tight loop would
	// produce thousands.
	if n := opener.openCount(); n < 2 || n > 15 {
		t.Errorf("open attempts = %d, want a paced handful", n)
	}
}
