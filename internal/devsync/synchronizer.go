package devsync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deckworks/deck-core/internal/bus"
	"github.com/deckworks/deck-core/internal/deck"
	"github.com/deckworks/deck-core/internal/render"
)

// Logger defines the logging interface used by the Synchronizer.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// State is the connectivity state of the synchronizer.
type State string

const (
	StateDisconnected State = "disconnected"
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
)

// Press is a debounced key-down on the panel, resolved to the page that
// was active when it happened.
type Press struct {
	PageID string
	Slot   int
	At     time.Time
}

// SynchronizerOptions configures a Synchronizer.
type SynchronizerOptions struct {
	// HeartbeatInterval paces full-state reconciliation even when no
	// mutation events arrive.
	HeartbeatInterval time.Duration

	// PollTimeout bounds each device event poll.
	PollTimeout time.Duration

	// ReconnectInitial and ReconnectMax bound the exponential backoff
	// between connection attempts.
	ReconnectInitial time.Duration
	ReconnectMax     time.Duration

	// PressBuffer is the capacity of the press channel. When the
	// dispatcher falls behind, further presses are dropped with a
	// warning rather than blocking the device loop.
	PressBuffer int

	Logger Logger
}

func (o *SynchronizerOptions) applyDefaults() {
	if o.HeartbeatInterval <= 0 {
		o.HeartbeatInterval = 30 * time.Second
	}
	if o.PollTimeout <= 0 {
		o.PollTimeout = 50 * time.Millisecond
	}
	if o.ReconnectInitial <= 0 {
		o.ReconnectInitial = time.Second
	}
	if o.ReconnectMax <= 0 {
		o.ReconnectMax = 30 * time.Second
	}
	if o.PressBuffer <= 0 {
		o.PressBuffer = 32
	}
}

// Synchronizer keeps an attached panel consistent with the config
// store. It owns the device connection: it reconnects with capped
// exponential backoff, repaints the full frame after every connect,
// and between heartbeats repaints only keys whose content hash moved.
// Key-down transitions surface on Presses after debouncing.
type Synchronizer struct {
	store    *deck.Store
	renderer *render.Renderer
	cache    *render.Cache
	opener   Opener
	eventBus bus.MessageBus
	logger   Logger
	opts     SynchronizerOptions

	presses chan Press

	stateMu sync.RWMutex
	state   State

	// Device-loop state, touched only from Run's goroutine.
	lastPushed     map[int]uint64
	lastBrightness int
	down           map[int]bool
}

// NewSynchronizer creates a synchronizer. Run must be started for it to
// do anything.
func NewSynchronizer(store *deck.Store, renderer *render.Renderer, cache *render.Cache, opener Opener, eventBus bus.MessageBus, opts SynchronizerOptions) *Synchronizer {
	opts.applyDefaults()
	if opts.Logger == nil {
		opts.Logger = noopLogger{}
	}
	return &Synchronizer{
		store:          store,
		renderer:       renderer,
		cache:          cache,
		opener:         opener,
		eventBus:       eventBus,
		logger:         opts.Logger,
		opts:           opts,
		presses:        make(chan Press, opts.PressBuffer),
		state:          StateDisconnected,
		lastPushed:     make(map[int]uint64),
		lastBrightness: -1,
		down:           make(map[int]bool),
	}
}

// Presses returns the channel of debounced key presses.
func (s *Synchronizer) Presses() <-chan Press {
	return s.presses
}

// State returns the current connectivity state.
func (s *Synchronizer) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Synchronizer) setState(state State, cause error) {
	s.stateMu.Lock()
	changed := s.state != state
	s.state = state
	s.stateMu.Unlock()

	if !changed {
		return
	}

	event := bus.DeviceStateEvent{State: string(state), Timestamp: time.Now().UTC()}
	if cause != nil {
		event.Err = cause.Error()
	}
	if s.eventBus != nil {
		s.eventBus.Publish(bus.TopicDeviceState, event)
	}
	s.logger.Info("device state changed", "state", state, "cause", errString(cause))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// Run drives the connection lifecycle until ctx is cancelled.
func (s *Synchronizer) Run(ctx context.Context) error {
	var mutations bus.Subscription
	if s.eventBus != nil {
		mutations = s.eventBus.Subscribe(bus.TopicPage, bus.TopicButton, bus.TopicBrightness)
		defer s.eventBus.Unsubscribe(mutations)
	}

	delay := s.opts.ReconnectInitial
	for {
		s.setState(StateConnecting, nil)
		handle, err := s.opener.Open(ctx)
		if err != nil {
			if ctx.Err() != nil {
				s.setState(StateDisconnected, nil)
				return ctx.Err()
			}
			if !errors.Is(err, ErrDeviceNotFound) {
				s.logger.Warn("device open failed", "error", err)
			}
			s.setState(StateDisconnected, err)

			if waitErr := s.backoff(ctx, &delay); waitErr != nil {
				return waitErr
			}
			continue
		}

		connected := time.Now()
		err = s.serve(ctx, handle, mutations)
		if closeErr := handle.Close(); closeErr != nil {
			s.logger.Debug("device close failed", "error", closeErr)
		}
		if ctx.Err() != nil {
			s.setState(StateDisconnected, nil)
			return ctx.Err()
		}
		s.setState(StateDisconnected, err)

		// Only a connection that stayed up resets the schedule; a
		// device that flaps right after open keeps backing off.
		if time.Since(connected) >= s.opts.ReconnectMax {
			delay = s.opts.ReconnectInitial
		}
		if waitErr := s.backoff(ctx, &delay); waitErr != nil {
			return waitErr
		}
	}
}

// backoff sleeps for the current delay, then doubles it up to the
// configured cap. Returns the context error if cancelled while waiting.
func (s *Synchronizer) backoff(ctx context.Context, delay *time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(*delay):
	}
	*delay *= 2
	if *delay > s.opts.ReconnectMax {
		*delay = s.opts.ReconnectMax
	}
	return nil
}

// serve runs the connected loop until the device errors or ctx ends.
func (s *Synchronizer) serve(ctx context.Context, handle Handle, mutations bus.Subscription) error {
	info := handle.Info()
	s.logger.Info("device connected",
		"serial", info.Serial,
		"keys", info.KeyCount,
		"key_pixels", info.KeyPixels)

	// A fresh connection knows nothing about what is on screen.
	s.lastPushed = make(map[int]uint64)
	s.lastBrightness = -1
	s.down = make(map[int]bool)

	if err := s.syncFrame(handle); err != nil {
		return err
	}
	s.setState(StateConnected, nil)

	heartbeat := time.NewTicker(s.opts.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		dirty := false

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-heartbeat.C:
			dirty = true
		case _, ok := <-mutations:
			if !ok {
				mutations = nil
				break
			}
			dirty = true
			s.drain(mutations)
		default:
		}

		events, err := handle.PollEvents(s.opts.PollTimeout)
		if err != nil {
			return fmt.Errorf("polling device: %w", err)
		}
		s.handleEvents(events)

		if dirty {
			if err := s.syncFrame(handle); err != nil {
				return err
			}
		}
	}
}

// drain consumes queued mutation events; the next syncFrame covers them
// all at once.
func (s *Synchronizer) drain(mutations bus.Subscription) {
	for {
		select {
		case _, ok := <-mutations:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// handleEvents debounces raw transitions into presses. Only an up to
// down edge emits; repeats while held and release events do not.
func (s *Synchronizer) handleEvents(events []KeyEvent) {
	for _, ev := range events {
		if !ev.Pressed {
			delete(s.down, ev.Slot)
			continue
		}
		if s.down[ev.Slot] {
			continue
		}
		s.down[ev.Slot] = true

		press := Press{
			PageID: s.store.ActivePage().ID,
			Slot:   ev.Slot,
			At:     time.Now().UTC(),
		}
		select {
		case s.presses <- press:
		default:
			s.logger.Warn("press dropped, dispatcher backlogged",
				"page_id", press.PageID, "slot", press.Slot)
		}
	}
}

// syncFrame reconciles the panel with the store: brightness first, then
// every key whose content hash differs from what was last written.
func (s *Synchronizer) syncFrame(handle Handle) error {
	if level := s.store.Brightness(); level != s.lastBrightness {
		if err := handle.SetBrightness(level); err != nil {
			return fmt.Errorf("setting brightness: %w", err)
		}
		s.lastBrightness = level
	}

	page := s.store.ActivePage()
	keyCount := handle.Info().KeyCount
	if sc := s.store.KeyCount(); sc < keyCount {
		keyCount = sc
	}

	for slot := 0; slot < keyCount; slot++ {
		button := page.Buttons[slot]
		hash := s.renderer.Hash(page, button)
		if s.lastPushed[slot] == hash {
			continue
		}

		bitmap, ok := s.cache.Get(hash)
		if !ok {
			var err error
			bitmap, err = s.renderer.RenderButton(page, button)
			if err != nil {
				return fmt.Errorf("rendering slot %d: %w", slot, err)
			}
			s.cache.Put(bitmap)
		}

		if err := handle.WriteKeyImage(slot, bitmap); err != nil {
			return fmt.Errorf("writing slot %d: %w", slot, err)
		}
		s.lastPushed[slot] = hash
	}
	return nil
}
