package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/deckworks/deck-core/internal/bus"
	"github.com/deckworks/deck-core/internal/deck"
	"github.com/deckworks/deck-core/internal/devsync"
	"github.com/deckworks/deck-core/internal/plugin"
)

// Logger defines the logging interface used by the Dispatcher.
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

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	// Timeout bounds each plugin execution.
	Timeout time.Duration

	Logger Logger
}

// Dispatcher consumes debounced presses and runs the bound plugin for
// each. Every execution gets its own goroutine with a deadline, so a
// slow or hung plugin delays nothing: not the device loop, not other
// presses, not shutdown. Outcomes are published on the bus for
// notifiers and history.
type Dispatcher struct {
	store    *deck.Store
	registry *plugin.Registry
	eventBus bus.MessageBus
	logger   Logger
	timeout  time.Duration

	wg sync.WaitGroup
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(store *deck.Store, registry *plugin.Registry, eventBus bus.MessageBus, opts DispatcherOptions) *Dispatcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &Dispatcher{
		store:    store,
		registry: registry,
		eventBus: eventBus,
		logger:   logger,
		timeout:  timeout,
	}
}

// Run consumes presses until the channel closes or ctx is cancelled.
// It waits for in-flight executions to finish or time out before
// returning.
func (d *Dispatcher) Run(ctx context.Context, presses <-chan devsync.Press) error {
	defer d.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case press, ok := <-presses:
			if !ok {
				return nil
			}
			d.dispatch(ctx, press)
		}
	}
}

// dispatch resolves a press against the current config and launches the
// plugin. Resolution failures and action-less buttons are quiet no-ops;
// the deck's empty keys are pressable by design of the hardware.
func (d *Dispatcher) dispatch(ctx context.Context, press devsync.Press) {
	button, err := d.store.GetButton(press.PageID, press.Slot)
	if err != nil {
		d.logger.Debug("press on empty slot", "page_id", press.PageID, "slot", press.Slot)
		return
	}
	if !button.HasAction() {
		d.logger.Debug("press without action",
			"page_id", press.PageID, "slot", press.Slot, "enabled", button.Enabled)
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.execute(ctx, press, button)
	}()
}

// execute runs one plugin with a deadline and publishes the outcome.
func (d *Dispatcher) execute(ctx context.Context, press devsync.Press, button *deck.Button) {
	action := button.Action
	slot := plugin.SlotContext{PageID: press.PageID, Slot: press.Slot, Label: button.Label}

	execCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	type outcome struct {
		result *plugin.Result
		err    error
	}
	done := make(chan outcome, 1)

	start := time.Now()
	go func() {
		result, err := d.registry.Execute(execCtx, action.PluginID, plugin.Config(action.Config), slot)
		done <- outcome{result: result, err: err}
	}()

	var result *plugin.Result
	var err error
	select {
	case o := <-done:
		result, err = o.result, o.err
	case <-execCtx.Done():
		err = fmt.Errorf("%w: %s after %s", ErrPluginTimeout, action.PluginID, d.timeout)
	}
	duration := time.Since(start)

	event := bus.DispatchEvent{
		PageID:   press.PageID,
		Slot:     press.Slot,
		PluginID: action.PluginID,
		OK:       err == nil,
		Duration: duration,
	}

	switch {
	case err == nil:
		if result != nil {
			event.Message = result.Message
		}
		d.logger.Info("action dispatched",
			"plugin_id", action.PluginID,
			"page_id", press.PageID,
			"slot", press.Slot,
			"duration_ms", duration.Milliseconds(),
			"message", event.Message)
	case errors.Is(err, ErrPluginTimeout):
		event.Message = err.Error()
		d.logger.Warn("action timed out",
			"plugin_id", action.PluginID,
			"page_id", press.PageID,
			"slot", press.Slot,
			"timeout", d.timeout)
	default:
		event.Message = err.Error()
		d.logger.Error("action failed",
			"plugin_id", action.PluginID,
			"page_id", press.PageID,
			"slot", press.Slot,
			"error", err)
	}

	if d.eventBus != nil {
		d.eventBus.Publish(bus.TopicDispatch, event)
	}
}
