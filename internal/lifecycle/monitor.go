// Package lifecycle adapts an arbitrary delegate into a uniform, ordered
// lifecycle event stream.
package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/arloliu/leadersvc/internal/trigger"
	"github.com/arloliu/leadersvc/types"
)

// Common errors for monitor operations.
var (
	ErrAlreadyStarted = errors.New("monitor already started")
)

// Monitor supervises a single delegate instance and translates its lifecycle
// into the ordered event stream:
//
//	Starting → (Running | Failed)
//	Running  → Stopping → (Terminated | Failed)
//
// Each event is delivered exactly once, from the monitor's own goroutine.
// A monitor is single-use: it owns one delegate instance from Start until a
// terminal event, and is discarded afterwards together with the delegate.
//
// Stop may be called at any stage. If the delegate is still starting, the
// request is latched and honored the moment the delegate reaches running.
// Delegates implementing types.SelfStopping may also end the acquisition on
// their own initiative.
type Monitor struct {
	delegate     types.Delegate
	logger       types.Logger
	startTimeout time.Duration
	stopTimeout  time.Duration

	state    atomic.Int32 // types.DelegateState
	events   chan types.DelegateEvent
	terminal *trigger.Trigger

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewMonitor creates a monitor for a single delegate instance.
//
// Parameters:
//   - delegate: The delegate instance to supervise
//   - logger: Logger for lifecycle events
//   - startTimeout: Timeout applied to the delegate's Start call (0 = none)
//   - stopTimeout: Timeout applied to the delegate's Stop call (0 = none)
//
// Returns:
//   - *Monitor: Monitor in the New state; call Start to begin
func NewMonitor(delegate types.Delegate, logger types.Logger, startTimeout, stopTimeout time.Duration) *Monitor {
	m := &Monitor{
		delegate:     delegate,
		logger:       logger,
		startTimeout: startTimeout,
		stopTimeout:  stopTimeout,
		// Buffer covers the longest possible event sequence so the producer
		// never blocks on a slow consumer.
		events:   make(chan types.DelegateEvent, 8),
		terminal: trigger.New(),
		stopCh:   make(chan struct{}),
	}
	m.state.Store(int32(types.DelegateNew))

	return m
}

// Start launches the delegate's lifecycle in a background goroutine.
//
// Returns:
//   - error: ErrAlreadyStarted if Start was already called
func (m *Monitor) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	m.started = true

	go m.run()

	return nil
}

// Stop requests delegate shutdown. Safe to call at any stage and more than
// once; returns immediately without waiting for the terminal event.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

// Events returns the delegate's ordered lifecycle event stream. The channel
// is closed after the terminal event has been delivered.
func (m *Monitor) Events() <-chan types.DelegateEvent {
	return m.events
}

// State returns the delegate's current lifecycle state.
func (m *Monitor) State() types.DelegateState {
	return types.DelegateState(m.state.Load())
}

// IsRunning reports whether the delegate is between its running and stopping
// events.
func (m *Monitor) IsRunning() bool {
	return m.State() == types.DelegateRunning
}

// Delegate returns the supervised delegate instance.
func (m *Monitor) Delegate() types.Delegate {
	return m.delegate
}

// AwaitTerminal blocks until the delegate reaches a terminal state or the
// timeout elapses.
//
// Parameters:
//   - timeout: Maximum duration to wait
//
// Returns:
//   - bool: true if a terminal state was reached within the timeout
func (m *Monitor) AwaitTerminal(timeout time.Duration) bool {
	return m.terminal.FiredWithin(timeout)
}

// run drives the delegate through its lifecycle. All events are emitted from
// this goroutine, which guarantees ordering.
func (m *Monitor) run() {
	defer close(m.events)

	m.emit(types.DelegateStarting, nil)

	startCtx, cancel := opContext(m.startTimeout)
	err := m.delegate.Start(startCtx)
	cancel()

	if err != nil {
		m.logger.Error("delegate startup failed", "error", err)
		m.emit(types.DelegateFailed, err)

		return
	}

	m.emit(types.DelegateRunning, nil)

	// Wait for an external stop request or, when supported, a self-stop.
	var selfStopCh <-chan error
	if ss, ok := m.delegate.(types.SelfStopping); ok {
		selfStopCh = ss.Stopped()
	}

	select {
	case <-m.stopCh:
		m.emit(types.DelegateStopping, nil)

		stopCtx, cancel := opContext(m.stopTimeout)
		err := m.delegate.Stop(stopCtx)
		cancel()

		if err != nil {
			m.logger.Error("delegate shutdown failed", "error", err)
			m.emit(types.DelegateFailed, err)

			return
		}

		m.emit(types.DelegateTerminated, nil)

	case err := <-selfStopCh:
		m.emit(types.DelegateStopping, nil)

		if err != nil {
			m.logger.Error("delegate stopped itself with error", "error", err)
			m.emit(types.DelegateFailed, err)

			return
		}

		m.logger.Debug("delegate stopped itself")
		m.emit(types.DelegateTerminated, nil)
	}
}

// emit records the new state and delivers the event, firing the terminal
// trigger for terminal states.
func (m *Monitor) emit(state types.DelegateState, err error) {
	m.state.Store(int32(state)) //nolint:gosec // bounded enum, safe conversion

	m.events <- types.DelegateEvent{State: state, Err: err}

	if state.Terminal() {
		m.terminal.Fire()
	}
}

// opContext builds the context for a delegate Start/Stop call.
func opContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(context.Background())
	}

	return context.WithTimeout(context.Background(), timeout)
}
