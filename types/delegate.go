package types

import "context"

// Delegate is the unit of work that should run only while this participant
// holds leadership.
//
// A fresh Delegate is produced by the owner's factory on every leadership
// acquisition; instances are never reused. The leader service drives the
// lifecycle through an internal monitor which translates Start/Stop calls
// into the ordered event stream described by DelegateState.
//
// Contract:
//   - Start blocks until the delegate is running, then returns nil. A non-nil
//     error means startup failed and the instance is dead.
//   - Stop blocks until the delegate has shut down, then returns nil. A
//     non-nil error means shutdown failed; the instance is dead either way.
//   - Both methods are called at most once per instance, from the monitor's
//     goroutine, and must respect context cancellation.
type Delegate interface {
	// Start brings the delegate to its running state.
	Start(ctx context.Context) error

	// Stop gracefully shuts the delegate down.
	Stop(ctx context.Context) error
}

// SelfStopping is an optional interface for delegates that may stop on their
// own initiative while running.
//
// If implemented, the monitor watches the Stopped channel after the delegate
// reaches running. A value received there moves the delegate to stopping and
// then to terminated (nil) or failed (non-nil) without calling Stop.
type SelfStopping interface {
	// Stopped returns a channel that yields exactly one value when the
	// delegate has stopped itself. The channel must not yield before Start
	// has returned.
	Stopped() <-chan error
}

// DelegateFactory produces a fresh delegate instance for each leadership
// acquisition.
type DelegateFactory func() Delegate

// DelegateState represents a stage in a delegate instance's lifecycle.
//
// For a given instance the monitor delivers events in this order:
//
//	DelegateStarting → (DelegateRunning | DelegateFailed)
//
// and, once running:
//
//	DelegateStopping → (DelegateTerminated | DelegateFailed)
//
// Each event is delivered exactly once. DelegateTerminated and DelegateFailed
// are terminal.
type DelegateState int

const (
	// DelegateNew is the state before the monitor starts the delegate.
	DelegateNew DelegateState = iota

	// DelegateStarting indicates Start has been invoked.
	DelegateStarting

	// DelegateRunning indicates Start returned successfully.
	DelegateRunning

	// DelegateStopping indicates shutdown has begun, whether requested
	// externally or initiated by the delegate itself.
	DelegateStopping

	// DelegateTerminated indicates a clean shutdown. Terminal.
	DelegateTerminated

	// DelegateFailed indicates the delegate's Start or Stop returned an
	// error, or a self-stop reported one. Terminal.
	DelegateFailed
)

// Terminal reports whether the state is a terminal delegate state.
func (s DelegateState) Terminal() bool {
	return s == DelegateTerminated || s == DelegateFailed
}

// String returns the string representation of the delegate state.
func (s DelegateState) String() string {
	switch s {
	case DelegateNew:
		return "New"
	case DelegateStarting:
		return "Starting"
	case DelegateRunning:
		return "Running"
	case DelegateStopping:
		return "Stopping"
	case DelegateTerminated:
		return "Terminated"
	case DelegateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// DelegateEvent is a single entry in a delegate instance's ordered lifecycle
// event stream.
type DelegateEvent struct {
	// State is the stage the delegate transitioned to.
	State DelegateState

	// Err carries the failure for DelegateFailed events, nil otherwise.
	Err error
}
