package leadersvc

import (
	"github.com/arloliu/leadersvc/types"
)

// Re-export types from the types package for a cleaner public API.
// Users can use leadersvc.State instead of types.State.

// State represents the leader service lifecycle state.
type State = types.State

// State constants.
const (
	StateIdle       = types.StateIdle
	StateContending = types.StateContending
	StateLeading    = types.StateLeading
	StateStopping   = types.StateStopping
	StateStopped    = types.StateStopped
)

// Participant is a snapshot of one candidate in the election.
type Participant = types.Participant

// NoLeader is the sentinel returned by Leader when no participant currently
// holds leadership.
var NoLeader = types.NoLeader

// RevokeCause describes why a leadership acquisition ended.
type RevokeCause = types.RevokeCause

// RevokeCause constants.
const (
	CauseSessionLost  = types.CauseSessionLost
	CauseRelinquished = types.CauseRelinquished
	CauseStopped      = types.CauseStopped
)

// Delegate is the unit of work that runs only while this participant holds
// leadership.
type Delegate = types.Delegate

// SelfStopping is an optional interface for delegates that may stop on their
// own initiative while running.
type SelfStopping = types.SelfStopping

// DelegateFactory produces a fresh delegate instance for each leadership
// acquisition.
type DelegateFactory = types.DelegateFactory

// DelegateState represents a stage in a delegate instance's lifecycle.
type DelegateState = types.DelegateState

// DelegateState constants.
const (
	DelegateNew        = types.DelegateNew
	DelegateStarting   = types.DelegateStarting
	DelegateRunning    = types.DelegateRunning
	DelegateStopping   = types.DelegateStopping
	DelegateTerminated = types.DelegateTerminated
	DelegateFailed     = types.DelegateFailed
)

// DelegateEvent is a single entry in a delegate instance's ordered lifecycle
// event stream.
type DelegateEvent = types.DelegateEvent

// Elector handles leader election among named participants.
type Elector = types.Elector

// Logger defines methods for structured logging.
type Logger = types.Logger

// MetricsCollector defines methods for recording operational metrics.
type MetricsCollector = types.MetricsCollector

// Hooks defines callbacks for leader service lifecycle events.
type Hooks = types.Hooks
