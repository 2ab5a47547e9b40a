package types

// State represents the leader service lifecycle state.
//
// States follow a defined progression during normal operation:
//
//	StateIdle → StateContending → StateLeading → StateContending → ...
//
// The Leading↔Contending cycle repeats on every leadership change. Shutdown
// is one-way:
//
//	any state → StateStopping → StateStopped
//
// StateStopped is terminal; a stopped service cannot be restarted.
type State int

const (
	// StateIdle is the initial state before Start is called.
	StateIdle State = iota

	// StateContending indicates the service is competing for leadership.
	// This includes the reacquire-delay pause between losing leadership and
	// re-entering the election.
	StateContending

	// StateLeading indicates the service holds leadership and supervises a
	// live delegate instance.
	StateLeading

	// StateStopping indicates graceful shutdown is in progress.
	StateStopping

	// StateStopped indicates the service has shut down. Terminal.
	StateStopped
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateContending:
		return "Contending"
	case StateLeading:
		return "Leading"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
