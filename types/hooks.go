package types

import "context"

// Hooks defines callbacks for leader service lifecycle events.
//
// All hooks are optional. Hooks receive the service's lifecycle context,
// which is cancelled during shutdown.
//
// Hook execution behavior:
//   - OnDelegateEvent is invoked synchronously from the supervision loop so
//     consumers observe delegate events in emission order; keep it fast
//   - All other hooks run in background goroutines and may not complete
//     before Stop returns
//   - Hook errors are logged but never fail service operations
type Hooks struct {
	// OnStateChanged is called when the service state transitions.
	OnStateChanged func(ctx context.Context, from, to State) error

	// OnLeadershipChanged is called when this participant gains or loses
	// leadership. For losses, cause describes why the acquisition ended.
	OnLeadershipChanged func(ctx context.Context, isLeader bool, cause RevokeCause) error

	// OnDelegateEvent is called for every delegate lifecycle event, in the
	// order the delegate emitted them.
	OnDelegateEvent func(ctx context.Context, ev DelegateEvent) error

	// OnError is called when a recoverable error is absorbed, such as a
	// delegate failure or a transient coordination error during
	// re-contention.
	OnError func(ctx context.Context, err error) error
}
