package types

// MetricsCollector defines methods for recording operational metrics.
//
// Implementations should be non-blocking and handle failures gracefully.
// All methods are called from internal goroutines and must be thread-safe.
//
// This interface composes smaller, domain-focused interfaces for better
// modularity.
type MetricsCollector interface {
	ServiceMetrics
	ElectionMetrics
	DelegateMetrics
}

// ServiceMetrics defines metrics for controller-level operations.
type ServiceMetrics interface {
	// RecordStateTransition records a service state transition event.
	RecordStateTransition(from, to State)

	// RecordReacquireWait records a completed reacquire-delay wait.
	//
	// Parameters:
	//   - seconds: Actual time spent waiting before re-entering contention
	RecordReacquireWait(seconds float64)
}

// ElectionMetrics defines metrics for election events.
type ElectionMetrics interface {
	// RecordLeadershipAcquired records a successful leadership acquisition.
	RecordLeadershipAcquired(id string)

	// RecordLeadershipLost records the end of a leadership acquisition.
	//
	// Parameters:
	//   - cause: Revoke cause ("session_lost", "relinquished", "stopped")
	RecordLeadershipLost(cause string)

	// SetParticipants sets the currently observed number of candidates.
	SetParticipants(count int)
}

// DelegateMetrics defines metrics for delegate lifecycle events.
type DelegateMetrics interface {
	// RecordDelegateEvent records a delegate lifecycle event by state name.
	RecordDelegateEvent(state string)

	// RecordDelegateFailure records a delegate failure.
	//
	// Parameters:
	//   - stage: Where the failure occurred ("startup", "shutdown", "self_stop")
	RecordDelegateFailure(stage string)
}
