package types

import "context"

// Participant is a snapshot of one candidate in the election.
//
// Snapshots are produced fresh on every query and never cached by the leader
// service.
type Participant struct {
	// ID is the participant's identity as supplied by its owner,
	// conventionally host:port.
	ID string

	// IsLeader reports whether this participant held leadership at the time
	// of the snapshot.
	IsLeader bool
}

// NoLeader is the sentinel returned by leader queries when no participant
// currently holds leadership.
var NoLeader = Participant{}

// RevokeCause describes why a leadership acquisition ended.
type RevokeCause int

const (
	// CauseSessionLost indicates the coordination lease expired or was taken
	// over while this participant believed it was leading.
	CauseSessionLost RevokeCause = iota

	// CauseRelinquished indicates leadership was released voluntarily, for
	// example after the delegate reached a terminal state.
	CauseRelinquished

	// CauseStopped indicates the participant withdrew from the election
	// because its leader service is shutting down.
	CauseStopped
)

// String returns the string representation of the revoke cause.
func (c RevokeCause) String() string {
	switch c {
	case CauseSessionLost:
		return "session_lost"
	case CauseRelinquished:
		return "relinquished"
	case CauseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Elector handles leader election among named participants.
//
// The built-in implementation coordinates through a NATS JetStream KV bucket,
// but any mutual-exclusion election primitive fits: Consul sessions, etcd
// leases, ZooKeeper recipes, or an in-process fake for tests.
//
// Event delivery contract:
//   - Granted yields exactly one value per leadership acquisition, before any
//     other event for that acquisition.
//   - Revoked yields at most one value per acquisition, always after the
//     corresponding grant. It fires for any form of loss: lease expiry,
//     voluntary release, or withdrawal.
//
// Both channels are owned by the elector and written from a single goroutine,
// so grant/revoke pairs are never reordered.
type Elector interface {
	// StartParticipating begins advertising this participant and competing
	// for leadership. Idempotent.
	StartParticipating(ctx context.Context) error

	// StopParticipating withdraws this participant's candidacy, releasing
	// leadership if held. Best-effort roster cleanup with a bounded attempt;
	// never blocks indefinitely on coordination-service unavailability.
	// Idempotent.
	StopParticipating(ctx context.Context) error

	// IsLeader reports whether this participant currently believes it holds
	// leadership.
	IsLeader() bool

	// Leader returns the current leader, or NoLeader if none.
	Leader(ctx context.Context) (Participant, error)

	// Participants returns a fresh snapshot of present candidates, leader
	// first when one exists. Empty if withdrawn or no contenders.
	Participants(ctx context.Context) ([]Participant, error)

	// Granted returns the leadership-acquired event channel.
	Granted() <-chan struct{}

	// Revoked returns the leadership-lost event channel.
	Revoked() <-chan RevokeCause
}
