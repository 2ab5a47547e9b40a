// Package metrics provides MetricsCollector implementations.
package metrics

import "github.com/arloliu/leadersvc/types"

// NopMetrics implements a no-op metrics collector.
//
// All metrics are discarded. Useful for testing or when external metrics
// collection is used.
type NopMetrics struct{}

// Compile-time assertion that NopMetrics implements MetricsCollector.
var _ types.MetricsCollector = (*NopMetrics)(nil)

// NewNop creates a new no-op metrics collector.
//
// Returns:
//   - *NopMetrics: A new no-op metrics collector instance
func NewNop() *NopMetrics {
	return &NopMetrics{}
}

// ServiceMetrics implementation

// RecordStateTransition discards the state transition metric.
func (n *NopMetrics) RecordStateTransition(_ /* from */, _ /* to */ types.State) {
	// No-op
}

// RecordReacquireWait discards the reacquire wait metric.
func (n *NopMetrics) RecordReacquireWait(_ /* seconds */ float64) {
	// No-op
}

// ElectionMetrics implementation

// RecordLeadershipAcquired discards the leadership acquisition metric.
func (n *NopMetrics) RecordLeadershipAcquired(_ /* id */ string) {
	// No-op
}

// RecordLeadershipLost discards the leadership loss metric.
func (n *NopMetrics) RecordLeadershipLost(_ /* cause */ string) {
	// No-op
}

// SetParticipants discards the participant count metric.
func (n *NopMetrics) SetParticipants(_ /* count */ int) {
	// No-op
}

// DelegateMetrics implementation

// RecordDelegateEvent discards the delegate event metric.
func (n *NopMetrics) RecordDelegateEvent(_ /* state */ string) {
	// No-op
}

// RecordDelegateFailure discards the delegate failure metric.
func (n *NopMetrics) RecordDelegateFailure(_ /* stage */ string) {
	// No-op
}
