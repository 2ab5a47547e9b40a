package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/arloliu/leadersvc/types"
)

func TestNopMetrics_ImplementsCollector(t *testing.T) {
	n := NewNop()

	require.NotPanics(t, func() {
		n.RecordStateTransition(types.StateIdle, types.StateContending)
		n.RecordReacquireWait(1.5)
		n.RecordLeadershipAcquired("host-1:8080")
		n.RecordLeadershipLost("session_lost")
		n.SetParticipants(3)
		n.RecordDelegateEvent("Running")
		n.RecordDelegateFailure("startup")
	})
}

func TestPrometheusCollector_RegistersAndRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	p := NewPrometheus(reg, "testns")

	p.RecordStateTransition(types.StateContending, types.StateLeading)
	p.RecordReacquireWait(0.25)
	p.RecordLeadershipAcquired("host-1:8080")
	p.RecordLeadershipLost(types.CauseRelinquished.String())
	p.SetParticipants(5)
	p.RecordDelegateEvent(types.DelegateRunning.String())
	p.RecordDelegateFailure("shutdown")

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}

	require.True(t, names["testns_state_transitions_total"])
	require.True(t, names["testns_reacquire_wait_seconds"])
	require.True(t, names["testns_leadership_acquisitions_total"])
	require.True(t, names["testns_leadership_losses_total"])
	require.True(t, names["testns_participants_current"])
	require.True(t, names["testns_delegate_events_total"])
	require.True(t, names["testns_delegate_failures_total"])
}

func TestPrometheusCollector_SharedRegisterer(t *testing.T) {
	reg := prometheus.NewRegistry()

	// Two collectors on one registerer must not panic on duplicate metrics.
	a := NewPrometheus(reg, "shared")
	b := NewPrometheus(reg, "shared")

	require.NotPanics(t, func() {
		a.RecordLeadershipAcquired("a")
		b.RecordLeadershipAcquired("b")
	})
}
