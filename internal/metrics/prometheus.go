package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arloliu/leadersvc/types"
)

// PrometheusCollector implements types.MetricsCollector backed by Prometheus.
//
// Metrics are registered lazily on first use, so constructing the collector
// never fails and unused collectors register nothing.
type PrometheusCollector struct {
	reg       prometheus.Registerer
	namespace string
	once      sync.Once

	stateTransitions *prometheus.CounterVec
	reacquireWaits   prometheus.Histogram
	acquisitions     prometheus.Counter
	losses           *prometheus.CounterVec
	participants     prometheus.Gauge
	delegateEvents   *prometheus.CounterVec
	delegateFailures *prometheus.CounterVec
}

// Compile-time assertion that PrometheusCollector implements MetricsCollector.
var _ types.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheus creates a new Prometheus-backed metrics collector.
//
// Parameters:
//   - reg: Prometheus registerer (uses prometheus.DefaultRegisterer if nil)
//   - namespace: Metrics namespace (defaults to "leadersvc" if empty)
//
// Returns:
//   - *PrometheusCollector: A MetricsCollector implementation using Prometheus
func NewPrometheus(reg prometheus.Registerer, namespace string) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "leadersvc"
	}

	return &PrometheusCollector{reg: reg, namespace: namespace}
}

func (p *PrometheusCollector) ensureRegistered() {
	p.once.Do(func() {
		p.stateTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "state_transitions_total",
			Help:      "Total leader service state transitions by from/to state.",
		}, []string{"from", "to"})

		p.reacquireWaits = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: p.namespace,
			Name:      "reacquire_wait_seconds",
			Help:      "Observed reacquire-delay waits before re-entering contention.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		})

		p.acquisitions = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "leadership_acquisitions_total",
			Help:      "Total leadership acquisitions by this participant.",
		})

		p.losses = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "leadership_losses_total",
			Help:      "Total leadership losses by cause (session_lost, relinquished, stopped).",
		}, []string{"cause"})

		p.participants = prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: p.namespace,
			Name:      "participants_current",
			Help:      "Currently observed number of election participants.",
		})

		p.delegateEvents = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "delegate_events_total",
			Help:      "Total delegate lifecycle events by state.",
		}, []string{"state"})

		p.delegateFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: p.namespace,
			Name:      "delegate_failures_total",
			Help:      "Total delegate failures by stage (startup, shutdown, self_stop).",
		}, []string{"stage"})

		collectors := []prometheus.Collector{
			p.stateTransitions,
			p.reacquireWaits,
			p.acquisitions,
			p.losses,
			p.participants,
			p.delegateEvents,
			p.delegateFailures,
		}
		for _, c := range collectors {
			// AlreadyRegisteredError is tolerated so multiple services can
			// share a registerer within one process.
			if err := p.reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					panic(err)
				}
			}
		}
	})
}

// RecordStateTransition increments the state transition counter.
func (p *PrometheusCollector) RecordStateTransition(from, to types.State) {
	p.ensureRegistered()
	p.stateTransitions.WithLabelValues(from.String(), to.String()).Inc()
}

// RecordReacquireWait observes a completed reacquire-delay wait.
func (p *PrometheusCollector) RecordReacquireWait(seconds float64) {
	p.ensureRegistered()
	p.reacquireWaits.Observe(seconds)
}

// RecordLeadershipAcquired increments the acquisition counter.
func (p *PrometheusCollector) RecordLeadershipAcquired(_ /* id */ string) {
	p.ensureRegistered()
	p.acquisitions.Inc()
}

// RecordLeadershipLost increments the loss counter for the given cause.
func (p *PrometheusCollector) RecordLeadershipLost(cause string) {
	p.ensureRegistered()
	p.losses.WithLabelValues(cause).Inc()
}

// SetParticipants sets the participant gauge.
func (p *PrometheusCollector) SetParticipants(count int) {
	p.ensureRegistered()
	p.participants.Set(float64(count))
}

// RecordDelegateEvent increments the delegate event counter.
func (p *PrometheusCollector) RecordDelegateEvent(state string) {
	p.ensureRegistered()
	p.delegateEvents.WithLabelValues(state).Inc()
}

// RecordDelegateFailure increments the delegate failure counter.
func (p *PrometheusCollector) RecordDelegateFailure(stage string) {
	p.ensureRegistered()
	p.delegateFailures.WithLabelValues(stage).Inc()
}
