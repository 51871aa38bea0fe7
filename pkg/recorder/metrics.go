package recorder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of AddActualCall, used as the "outcome" label.
const (
	OutcomeMatched   = "matched"
	OutcomeAbsorbed  = "absorbed"
	OutcomeUnmatched = "unmatched"
)

// Metrics contains Prometheus collectors for recorder activity. A nil
// *Metrics records nothing.
type Metrics struct {
	expectedCalls prometheus.Counter
	actualCalls   *prometheus.CounterVec
	failures      *prometheus.CounterVec
	resets        prometheus.Counter
}

// NewMetrics creates the recorder collectors and registers them with reg.
// Recorders sharing a Metrics value aggregate into the same series.
func NewMetrics(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		expectedCalls: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "recorder",
				Name:      "expected_calls_total",
				Help:      "Total number of expected calls registered",
			},
		),
		actualCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "recorder",
				Name:      "actual_calls_total",
				Help:      "Total number of actual calls by matching outcome",
			},
			[]string{"outcome"},
		),
		failures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "recorder",
				Name:      "operation_failures_total",
				Help:      "Total number of failed recorder operations",
			},
			[]string{"operation"},
		),
		resets: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "recorder",
				Name:      "resets_total",
				Help:      "Total number of ResetAllCalls invocations that cleared the recorder",
			},
		),
	}
}

func (m *Metrics) expected() {
	if m == nil {
		return
	}
	m.expectedCalls.Inc()
}

func (m *Metrics) actual(outcome string) {
	if m == nil {
		return
	}
	m.actualCalls.WithLabelValues(outcome).Inc()
}

func (m *Metrics) failure(operation string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(operation).Inc()
}

func (m *Metrics) reset() {
	if m == nil {
		return
	}
	m.resets.Inc()
}
