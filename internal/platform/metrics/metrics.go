package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the report workflow.
type Metrics struct {
	// Reports created, labeled by resolved department.
	ReportsCreated *prometheus.CounterVec

	// Lifecycle transitions by change kind (asignacion, cierre, reapertura, ...).
	Transitions *prometheus.CounterVec

	// Closure review outcomes (aprobado, rechazado).
	ClosureOutcomes *prometheus.CounterVec

	// Duplicate pre-check verdicts when the check is enabled.
	DedupeVerdicts *prometheus.CounterVec

	// End-to-end handler latency by route.
	RequestLatency *prometheus.HistogramVec
}

// New creates a Metrics instance with all workflow metrics registered on
// reg. Production wiring passes prometheus.DefaultRegisterer; tests pass a
// fresh registry so suites can build the stack more than once.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ReportsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atiende_reports_created_total",
			Help: "Total citizen reports created, by owning department",
		}, []string{"dependencia"}),

		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atiende_report_transitions_total",
			Help: "Total report lifecycle transitions, by change kind",
		}, []string{"tipo_cambio"}),

		ClosureOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atiende_closure_outcomes_total",
			Help: "Closure review outcomes recorded by supervisors",
		}, []string{"outcome"}),

		DedupeVerdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "atiende_dedupe_verdicts_total",
			Help: "Duplicate pre-check verdicts when the check is enabled",
		}, []string{"verdict"}),

		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "atiende_request_duration_seconds",
			Help:    "HTTP request duration by route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"route"}),
	}
}

// IncrementReportsCreated records one created report.
func (m *Metrics) IncrementReportsCreated(dependencia string) {
	if m != nil {
		m.ReportsCreated.WithLabelValues(dependencia).Inc()
	}
}

// IncrementTransition records one lifecycle transition.
func (m *Metrics) IncrementTransition(tipoCambio string) {
	if m != nil {
		m.Transitions.WithLabelValues(tipoCambio).Inc()
	}
}

// IncrementClosureOutcome records a supervisor's review verdict.
func (m *Metrics) IncrementClosureOutcome(outcome string) {
	if m != nil {
		m.ClosureOutcomes.WithLabelValues(outcome).Inc()
	}
}

// IncrementDedupeVerdict records a duplicate pre-check verdict.
func (m *Metrics) IncrementDedupeVerdict(verdict string) {
	if m != nil {
		m.DedupeVerdicts.WithLabelValues(verdict).Inc()
	}
}

// ObserveRequestLatency records the duration of one HTTP request.
func (m *Metrics) ObserveRequestLatency(route string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(route).Observe(d.Seconds())
	}
}
