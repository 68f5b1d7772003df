package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records pipeline executions. A nil *Metrics records nothing.
type Metrics struct {
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	inFlight      *prometheus.GaugeVec
	soapFallbacks prometheus.Counter
}

// NewMetrics registers the pipeline collectors with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		runsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_total",
				Help:      "Total number of pipeline executions",
			},
			[]string{"route", "outcome"},
		),
		runDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_run_duration_seconds",
				Help:      "Pipeline execution duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		inFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "pipeline_runs_in_flight",
				Help:      "Current number of executing pipelines",
			},
			[]string{"route"},
		),
		soapFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "soap_fallbacks_total",
				Help:      "SOAP responses that could not be parsed",
			},
		),
	}
}

func (m *Metrics) started(route string) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(route).Inc()
}

func (m *Metrics) finished(route, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.WithLabelValues(route).Dec()
	m.runsTotal.WithLabelValues(route, outcome).Inc()
	m.runDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) fallback() {
	if m == nil {
		return
	}
	m.soapFallbacks.Inc()
}
