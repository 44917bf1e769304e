package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ExternalCallMetrics records latency and failures for calls to the record
// store, the payment oracle, and the label carrier.
type ExternalCallMetrics struct {
	duration *prometheus.HistogramVec
	failure  *prometheus.CounterVec
}

// NewExternalCallMetrics registers the external-call metrics on the provided registerer.
func NewExternalCallMetrics(reg prometheus.Registerer) *ExternalCallMetrics {
	if reg == nil {
		return &ExternalCallMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "external_call_duration_seconds",
		Help:    "Duration of external service calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"service", "op"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "external_call_failures",
		Help: "Failed external service calls.",
	}, []string{"service", "op"})
	reg.MustRegister(duration, failure)
	return &ExternalCallMetrics{
		duration: duration,
		failure:  failure,
	}
}

// Observe records a completed call, counting it as a failure when err is non-nil.
func (m *ExternalCallMetrics) Observe(service, op string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	if m.duration != nil {
		m.duration.WithLabelValues(normalizeLabel(service), normalizeLabel(op)).Observe(elapsed.Seconds())
	}
	if err != nil && m.failure != nil {
		m.failure.WithLabelValues(normalizeLabel(service), normalizeLabel(op)).Inc()
	}
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
