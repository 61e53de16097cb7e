package duotext

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors an Annotator reports to.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	fields           *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	providerDuration *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// Pass prometheus.NewRegistry() in tests to keep registrations isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		fields: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duotext_fields_total",
				Help: "Fields processed by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		providerRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duotext_provider_requests_total",
				Help: "Batch translation requests sent to the provider",
			},
			[]string{"status"},
		),
		providerDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "duotext_provider_request_duration_seconds",
				Help:    "Duration of provider batch requests in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.0, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"status"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "duotext_cache_lookups_total",
				Help: "Translation cache lookups by result",
			},
			[]string{"result"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.fields, m.providerRequests, m.providerDuration, m.cacheLookups)
	}
	return m
}

func (m *Metrics) recordField(action Action, outcome string) {
	if m == nil {
		return
	}
	m.fields.WithLabelValues(string(action), outcome).Inc()
}

func (m *Metrics) recordProvider(err error, start time.Time) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.providerRequests.WithLabelValues(status).Inc()
	m.providerDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())
}

func (m *Metrics) recordCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}
