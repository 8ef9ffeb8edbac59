package apiclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK           = "ok"
	outcomeAPIError     = "api_error"
	outcomeNotFound     = "not_found"
	outcomeNetworkError = "network_error"
	outcomeMalformed    = "malformed"
)

// Metrics holds request instrumentation for a Client.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates the client metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kennel",
			Subsystem: "api_client",
			Name:      "requests_total",
			Help:      "Total number of kennel API requests by method and outcome",
		}, []string{"method", "outcome"}),

		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kennel",
			Subsystem: "api_client",
			Name:      "request_duration_seconds",
			Help:      "Kennel API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	}
	return m
}

func (m *Metrics) observe(method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, outcome).Inc()
	m.RequestDuration.WithLabelValues(method).Observe(d.Seconds())
}

func outcomeFor(r *Response) string {
	switch {
	case r.OK:
		return outcomeOK
	case r.NotFound():
		return outcomeNotFound
	default:
		return outcomeAPIError
	}
}
