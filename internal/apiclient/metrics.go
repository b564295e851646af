package apiclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the client's Prometheus collectors.
type Metrics struct {
	duration *prometheus.HistogramVec
}

// NewMetrics creates the client collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ticketdesk",
			Subsystem: "api",
			Name:      "request_duration_seconds",
			Help:      "Duration of ticketing API requests by method and status class.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
	if reg != nil {
		reg.MustRegister(m.duration)
	}
	return m
}

func (m *Metrics) observe(method, status string, d time.Duration) {
	m.duration.WithLabelValues(method, status).Observe(d.Seconds())
}
