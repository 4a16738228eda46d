package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics for the session server.
type Metrics struct {
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SessionsServed   prometheus.Counter
	SessionsCreated  prometheus.Counter
	SessionsUpdated  prometheus.Counter
	RecordingsServed prometheus.Counter
	StoreSessions    prometheus.Gauge
}

// NewMetrics creates and registers all server metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "vox_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vox_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),

		SessionsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vox_sessions_served_total",
			Help: "Total number of full sessions served",
		}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "vox_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		SessionsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Name: "vox_sessions_updated_total",
			Help: "Total number of session patch operations",
		}),
		RecordingsServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "vox_recordings_served_total",
			Help: "Total number of recording downloads served",
		}),
		StoreSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vox_store_sessions",
			Help: "Current number of sessions in the local store",
		}),
	}
}

// RecordRequest records one handled HTTP request.
func (m *Metrics) RecordRequest(method, route, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, route, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(durationSeconds)
}
