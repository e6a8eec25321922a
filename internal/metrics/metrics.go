// Package metrics defines the Prometheus instrumentation this proxy
// exposes, built with github.com/prometheus/client_golang exactly as
// the teacher's internal/metrics package does, scoped down to the
// counters and histograms a reverse proxy's own components actually
// produce.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts every request a Dispatcher resolved, labeled
	// by the server it belongs to, the action taken, and the status
	// code returned to the client.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xnav_requests_total",
			Help: "Total number of requests dispatched",
		},
		[]string{"server", "action", "status"},
	)

	// RequestDuration observes how long Dispatch took end to end.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "xnav_request_duration_seconds",
			Help:    "Duration of a dispatched request in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"server", "action"},
	)

	// ActiveConnections tracks in-flight connections per server, rising
	// on accept and falling when the connection's goroutine exits.
	ActiveConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "xnav_active_connections",
			Help: "Current number of connections being served",
		},
		[]string{"server"},
	)

	// BackendErrorsTotal counts relay failures (writing the request or
	// reading the response) against a forwarding backend. A failed dial
	// is answered with a local 502 and is not counted here.
	BackendErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xnav_backend_errors_total",
			Help: "Total number of forward failures by backend address",
		},
		[]string{"server", "backend"},
	)

	// UpgradesTotal counts negotiated protocol switches handed off to a
	// tunnel.
	UpgradesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xnav_upgrades_total",
			Help: "Total number of negotiated protocol upgrades",
		},
		[]string{"server"},
	)
)

// RecordRequest records one dispatched request's outcome.
func RecordRequest(server, action, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(server, action, status).Inc()
	RequestDuration.WithLabelValues(server, action).Observe(duration.Seconds())
}

// RecordBackendError records a forward failure against backend.
func RecordBackendError(server, backend string) {
	BackendErrorsTotal.WithLabelValues(server, backend).Inc()
}

// RecordUpgrade records a negotiated protocol switch.
func RecordUpgrade(server string) {
	UpgradesTotal.WithLabelValues(server).Inc()
}
