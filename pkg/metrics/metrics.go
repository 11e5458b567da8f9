// Package metrics provides Prometheus metrics instrumentation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestDuration tracks HTTP request duration.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	// RequestsTotal tracks total HTTP requests.
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// MessagesTotal tracks messages recorded, by direction.
	MessagesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "desk_messages_total",
			Help: "Total messages recorded",
		},
		[]string{"direction"},
	)

	// ConversationsCreated tracks conversations opened by inbound contact.
	ConversationsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "desk_conversations_created_total",
			Help: "Total conversations created",
		},
	)

	// EventsBroadcast tracks lifecycle events fanned out, by type.
	EventsBroadcast = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "desk_events_broadcast_total",
			Help: "Total lifecycle events broadcast to observers",
		},
		[]string{"type"},
	)

	// BroadcastFailures tracks per-observer delivery failures.
	BroadcastFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "desk_broadcast_failures_total",
			Help: "Observer deliveries that failed and were dropped",
		},
	)

	// WSConnectionsActive tracks live WebSocket observers.
	WSConnectionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "desk_ws_connections_active",
			Help: "Number of active WebSocket connections",
		},
	)
)

// RecordRequest records metrics for an HTTP request.
func RecordRequest(method, path, status string, duration float64) {
	RequestDuration.WithLabelValues(method, path, status).Observe(duration)
	RequestsTotal.WithLabelValues(method, path, status).Inc()
}
