package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bytche_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// Signal metrics
	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bytche_ws_connections",
			Help: "Open signal connections",
		},
	)

	EventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bytche_events_received_total",
			Help: "Inbound events by type",
		},
		[]string{"type"},
	)

	ErrorsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bytche_errors_sent_total",
			Help: "Error events sent to clients, by inbound type",
		},
		[]string{"type"},
	)

	BroadcastDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bytche_broadcast_dropped_total",
			Help: "Frames not delivered because of a full send buffer",
		},
	)

	// Remote calls
	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bytche_llm_request_duration_seconds",
			Help:    "Text generation request latency",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind", "outcome"}, // kind: reply|options
	)

	StoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bytche_store_latency_seconds",
			Help:    "Room store operation latency",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1},
		},
		[]string{"op", "outcome"},
	)
)

// Outcome turns an error into a low-cardinality label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
