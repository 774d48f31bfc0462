package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peoplesync_ws_events_total",
			Help: "Total number of live-channel events by type.",
		},
		[]string{"event"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "peoplesync_ws_active_connections",
			Help: "Number of active live-channel connections.",
		},
	)
	unreadIncrementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peoplesync_unread_increments_total",
			Help: "Total number of unread-counter increments by room kind.",
		},
		[]string{"kind"},
	)
	dedupDroppedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "peoplesync_dedup_dropped_total",
			Help: "Total number of duplicate deliveries suppressed by the seen index.",
		},
	)
	malformedEventsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "peoplesync_malformed_events_total",
			Help: "Total number of live events dropped for missing a room or sender.",
		},
	)
	apiRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peoplesync_api_requests_total",
			Help: "Total number of REST requests issued by the client.",
		},
		[]string{"operation", "status"},
	)
	apiRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "peoplesync_api_request_duration_seconds",
			Help:    "REST request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

func init() {
	prometheus.MustRegister(
		wsEventsTotal,
		wsActiveConnections,
		unreadIncrementsTotal,
		dedupDroppedTotal,
		malformedEventsTotal,
		apiRequestsTotal,
		apiRequestDuration,
	)
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncUnread(kind string) {
	unreadIncrementsTotal.WithLabelValues(kind).Inc()
}

func IncDedupDrop() {
	dedupDroppedTotal.Inc()
}

func IncMalformedEvent() {
	malformedEventsTotal.Inc()
}

func ObserveAPIRequest(operation string, status int, started time.Time) {
	apiRequestsTotal.WithLabelValues(operation, strconv.Itoa(status)).Inc()
	apiRequestDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
