package hub

import "github.com/prometheus/client_golang/prometheus"

var (
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "chathub_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	eventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chathub_events_total",
			Help: "Total number of inbound events dispatched by the hub.",
		},
		[]string{"event"},
	)
	droppedEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chathub_dropped_events_total",
			Help: "Total number of events dropped by the hub, by reason.",
		},
		[]string{"event", "reason"},
	)
	slowConsumerDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chathub_slow_consumer_drops_total",
			Help: "Total number of outbound events dropped on full session buffers.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		wsActiveConnections,
		eventsTotal,
		droppedEventsTotal,
		slowConsumerDropsTotal,
	)
}

// drop reasons for droppedEventsTotal
const (
	dropValidation   = "validation"
	dropUnauthorized = "unauthorized"
	dropPersistence  = "persistence"
	dropFanout       = "fanout"
)
