package metrics

import "github.com/prometheus/client_golang/prometheus"

// Listener rejection reasons.
const (
	RejectedCapacity = "capacity"
	RejectedUpgrade  = "upgrade"
	RejectedStopped  = "stopped"
)

// WebSocketMetrics holds Prometheus metrics for listener sessions and the broadcast fan-out.
type WebSocketMetrics struct {
	ActiveListeners   prometheus.Gauge
	MessagesPublished prometheus.Counter
	MessagesDropped   prometheus.Counter
	Rejected          *prometheus.CounterVec
}

// NewWebSocketMetrics creates and registers WebSocket metrics on the given registry.
func NewWebSocketMetrics(reg prometheus.Registerer) *WebSocketMetrics {
	m := &WebSocketMetrics{
		ActiveListeners: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "active_listeners",
			Help:      "Number of open listener sessions.",
		}),
		MessagesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_published_total",
			Help:      "Total number of frames written to listeners.",
		}),
		MessagesDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "messages_dropped_total",
			Help:      "Total number of pending messages discarded because a listener lagged.",
		}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "rejected_total",
			Help:      "Total number of refused listener connections, by reason.",
		}, []string{"reason"}),
	}

	reg.MustRegister(m.ActiveListeners, m.MessagesPublished, m.MessagesDropped, m.Rejected)
	return m
}
