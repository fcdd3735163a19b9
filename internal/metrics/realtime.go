package metrics

import "github.com/prometheus/client_golang/prometheus"

// RealtimeMetrics records notification server activity. It satisfies
// realtime.Metrics.
type RealtimeMetrics struct {
	ActiveConnections prometheus.Gauge
	Evictions         *prometheus.CounterVec
	MessagesSent      prometheus.Counter
	DeliveryFailures  prometheus.Counter
	EventsEmitted     *prometheus.CounterVec
}

// NewRealtimeMetrics creates and registers realtime metrics on reg.
func NewRealtimeMetrics(reg prometheus.Registerer) *RealtimeMetrics {
	m := &RealtimeMetrics{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "active_connections",
			Help:      "Number of registered WebSocket connections.",
		}),
		Evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "evictions_total",
			Help:      "Connections removed from the registry, by reason.",
		}, []string{"reason"}),
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "messages_sent_total",
			Help:      "Broadcast messages delivered to a connection.",
		}),
		DeliveryFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "delivery_failures_total",
			Help:      "Broadcast messages that could not be delivered.",
		}),
		EventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "events_emitted_total",
			Help:      "Domain events emitted, by event type.",
		}, []string{"type"}),
	}

	reg.MustRegister(m.ActiveConnections, m.Evictions, m.MessagesSent, m.DeliveryFailures, m.EventsEmitted)
	return m
}

func (m *RealtimeMetrics) ConnectionsActive(n int)         { m.ActiveConnections.Set(float64(n)) }
func (m *RealtimeMetrics) ConnectionEvicted(reason string) { m.Evictions.WithLabelValues(reason).Inc() }
func (m *RealtimeMetrics) MessageDelivered()               { m.MessagesSent.Inc() }
func (m *RealtimeMetrics) DeliveryFailed()                 { m.DeliveryFailures.Inc() }
func (m *RealtimeMetrics) EventEmitted(eventType string)   { m.EventsEmitted.WithLabelValues(eventType).Inc() }
