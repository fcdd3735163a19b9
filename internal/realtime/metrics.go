package realtime

// Metrics receives realtime counters. internal/metrics provides the
// Prometheus-backed implementation.
type Metrics interface {
	ConnectionsActive(n int)
	ConnectionEvicted(reason string)
	MessageDelivered()
	DeliveryFailed()
	EventEmitted(eventType string)
}

type nopMetrics struct{}

func (nopMetrics) ConnectionsActive(int)    {}
func (nopMetrics) ConnectionEvicted(string) {}
func (nopMetrics) MessageDelivered()        {}
func (nopMetrics) DeliveryFailed()          {}
func (nopMetrics) EventEmitted(string)      {}

func orNopMetrics(m Metrics) Metrics {
	if m == nil {
		return nopMetrics{}
	}
	return m
}
