package realtime

import (
	"log/slog"

	"github.com/jonboulle/clockwork"
)

// Notifier is the typed API request handlers use to announce domain events.
// None of its methods block on or fail the triggering request: broadcast
// errors and panics are logged and swallowed.
type Notifier struct {
	router  *Router
	clock   clockwork.Clock
	metrics Metrics
	logger  *slog.Logger
}

func NewNotifier(router *Router, clock clockwork.Clock, m Metrics, logger *slog.Logger) *Notifier {
	return &Notifier{router: router, clock: clock, metrics: orNopMetrics(m), logger: logger}
}

// SubscribedAdmins selects admin connections subscribed to topic.
func SubscribedAdmins(topic Topic) Predicate {
	return func(c *Connection) bool {
		return c.Role() == RoleAdmin && c.Subscribed(topic)
	}
}

// EmitNewRecord announces a freshly persisted record.
func (n *Notifier) EmitNewRecord(topic Topic, id string, summary any) Delivery {
	data := recordData(topic, id)
	data["summary"] = summary
	return n.emit(KindNewRecord, topic, data)
}

// EmitStatusChanged announces a status transition of a record.
func (n *Notifier) EmitStatusChanged(topic Topic, id, oldStatus, newStatus string) Delivery {
	data := recordData(topic, id)
	data["oldStatus"] = oldStatus
	data["newStatus"] = newStatus
	return n.emit(KindStatusChanged, topic, data)
}

// EmitDeleted announces the removal of a record.
func (n *Notifier) EmitDeleted(topic Topic, id string, summary any) Delivery {
	data := recordData(topic, id)
	data["summary"] = summary
	return n.emit(KindDeleted, topic, data)
}

// EmitResponseCreated announces that a priced reply was attached to a quote.
func (n *Notifier) EmitResponseCreated(topic Topic, id string, response any) Delivery {
	data := recordData(topic, id)
	data["response"] = response
	return n.emit(KindResponseCreated, topic, data)
}

func recordData(topic Topic, id string) map[string]any {
	return map[string]any{
		"id":                     id,
		topic.Singular() + "Id": id,
	}
}

func (n *Notifier) emit(kind EventKind, topic Topic, data map[string]any) (d Delivery) {
	evt := Event{
		Type:      EventType(kind, topic),
		Topic:     topic,
		Payload:   data,
		Timestamp: n.clock.Now(),
	}

	defer func() {
		if r := recover(); r != nil {
			n.logger.Error("Event broadcast panicked", "type", evt.Type, "topic", topic, "panic", r)
			d = Delivery{}
		}
	}()

	d, err := n.router.Broadcast(evt, SubscribedAdmins(topic))
	if err != nil {
		n.logger.Error("Event broadcast failed", "type", evt.Type, "topic", topic, "error", err)
		return Delivery{}
	}
	n.metrics.EventEmitted(evt.Type)
	n.logger.Info("Event broadcast",
		"type", evt.Type,
		"topic", topic,
		"sent", d.Sent,
		"total", d.Total,
		"failed", d.Failed,
	)
	return d
}
