package realtime

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"
)

// Delivery reports the outcome of one broadcast.
type Delivery struct {
	Sent   int `json:"sent"`
	Total  int `json:"total"`
	Failed int `json:"failed"`
}

// Router delivers one message to many connections and isolates failures per
// recipient. A failed send is proof of death: the recipient is unregistered.
type Router struct {
	registry    *Registry
	clock       clockwork.Clock
	parallelism int
	metrics     Metrics
	logger      *slog.Logger
}

func NewRouter(reg *Registry, clock clockwork.Clock, parallelism int, m Metrics, logger *slog.Logger) *Router {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Router{
		registry:    reg,
		clock:       clock,
		parallelism: parallelism,
		metrics:     orNopMetrics(m),
		logger:      logger,
	}
}

// Broadcast sends msg to every registered connection matching match (all
// connections when match is nil). Individual send failures are counted, never
// returned; only a message that cannot be encoded yields an error. Delivery is
// at most once per connection and unordered across connections.
func (r *Router) Broadcast(msg ServerMessage, match Predicate) (Delivery, error) {
	data, err := Encode(msg, r.clock.Now())
	if err != nil {
		return Delivery{}, fmt.Errorf("encode broadcast: %w", err)
	}

	var targets []*Connection
	r.registry.ForEach(match, func(c *Connection) {
		targets = append(targets, c)
	})

	var (
		mu     sync.Mutex
		failed []*Connection
		sent   int
	)
	var g errgroup.Group
	g.SetLimit(r.parallelism)
	for _, c := range targets {
		c := c
		g.Go(func() error {
			err := deliver(c, data)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed = append(failed, c)
				r.logger.Debug("Broadcast delivery failed", "connection_id", c.ID(), "error", err)
				return nil
			}
			sent++
			r.metrics.MessageDelivered()
			return nil
		})
	}
	_ = g.Wait()

	for _, c := range failed {
		r.drop(c)
	}

	return Delivery{Sent: sent, Total: len(targets), Failed: len(failed)}, nil
}

// BroadcastToRole sends msg to every connection with the given role.
func (r *Router) BroadcastToRole(role Role, msg ServerMessage) (Delivery, error) {
	return r.Broadcast(msg, func(c *Connection) bool { return c.Role() == role })
}

// Send delivers msg to a single connection. Unlike Broadcast it leaves the
// registry alone; the caller owns the connection's lifecycle.
func (r *Router) Send(c *Connection, msg ServerMessage) error {
	data, err := Encode(msg, r.clock.Now())
	if err != nil {
		return fmt.Errorf("encode %T: %w", msg, err)
	}
	if err := deliver(c, data); err != nil {
		r.metrics.DeliveryFailed()
		return err
	}
	r.metrics.MessageDelivered()
	return nil
}

func deliver(c *Connection, data []byte) error {
	t := c.Transport()
	if !t.IsOpen() {
		return ErrTransportClosed
	}
	return t.Send(data)
}

func (r *Router) drop(c *Connection) {
	r.metrics.DeliveryFailed()
	if r.registry.Unregister(c.ID()) {
		r.metrics.ConnectionEvicted(ReasonDeliveryFailed)
		r.logger.Info("Connection removed", "connection_id", c.ID(), "reason", ReasonDeliveryFailed)
	}
	_ = c.Transport().Close(websocket.CloseGoingAway, "delivery failed")
}
