package realtime

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Role is the identity class a connection has declared or proven.
type Role string

const (
	RoleUnknown Role = "unknown"
	RoleAdmin   Role = "admin"
	RoleUser    Role = "user"
	RoleGuest   Role = "guest"
)

// ParseRole maps a client-supplied role name to a Role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleUser, RoleGuest:
		return Role(s), true
	case RoleUnknown:
		return RoleUnknown, true
	}
	return RoleUnknown, false
}

// Topic is a named category of domain events a connection can subscribe to.
type Topic string

const (
	TopicBookings Topic = "bookings"
	TopicQuotes   Topic = "quotes"
	TopicOrders   Topic = "orders"
)

// Topics lists every topic a client may subscribe to.
var Topics = []Topic{TopicBookings, TopicQuotes, TopicOrders}

// ParseTopic reports whether s names a known topic.
func ParseTopic(s string) (Topic, bool) {
	for _, t := range Topics {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Singular is the record name used in event type names and payload keys.
func (t Topic) Singular() string {
	switch t {
	case TopicBookings:
		return "booking"
	case TopicQuotes:
		return "quote"
	case TopicOrders:
		return "order"
	}
	return "record"
}

// Connection is one accepted client link together with its registry metadata.
// The transport and the heartbeat task are owned by the connection for as long
// as it stays registered.
type Connection struct {
	id          string
	transport   Transport
	connectedAt time.Time

	mu            sync.Mutex
	role          Role
	topics        map[Topic]struct{}
	authenticated bool
	userID        string
	lastLiveness  time.Time
	alive         bool
	stopTask      func()
}

// NewConnection wraps an accepted transport. The id is a random v4 UUID, so ids
// are never reused while the process is alive.
func NewConnection(t Transport, now time.Time) *Connection {
	return &Connection{
		id:           uuid.NewString(),
		transport:    t,
		connectedAt:  now,
		role:         RoleUnknown,
		topics:       make(map[Topic]struct{}),
		lastLiveness: now,
		alive:        true,
	}
}

func (c *Connection) ID() string             { return c.id }
func (c *Connection) Transport() Transport   { return c.transport }
func (c *Connection) ConnectedAt() time.Time { return c.connectedAt }

func (c *Connection) Role() Role {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.role
}

func (c *Connection) UserID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

func (c *Connection) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated
}

// Identify records a self-declared role. It does not touch the authenticated flag.
func (c *Connection) Identify(role Role, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.role = role
	if userID != "" {
		c.userID = userID
	}
}

// Authenticate records a verified identity.
func (c *Connection) Authenticate(role Role, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.role = role
	c.userID = userID
	c.authenticated = true
}

func (c *Connection) Subscribe(t Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.topics[t] = struct{}{}
}

func (c *Connection) Unsubscribe(t Topic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.topics, t)
}

func (c *Connection) Subscribed(t Topic) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.topics[t]
	return ok
}

// SubscribedTopics returns the subscriptions in sorted order.
func (c *Connection) SubscribedTopics() []Topic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Topic, 0, len(c.topics))
	for t := range c.topics {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Touch records observed activity: any inbound message or heartbeat ack.
func (c *Connection) Touch(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastLiveness = now
	c.alive = true
}

func (c *Connection) LastLiveness() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastLiveness
}

// Alive reports whether the peer answered since the last probe.
func (c *Connection) Alive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.alive
}

func (c *Connection) markProbed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alive = false
}

// attachTask hands the connection ownership of a scheduled task. A previously
// attached task is cancelled.
func (c *Connection) attachTask(stop func()) {
	c.mu.Lock()
	prev := c.stopTask
	c.stopTask = stop
	c.mu.Unlock()
	if prev != nil {
		prev()
	}
}

func (c *Connection) cancelTask() {
	c.mu.Lock()
	stop := c.stopTask
	c.stopTask = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}
