package realtime

import (
	"sync"
)

// Predicate selects connections for iteration or broadcast.
type Predicate func(*Connection) bool

// All matches every connection.
func All(*Connection) bool { return true }

// Registry is the single source of truth for who is connected and how to
// reach them. It performs no I/O.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection

	// onChange, when set, observes the connection count after each mutation.
	// It runs under the write lock and must not call back into the registry.
	onChange func(count int)
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Register adds c and returns its id. It never fails.
func (r *Registry) Register(c *Connection) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[c.ID()] = c
	r.notify(len(r.conns))
	return c.ID()
}

// Unregister removes the connection with the given id and cancels the task it
// owns. It is a no-op for unknown or already removed ids and reports whether
// an entry was removed.
func (r *Registry) Unregister(id string) bool {
	r.mu.Lock()
	c, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
		r.notify(len(r.conns))
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	c.cancelTask()
	return true
}

func (r *Registry) Get(id string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot returns the current entries. The slice is owned by the caller.
func (r *Registry) Snapshot() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// ForEach applies action to every connection matching pred. It iterates a
// snapshot taken before the first call, so action may register or unregister
// connections freely.
func (r *Registry) ForEach(pred Predicate, action func(*Connection)) {
	if pred == nil {
		pred = All
	}
	for _, c := range r.Snapshot() {
		if pred(c) {
			action(c)
		}
	}
}

// Drain removes every entry, cancels their tasks and returns them.
func (r *Registry) Drain() []*Connection {
	r.mu.Lock()
	out := make([]*Connection, 0, len(r.conns))
	for id, c := range r.conns {
		out = append(out, c)
		delete(r.conns, id)
	}
	r.notify(0)
	r.mu.Unlock()
	for _, c := range out {
		c.cancelTask()
	}
	return out
}

// Stats summarizes the registry for operational dashboards.
type Stats struct {
	Total         int           `json:"total"`
	Authenticated int           `json:"authenticated"`
	ByRole        map[Role]int  `json:"byRole"`
	ByTopic       map[Topic]int `json:"byTopic"`
}

func (r *Registry) Stats() Stats {
	s := Stats{
		ByRole:  make(map[Role]int),
		ByTopic: make(map[Topic]int),
	}
	for _, t := range Topics {
		s.ByTopic[t] = 0
	}
	r.ForEach(All, func(c *Connection) {
		s.Total++
		if c.Authenticated() {
			s.Authenticated++
		}
		s.ByRole[c.Role()]++
		for _, t := range c.SubscribedTopics() {
			s.ByTopic[t]++
		}
	})
	return s
}

func (r *Registry) notify(n int) {
	if r.onChange != nil {
		r.onChange(n)
	}
}
