package realtime

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errSendFailed = errors.New("send failed")

// fakeTransport records everything written to it.
type fakeTransport struct {
	mu        sync.Mutex
	open      bool
	sent      [][]byte
	pings     int
	sendErr   error
	pingErr   error
	closeCode int
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{open: true}
}

func (f *fakeTransport) Send(message []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return ErrTransportClosed
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, message)
	return nil
}

func (f *fakeTransport) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pingErr != nil {
		return f.pingErr
	}
	f.pings++
	return nil
}

func (f *fakeTransport) Close(code int, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open {
		f.open = false
		f.closeCode = code
	}
	return nil
}

func (f *fakeTransport) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeTransport) drop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
}

func (f *fakeTransport) messages(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.sent))
	for _, raw := range f.sent {
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeTransport) pingCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pings
}

func (f *fakeTransport) closedWith() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closeCode
}

// testMetrics counts calls for assertions.
type testMetrics struct {
	mu        sync.Mutex
	active    int
	evicted   map[string]int
	delivered int
	failed    int
	events    map[string]int
}

func newTestMetrics() *testMetrics {
	return &testMetrics{evicted: map[string]int{}, events: map[string]int{}}
}

func (m *testMetrics) ConnectionsActive(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = n
}

func (m *testMetrics) ConnectionEvicted(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evicted[reason]++
}

func (m *testMetrics) MessageDelivered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delivered++
}

func (m *testMetrics) DeliveryFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failed++
}

func (m *testMetrics) EventEmitted(eventType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventType]++
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var epoch = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func addConn(t *testing.T, reg *Registry, role Role, topics ...Topic) (*Connection, *fakeTransport) {
	t.Helper()
	ft := newFakeTransport()
	c := NewConnection(ft, epoch)
	if role != RoleUnknown {
		c.Identify(role, "")
	}
	for _, tp := range topics {
		c.Subscribe(tp)
	}
	reg.Register(c)
	return c, ft
}
