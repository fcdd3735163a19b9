package realtime

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// ErrTransportClosed is returned when writing to a transport that is no longer open.
var ErrTransportClosed = errors.New("transport closed")

// Transport is the message-oriented link a Connection owns.
type Transport interface {
	Send(message []byte) error
	// Ping sends a transport-level heartbeat probe.
	Ping() error
	Close(code int, reason string) error
	IsOpen() bool
}

// wsTransport implements Transport on top of a gorilla websocket connection.
// gorilla allows one concurrent writer, so data frames are serialized by writeMu.
// WriteControl is safe to call concurrently with the other methods.
type wsTransport struct {
	conn      *websocket.Conn
	writeWait time.Duration
	writeMu   sync.Mutex
	open      atomic.Bool
}

func newWSTransport(conn *websocket.Conn, writeWait time.Duration) *wsTransport {
	t := &wsTransport{conn: conn, writeWait: writeWait}
	t.open.Store(true)
	return t
}

func (t *wsTransport) Send(message []byte) error {
	if !t.open.Load() {
		return ErrTransportClosed
	}
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = t.conn.SetWriteDeadline(time.Now().Add(t.writeWait))
	if err := t.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		t.markClosed()
		return err
	}
	return nil
}

func (t *wsTransport) Ping() error {
	if !t.open.Load() {
		return ErrTransportClosed
	}
	if err := t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(t.writeWait)); err != nil {
		t.markClosed()
		return err
	}
	return nil
}

// Close sends a close frame with code and reason, then closes the socket.
// Only the first call has any effect.
func (t *wsTransport) Close(code int, reason string) error {
	if !t.open.CompareAndSwap(true, false) {
		return nil
	}
	msg := websocket.FormatCloseMessage(code, reason)
	_ = t.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(t.writeWait))
	return t.conn.Close()
}

func (t *wsTransport) IsOpen() bool { return t.open.Load() }

// markClosed flags the transport as dead without a close handshake and
// releases the socket.
func (t *wsTransport) markClosed() {
	if t.open.CompareAndSwap(true, false) {
		_ = t.conn.Close()
	}
}
