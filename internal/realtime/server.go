package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"
)

// Identity is what a verified credential resolves to.
type Identity struct {
	UserID string
	Role   Role
}

// Verifier validates credential tokens sent in authenticate messages.
type Verifier interface {
	Verify(token string) (Identity, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(token string) (Identity, error)

func (f VerifierFunc) Verify(token string) (Identity, error) { return f(token) }

// Options configures a Server.
type Options struct {
	Origin OriginPolicy
	// RequireAuthForAdmin rejects identify messages claiming the admin role;
	// only authenticate can then produce an admin connection.
	RequireAuthForAdmin bool

	HeartbeatInterval time.Duration
	DeadAfter         time.Duration
	SweepInterval     time.Duration
	WriteWait         time.Duration

	MaxMessageBytes int64
	// MessageRate is the sustained inbound messages per second per
	// connection; zero disables the limit.
	MessageRate  float64
	MessageBurst int

	BroadcastParallelism int
}

// DefaultOptions mirrors the reference timings: 30s heartbeat, 60s dead
// threshold, 60s sweep.
func DefaultOptions() Options {
	return Options{
		Origin:               OriginPolicy{AllowEmpty: true},
		HeartbeatInterval:    30 * time.Second,
		DeadAfter:            60 * time.Second,
		SweepInterval:        60 * time.Second,
		WriteWait:            5 * time.Second,
		MaxMessageBytes:      4096,
		MessageRate:          10,
		MessageBurst:         20,
		BroadcastParallelism: 32,
	}
}

// Server owns the notification subsystem: registry, supervisor, router and
// event API, plus the websocket endpoint feeding them. One Server is built at
// startup and handed to whoever needs it.
type Server struct {
	opts       Options
	registry   *Registry
	router     *Router
	supervisor *Supervisor
	notifier   *Notifier
	verifier   Verifier
	clock      clockwork.Clock
	metrics    Metrics
	logger     *slog.Logger
	upgrader   websocket.Upgrader

	mu        sync.RWMutex
	closing   bool
	stopSweep context.CancelFunc
}

func NewServer(opts Options, verifier Verifier, clock clockwork.Clock, m Metrics, logger *slog.Logger) *Server {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	m = orNopMetrics(m)
	logger = logger.With("component", "realtime")

	reg := NewRegistry()
	reg.onChange = m.ConnectionsActive
	router := NewRouter(reg, clock, opts.BroadcastParallelism, m, logger)

	return &Server{
		opts:     opts,
		registry: reg,
		router:   router,
		supervisor: NewSupervisor(reg, clock, SupervisorConfig{
			HeartbeatInterval: opts.HeartbeatInterval,
			DeadAfter:         opts.DeadAfter,
			SweepInterval:     opts.SweepInterval,
		}, m, logger),
		notifier: NewNotifier(router, clock, m, logger),
		verifier: verifier,
		clock:    clock,
		metrics:  m,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     opts.Origin.CheckOrigin,
		},
	}
}

func (s *Server) Registry() *Registry     { return s.registry }
func (s *Server) Router() *Router         { return s.router }
func (s *Server) Supervisor() *Supervisor { return s.supervisor }
func (s *Server) Notifier() *Notifier     { return s.notifier }
func (s *Server) Stats() Stats            { return s.registry.Stats() }

// Start launches the background sweep. It stops on Shutdown or when ctx ends.
func (s *Server) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.stopSweep = cancel
	s.mu.Unlock()
	go s.supervisor.Run(ctx)
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.isClosing() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}

	// The upgrader runs the origin policy and answers 403 on rejection.
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("WebSocket upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}

	t := newWSTransport(conn, s.opts.WriteWait)
	c := NewConnection(t, s.clock.Now())
	if s.opts.MaxMessageBytes > 0 {
		conn.SetReadLimit(s.opts.MaxMessageBytes)
	}
	conn.SetPongHandler(func(string) error {
		c.Touch(s.clock.Now())
		return nil
	})

	if !s.admit(c) {
		_ = t.Close(websocket.CloseGoingAway, "server shutting down")
		return
	}
	s.logger.Info("Client connected", "connection_id", c.ID(), "remote_addr", r.RemoteAddr, "total", s.registry.Count())

	s.reply(c, ConnectionEstablished{
		ClientID:   c.ID(),
		Topics:     Topics,
		ServerTime: s.clock.Now(),
	})
	s.readLoop(c, conn, t)
}

// admit registers c unless shutdown has begun. Holding the read lock keeps
// Shutdown from draining between the check and the registration.
func (s *Server) admit(c *Connection) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closing {
		return false
	}
	s.registry.Register(c)
	s.supervisor.Watch(c)
	return true
}

func (s *Server) readLoop(c *Connection, conn *websocket.Conn, t *wsTransport) {
	defer func() {
		if s.registry.Unregister(c.ID()) {
			s.metrics.ConnectionEvicted(ReasonClientDisconnect)
			s.logger.Info("Client disconnected", "connection_id", c.ID(), "total", s.registry.Count())
		}
		t.markClosed()
	}()

	var limiter *rate.Limiter
	if s.opts.MessageRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.MessageRate), max(s.opts.MessageBurst, 1))
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Debug("WebSocket read failed", "connection_id", c.ID(), "error", err)
			}
			return
		}
		c.Touch(s.clock.Now())

		if limiter != nil && !limiter.Allow() {
			s.reply(c, ErrorMessage{Message: "rate limit exceeded"})
			continue
		}
		s.handle(c, data)
	}
}

// handle dispatches one inbound frame. Protocol errors are answered with an
// error message; the connection stays open.
func (s *Server) handle(c *Connection, data []byte) {
	msg, err := DecodeClientMessage(data)
	if err != nil {
		var unknown *UnknownTypeError
		if errors.As(err, &unknown) {
			s.reply(c, ErrorMessage{Message: fmt.Sprintf("Unknown message type: %s", unknown.Type)})
			return
		}
		s.logger.Debug("Malformed client message", "connection_id", c.ID(), "error", err)
		s.reply(c, ErrorMessage{Message: ErrMalformedMessage.Error()})
		return
	}

	switch m := msg.(type) {
	case IdentifyMessage:
		s.handleIdentify(c, m)
	case AuthenticateMessage:
		s.handleAuthenticate(c, m)
	case SubscribeMessage:
		s.handleSubscribe(c, m)
	case UnsubscribeMessage:
		s.handleUnsubscribe(c, m)
	case PingMessage:
		s.reply(c, Pong{ServerTime: s.clock.Now()})
	default:
		panic(fmt.Sprintf("realtime: unhandled client message %T", msg))
	}
}

func (s *Server) handleIdentify(c *Connection, m IdentifyMessage) {
	role, ok := ParseRole(m.ClientType)
	if !ok {
		s.reply(c, ErrorMessage{Message: fmt.Sprintf("Unknown client type: %s", m.ClientType)})
		return
	}

	// A verified identity is never overridden by a self-declared one.
	if c.Authenticated() {
		s.reply(c, IdentificationConfirmed{ClientType: c.Role(), UserID: c.UserID()})
		return
	}
	if role == RoleAdmin && s.opts.RequireAuthForAdmin {
		s.reply(c, ErrorMessage{Message: "admin role requires authentication"})
		return
	}

	c.Identify(role, m.UserID)
	s.logger.Info("Client identified", "connection_id", c.ID(), "role", role, "user_id", m.UserID)
	s.reply(c, IdentificationConfirmed{ClientType: role, UserID: c.UserID()})
}

func (s *Server) handleAuthenticate(c *Connection, m AuthenticateMessage) {
	if m.Token == "" {
		s.reply(c, AuthenticationFailed{Message: "token is required"})
		return
	}
	if s.verifier == nil {
		s.reply(c, AuthenticationFailed{Message: "authentication unavailable"})
		return
	}

	id, err := s.verifier.Verify(m.Token)
	if err != nil {
		s.logger.Warn("Authentication failed", "connection_id", c.ID(), "error", err)
		s.reply(c, AuthenticationFailed{Message: "Invalid or expired token"})
		return
	}

	c.Authenticate(id.Role, id.UserID)
	s.logger.Info("Client authenticated", "connection_id", c.ID(), "role", id.Role, "user_id", id.UserID)
	s.reply(c, AuthenticationSuccess{UserID: id.UserID, Role: id.Role})
}

func (s *Server) handleSubscribe(c *Connection, m SubscribeMessage) {
	topic, ok := ParseTopic(m.Module)
	if !ok {
		s.reply(c, SubscriptionFailed{
			Module:  m.Module,
			Message: fmt.Sprintf("Invalid module: %s", m.Module),
			Topics:  Topics,
		})
		return
	}
	c.Subscribe(topic)
	s.reply(c, SubscriptionConfirmed{Module: topic})
}

func (s *Server) handleUnsubscribe(c *Connection, m UnsubscribeMessage) {
	topic, ok := ParseTopic(m.Module)
	if !ok {
		s.reply(c, SubscriptionFailed{
			Module:  m.Module,
			Message: fmt.Sprintf("Invalid module: %s", m.Module),
			Topics:  Topics,
		})
		return
	}
	c.Unsubscribe(topic)
	s.reply(c, UnsubscriptionConfirmed{Module: topic})
}

func (s *Server) reply(c *Connection, msg ServerMessage) {
	if err := s.router.Send(c, msg); err != nil {
		s.logger.Debug("Reply failed", "connection_id", c.ID(), "error", err)
	}
}

func (s *Server) isClosing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closing
}

// Shutdown tells every client the server is going away, closes each transport
// with a normal closure, empties the registry and refuses further upgrades.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return nil
	}
	s.closing = true
	stop := s.stopSweep
	s.mu.Unlock()
	if stop != nil {
		stop()
	}

	d, err := s.router.Broadcast(ServerShutdown{Message: "Server is shutting down"}, All)
	if err != nil {
		s.logger.Error("Shutdown notice failed", "error", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, c := range s.registry.Drain() {
			_ = c.Transport().Close(websocket.CloseNormalClosure, "server shutdown")
		}
	}()

	select {
	case <-done:
		s.logger.Info("Realtime server stopped", "notified", d.Sent)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
