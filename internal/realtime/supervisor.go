package realtime

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
)

// Eviction reasons, used in logs and metrics.
const (
	ReasonTransportClosed  = "transport_closed"
	ReasonLivenessTimeout  = "liveness_timeout"
	ReasonPingFailed       = "ping_failed"
	ReasonDeliveryFailed   = "delivery_failed"
	ReasonSweep            = "sweep"
	ReasonClientDisconnect = "client_disconnect"
)

// Supervisor detects and reaps dead connections. Transports can fail silently
// (a phone loses network), so it does not rely on close events alone.
type Supervisor struct {
	registry      *Registry
	clock         clockwork.Clock
	interval      time.Duration
	deadAfter     time.Duration
	sweepInterval time.Duration
	metrics       Metrics
	logger        *slog.Logger
}

type SupervisorConfig struct {
	HeartbeatInterval time.Duration
	DeadAfter         time.Duration
	SweepInterval     time.Duration
}

func NewSupervisor(reg *Registry, clock clockwork.Clock, cfg SupervisorConfig, m Metrics, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		registry:      reg,
		clock:         clock,
		interval:      cfg.HeartbeatInterval,
		deadAfter:     cfg.DeadAfter,
		sweepInterval: cfg.SweepInterval,
		metrics:       orNopMetrics(m),
		logger:        logger,
	}
}

// Watch starts the heartbeat task for c. The task is owned by the connection
// and stops when the connection is unregistered.
func (s *Supervisor) Watch(c *Connection) {
	ctx, cancel := context.WithCancel(context.Background())
	c.attachTask(cancel)

	ticker := s.clock.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				if !s.Check(c) {
					return
				}
			}
		}
	}()
}

// Check runs one heartbeat round for c and reports whether it is still live.
func (s *Supervisor) Check(c *Connection) bool {
	t := c.Transport()
	if !t.IsOpen() {
		s.evict(c, ReasonTransportClosed)
		return false
	}

	if idle := s.clock.Since(c.LastLiveness()); idle > s.deadAfter {
		s.logger.Info("Connection presumed dead", "connection_id", c.ID(), "idle", idle)
		_ = t.Close(websocket.CloseGoingAway, "heartbeat timeout")
		s.evict(c, ReasonLivenessTimeout)
		return false
	}

	c.markProbed()
	if err := t.Ping(); err != nil {
		s.logger.Warn("Heartbeat probe failed", "connection_id", c.ID(), "error", err)
		_ = t.Close(websocket.CloseAbnormalClosure, "ping failed")
		s.evict(c, ReasonPingFailed)
		return false
	}
	return true
}

// Run performs the low-frequency safety sweep until ctx is done.
func (s *Supervisor) Run(ctx context.Context) {
	ticker := s.clock.NewTicker(s.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if n := s.Sweep(); n > 0 {
				s.logger.Info("Sweep removed closed connections", "count", n)
			}
		}
	}
}

// Sweep unregisters every entry whose transport is no longer open.
func (s *Supervisor) Sweep() int {
	removed := 0
	s.registry.ForEach(func(c *Connection) bool {
		return !c.Transport().IsOpen()
	}, func(c *Connection) {
		if s.evict(c, ReasonSweep) {
			removed++
		}
	})
	return removed
}

func (s *Supervisor) evict(c *Connection, reason string) bool {
	if !s.registry.Unregister(c.ID()) {
		return false
	}
	s.metrics.ConnectionEvicted(reason)
	s.logger.Info("Connection removed", "connection_id", c.ID(), "reason", reason)
	return true
}
