package realtime

import (
	"log/slog"
	"net/http"
	"path"
	"strings"
)

// OriginPolicy decides whether an upgrade request may proceed. It is evaluated
// once, before any Connection exists, and sees only request metadata.
type OriginPolicy struct {
	// Permissive accepts every request (development mode).
	Permissive bool
	// AllowEmpty accepts requests without an Origin header, i.e. non-browser clients.
	AllowEmpty bool
	// Allowed holds exact origins and glob patterns such as https://*.example.com.
	Allowed []string
}

// CheckOrigin has the signature websocket.Upgrader expects.
func (p OriginPolicy) CheckOrigin(r *http.Request) bool {
	if p.Permissive {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		if p.AllowEmpty {
			return true
		}
		slog.Warn("WebSocket upgrade without origin rejected", "remote_addr", r.RemoteAddr)
		return false
	}

	if p.allows(origin) {
		return true
	}

	slog.Warn("WebSocket origin rejected", "origin", origin, "remote_addr", r.RemoteAddr)
	return false
}

func (p OriginPolicy) allows(origin string) bool {
	origin = strings.TrimSuffix(origin, "/")
	for _, rule := range p.Allowed {
		rule = strings.TrimSuffix(strings.TrimSpace(rule), "/")
		if rule == "" {
			continue
		}
		if rule == origin {
			return true
		}
		if strings.ContainsAny(rule, "*?[") {
			if ok, err := path.Match(rule, origin); err == nil && ok {
				return true
			}
		}
	}
	return false
}
