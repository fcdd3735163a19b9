package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"studio-ops-api/internal/middleware"
	"studio-ops-api/internal/realtime"
)

// WebSocketHandler upgrades GET /websocket and hands the connection to the
// notification server.
func (h *Handler) WebSocketHandler(c *gin.Context) {
	h.Realtime.ServeHTTP(c.Writer, c.Request)
}

// GetWebSocketStats handles GET /api/websocket/stats (admin)
func (h *Handler) GetWebSocketStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"stats":     h.Realtime.Stats(),
		"timestamp": time.Now().UTC(),
	})
}

// RealtimeVerifier resolves websocket authenticate tokens with the same
// validator the HTTP API uses. Tokens carrying an unknown role are rejected.
func RealtimeVerifier(tokens middleware.TokenValidator) realtime.Verifier {
	return realtime.VerifierFunc(func(token string) (realtime.Identity, error) {
		claims, err := tokens.Validate(token)
		if err != nil {
			return realtime.Identity{}, err
		}
		role, ok := realtime.ParseRole(claims.Role)
		if !ok {
			return realtime.Identity{}, fmt.Errorf("token role %q is not a client role", claims.Role)
		}
		return realtime.Identity{UserID: claims.UserID, Role: role}, nil
	})
}
