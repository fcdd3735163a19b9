package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"studio-ops-api/internal/auth"
	"studio-ops-api/internal/middleware"
	"studio-ops-api/internal/models"
	"studio-ops-api/internal/realtime"
	"studio-ops-api/internal/testutil"
)

type emitted struct {
	Kind  string
	Topic realtime.Topic
	ID    string
	Old   string
	New   string
	Data  any
}

// recordingEmitter captures events instead of broadcasting them.
type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (e *recordingEmitter) record(ev emitted) realtime.Delivery {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
	return realtime.Delivery{}
}

func (e *recordingEmitter) EmitNewRecord(topic realtime.Topic, id string, summary any) realtime.Delivery {
	return e.record(emitted{Kind: "new", Topic: topic, ID: id, Data: summary})
}

func (e *recordingEmitter) EmitStatusChanged(topic realtime.Topic, id, oldStatus, newStatus string) realtime.Delivery {
	return e.record(emitted{Kind: "status", Topic: topic, ID: id, Old: oldStatus, New: newStatus})
}

func (e *recordingEmitter) EmitDeleted(topic realtime.Topic, id string, summary any) realtime.Delivery {
	return e.record(emitted{Kind: "deleted", Topic: topic, ID: id, Data: summary})
}

func (e *recordingEmitter) EmitResponseCreated(topic realtime.Topic, id string, response any) realtime.Delivery {
	return e.record(emitted{Kind: "response", Topic: topic, ID: id, Data: response})
}

func (e *recordingEmitter) all() []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]emitted(nil), e.events...)
}

type fakeRealtime struct {
	stats    realtime.Stats
	upgrades int
}

func (f *fakeRealtime) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	f.upgrades++
	w.WriteHeader(http.StatusSwitchingProtocols)
}

func (f *fakeRealtime) Stats() realtime.Stats { return f.stats }

type testEnv struct {
	handler *Handler
	events  *recordingEmitter
	tokens  *auth.TokenService
	router  *gin.Engine
}

// newTestEnv wires a Handler over an in-memory database with the admin API
// mounted the same way routes.SetupRoutes mounts it.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)

	tokens := auth.NewTokenService(auth.Config{
		Secret:   "test-secret",
		Issuer:   "studio-ops-api",
		Audience: "studio-ops-admin",
		TTL:      time.Hour,
	}, nil)
	events := &recordingEmitter{}
	h := &Handler{
		DB:       db,
		Events:   events,
		Tokens:   tokens,
		Realtime: &fakeRealtime{},
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	r := gin.New()
	api := r.Group("/api")
	api.POST("/login", h.Login)
	api.POST("/bookings", h.CreateBooking)
	api.POST("/quotes", h.CreateQuote)
	api.POST("/orders", h.CreateOrder)

	admin := api.Group("")
	admin.Use(middleware.JWTAuthMiddleware(tokens), middleware.RequireRole(models.RoleAdmin))
	admin.GET("/bookings", h.GetBookings)
	admin.GET("/bookings/:id", h.GetBookingByID)
	admin.PATCH("/bookings/:id/status", h.UpdateBookingStatus)
	admin.DELETE("/bookings/:id", h.DeleteBooking)
	admin.GET("/quotes", h.GetQuotes)
	admin.GET("/quotes/:id", h.GetQuoteByID)
	admin.PATCH("/quotes/:id/status", h.UpdateQuoteStatus)
	admin.POST("/quotes/:id/response", h.RespondToQuote)
	admin.DELETE("/quotes/:id", h.DeleteQuote)
	admin.GET("/orders", h.GetOrders)
	admin.GET("/orders/:id", h.GetOrderByID)
	admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	admin.DELETE("/orders/:id", h.DeleteOrder)
	admin.GET("/users", h.GetAllUsers)
	admin.GET("/websocket/stats", h.GetWebSocketStats)

	return &testEnv{handler: h, events: events, tokens: tokens, router: r}
}

func (e *testEnv) adminToken(t *testing.T) string {
	t.Helper()
	token, err := e.tokens.Generate("usr-admin", "admin", models.RoleAdmin)
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}
