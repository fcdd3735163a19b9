package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studio-ops-api/internal/models"
	"studio-ops-api/internal/realtime"
)

func TestOrderLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.adminToken(t)

	w := env.do(t, http.MethodPost, "/api/orders", "", map[string]any{
		"customerName": "Alan Turing",
		"email":        "alan@example.com",
		"product":      "A3 print",
		"total":        49.0,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode[models.Order](t, w)
	assert.Equal(t, 1, order.Quantity, "quantity defaults to one")

	w = env.do(t, http.MethodPatch, "/api/orders/"+order.ID+"/status", token, map[string]string{"status": "shipped"})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/orders?status=shipped", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Orders []models.Order `json:"orders"`
	}](t, w)
	require.Len(t, list.Orders, 1)
	assert.Equal(t, order.ID, list.Orders[0].ID)

	w = env.do(t, http.MethodDelete, "/api/orders/"+order.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	events := env.events.all()
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, realtime.TopicOrders, ev.Topic)
		assert.Equal(t, order.ID, ev.ID)
	}
	assert.Equal(t, []string{"new", "status", "deleted"}, []string{events[0].Kind, events[1].Kind, events[2].Kind})
}
