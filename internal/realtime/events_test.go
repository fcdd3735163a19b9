package realtime

import (
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNotifier() (*Notifier, *Registry, *testMetrics) {
	reg := NewRegistry()
	m := newTestMetrics()
	clock := clockwork.NewFakeClockAt(epoch)
	router := NewRouter(reg, clock, 4, m, discardLogger())
	return NewNotifier(router, clock, m, discardLogger()), reg, m
}

func TestNotifier_EmitNewRecordTargetsSubscribedAdmins(t *testing.T) {
	n, reg, m := newTestNotifier()
	_, subscribed := addConn(t, reg, RoleAdmin, TopicBookings)
	_, otherTopic := addConn(t, reg, RoleAdmin, TopicQuotes)
	_, notAdmin := addConn(t, reg, RoleUser, TopicBookings)

	d := n.EmitNewRecord(TopicBookings, "BK1", map[string]any{"customer": "Ada"})
	assert.Equal(t, Delivery{Sent: 1, Total: 1}, d)

	got := subscribed.messages(t)
	require.Len(t, got, 1)
	assert.Equal(t, "new_booking", got[0]["type"])
	assert.Equal(t, "bookings", got[0]["module"])
	data := got[0]["data"].(map[string]any)
	assert.Equal(t, "BK1", data["bookingId"])
	assert.Equal(t, "BK1", data["id"])
	assert.Equal(t, "Ada", data["summary"].(map[string]any)["customer"])

	assert.Empty(t, otherTopic.messages(t))
	assert.Empty(t, notAdmin.messages(t))
	assert.Equal(t, 1, m.events["new_booking"])
}

func TestNotifier_UnsubscribeStopsDelivery(t *testing.T) {
	n, reg, _ := newTestNotifier()
	_, staysT := addConn(t, reg, RoleAdmin, TopicQuotes, TopicOrders)
	leaves, leavesT := addConn(t, reg, RoleAdmin, TopicQuotes, TopicOrders)

	leaves.Unsubscribe(TopicQuotes)

	d := n.EmitStatusChanged(TopicQuotes, "Q7", "pending", "accepted")
	assert.Equal(t, Delivery{Sent: 1, Total: 1}, d)

	got := staysT.messages(t)
	require.Len(t, got, 1)
	assert.Equal(t, "quote_status_update", got[0]["type"])
	data := got[0]["data"].(map[string]any)
	assert.Equal(t, "Q7", data["quoteId"])
	assert.Equal(t, "pending", data["oldStatus"])
	assert.Equal(t, "accepted", data["newStatus"])
	assert.Empty(t, leavesT.messages(t))

	// The other subscription is untouched.
	n.EmitDeleted(TopicOrders, "O1", "order O1")
	assert.Len(t, leavesT.messages(t), 1)
	assert.Equal(t, "order_deleted", leavesT.messages(t)[0]["type"])
}

func TestNotifier_ResponseCreated(t *testing.T) {
	n, reg, _ := newTestNotifier()
	_, ft := addConn(t, reg, RoleAdmin, TopicQuotes)

	n.EmitResponseCreated(TopicQuotes, "Q1", map[string]any{"price": 120.5})

	got := ft.messages(t)
	require.Len(t, got, 1)
	assert.Equal(t, "response_created", got[0]["type"])
	assert.Equal(t, 120.5, got[0]["data"].(map[string]any)["response"].(map[string]any)["price"])
}

func TestNotifier_NeverFailsTheCaller(t *testing.T) {
	n, reg, _ := newTestNotifier()
	c, ft := addConn(t, reg, RoleAdmin, TopicBookings)
	ft.sendErr = errSendFailed

	var d Delivery
	require.NotPanics(t, func() {
		d = n.EmitNewRecord(TopicBookings, "BK2", nil)
	})
	assert.Equal(t, Delivery{Sent: 0, Total: 1, Failed: 1}, d)
	_, present := reg.Get(c.ID())
	assert.False(t, present)

	// An unencodable payload is logged and reported as an empty delivery.
	assert.NotPanics(t, func() {
		d = n.EmitNewRecord(TopicBookings, "BK3", make(chan int))
	})
	assert.Equal(t, Delivery{}, d)
}
