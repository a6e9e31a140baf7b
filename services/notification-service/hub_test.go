package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"grievance-portal/pkg/events"
	"grievance-portal/pkg/middleware"
	"grievance-portal/pkg/security"
	"grievance-portal/services/portal-service/repository/memory"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func runningHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(prometheus.NewRegistry())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func receive(t *testing.T, s *Subscriber) Push {
	t.Helper()
	select {
	case p, ok := <-s.Send:
		require.True(t, ok, "subscriber closed")
		return p
	case <-time.After(2 * time.Second):
		t.Fatal("no push received")
		return Push{}
	}
}

func assertSilent(t *testing.T, s *Subscriber) {
	t.Helper()
	select {
	case p := <-s.Send:
		t.Fatalf("unexpected push %+v", p)
	case <-time.After(50 * time.Millisecond):
	}
}

func statusUpdate(userIDs ...string) events.Notification {
	return events.Notification{
		ID:          "n-1",
		Type:        events.TypeStatusUpdated,
		GrievanceID: "g-1",
		Title:       "Pothole on MG Road",
		Status:      "In Progress",
		Subject:     "Grievance Status Updated: Pothole on MG Road",
		HTML:        "<p>secret body</p>",
		Recipients:  []string{"citizen@example.com"},
		UserIDs:     userIDs,
	}
}

func TestHubDeliversOnlyToAddressedUsers(t *testing.T) {
	hub := runningHub(t)
	citizen := NewSubscriber("citizen-1")
	citizenTab := NewSubscriber("citizen-1")
	other := NewSubscriber("citizen-2")
	for _, s := range []*Subscriber{citizen, citizenTab, other} {
		require.True(t, hub.Register(s))
	}
	assert.Equal(t, 2, hub.Connected("citizen-1"))
	assert.Equal(t, 3, hub.Total())

	require.True(t, hub.Publish(statusUpdate("citizen-1")))

	for _, s := range []*Subscriber{citizen, citizenTab} {
		p := receive(t, s)
		assert.Equal(t, events.TypeStatusUpdated, p.Type)
		assert.Equal(t, "g-1", p.GrievanceID)
		assert.Equal(t, "In Progress", p.Status)
		assert.Equal(t, "Grievance Status Updated: Pothole on MG Road", p.Message)
	}
	assertSilent(t, other)
}

func TestHubUnregisterClosesSubscriber(t *testing.T) {
	hub := runningHub(t)
	s := NewSubscriber("citizen-1")
	require.True(t, hub.Register(s))

	hub.Unregister(s)
	_, ok := <-s.Send
	assert.False(t, ok)
	assert.Zero(t, hub.Connected("citizen-1"))

	// a second unregister is a no-op
	hub.Unregister(s)
	assert.Zero(t, hub.Total())
}

func TestHubStopsCleanly(t *testing.T) {
	hub := NewHub(prometheus.NewRegistry())
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	s := NewSubscriber("citizen-1")
	require.True(t, hub.Register(s))
	cancel()
	<-stopped

	_, ok := <-s.Send
	assert.False(t, ok)
	assert.False(t, hub.Register(NewSubscriber("citizen-2")))
	assert.False(t, hub.Publish(statusUpdate("citizen-1")))
}

type ackRecorder struct {
	acked, nacked, rejected int
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.acked++
	return nil
}

func (a *ackRecorder) Nack(uint64, bool, bool) error {
	a.nacked++
	return nil
}

func (a *ackRecorder) Reject(uint64, bool) error {
	a.rejected++
	return nil
}

func TestHandleDelivery(t *testing.T) {
	hub := runningHub(t)
	s := NewSubscriber("citizen-1")
	require.True(t, hub.Register(s))

	body, err := json.Marshal(statusUpdate("citizen-1"))
	require.NoError(t, err)
	ack := &ackRecorder{}
	handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: body}, hub)
	assert.Equal(t, 1, ack.acked)
	assert.Equal(t, "g-1", receive(t, s).GrievanceID)

	mailOnly, err := json.Marshal(statusUpdate())
	require.NoError(t, err)
	ack = &ackRecorder{}
	handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: mailOnly}, hub)
	assert.Equal(t, 1, ack.acked)
	assertSilent(t, s)

	ack = &ackRecorder{}
	handleDelivery(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("nope")}, hub)
	assert.Equal(t, 1, ack.rejected)
}

type wsServer struct {
	hub      *Hub
	tokens   *security.TokenManager
	denylist *memory.Denylist
	url      string
}

func newWSServer(t *testing.T) *wsServer {
	t.Helper()
	hub := runningHub(t)
	tokens := security.NewTokenManager("test-secret", time.Hour)
	denylist := memory.NewDenylist()
	authn := middleware.NewAuthenticator(tokens, denylist, nil)

	srv := httptest.NewServer(newRouter(hub, authn, middleware.NewMetrics("notification-test"), ""))
	t.Cleanup(srv.Close)
	return &wsServer{
		hub:      hub,
		tokens:   tokens,
		denylist: denylist,
		url:      "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws",
	}
}

func TestWebSocketSubscription(t *testing.T) {
	s := newWSServer(t)
	token, _, err := s.tokens.Issue("citizen-1", "citizen@example.com", "Citizen")
	require.NoError(t, err)

	conn, _, err := websocket.DefaultDialer.Dial(s.url+"?token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var hello Push
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello.Type)

	require.Eventually(t, func() bool { return s.hub.Connected("citizen-1") == 1 }, time.Second, 10*time.Millisecond)
	require.True(t, s.hub.Publish(statusUpdate("citizen-1")))

	var raw map[string]interface{}
	require.NoError(t, conn.ReadJSON(&raw))
	assert.Equal(t, events.TypeStatusUpdated, raw["type"])
	assert.Equal(t, "g-1", raw["grievance_id"])
	assert.NotContains(t, raw, "html")
	assert.NotContains(t, raw, "recipients")

	conn.Close()
	require.Eventually(t, func() bool { return s.hub.Connected("citizen-1") == 0 }, time.Second, 10*time.Millisecond)
}

func TestWebSocketRejectsBadTokens(t *testing.T) {
	s := newWSServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(s.url, nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(s.url+"?token=garbage", nil)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, claims, err := s.tokens.Issue("citizen-1", "citizen@example.com", "Citizen")
	require.NoError(t, err)
	require.NoError(t, s.denylist.Revoke(context.Background(), claims.ID, time.Now().Add(time.Hour)))

	header := http.Header{"Authorization": []string{"Bearer " + token}}
	_, resp, err = websocket.DefaultDialer.Dial(s.url, header)
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthReportsConnections(t *testing.T) {
	hub := runningHub(t)
	require.True(t, hub.Register(NewSubscriber("citizen-1")))
	authn := middleware.NewAuthenticator(security.NewTokenManager("test-secret", time.Hour), nil, nil)

	rec := httptest.NewRecorder()
	newRouter(hub, authn, nil, "").ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(1), body["connected_clients"])
}
