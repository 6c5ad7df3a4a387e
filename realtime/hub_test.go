package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dialHub(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func joinRoom(t *testing.T, hub *Hub, conn *websocket.Conn, room string) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]string{"event": "join", "room": room}))
	require.Eventually(t, func() bool {
		return hub.RoomSize(room) > 0
	}, time.Second, 10*time.Millisecond)
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	var env Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func TestHubEmitDeliversToJoinedRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn := dialHub(t, server)
	joinRoom(t, hub, conn, "buyer@example.com")

	hub.Emit("buyer@example.com", "notification", map[string]string{"title": "Order Confirmed!"})

	env := readEnvelope(t, conn)
	assert.Equal(t, "notification", env.Event)
	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Order Confirmed!", data["title"])
}

func TestHubRoomsAreCaseInsensitive(t *testing.T) {
	hub := NewHub(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn := dialHub(t, server)
	joinRoom(t, hub, conn, "Buyer@Example.com")

	hub.Emit("BUYER@EXAMPLE.COM", "cart-updated", nil)

	env := readEnvelope(t, conn)
	assert.Equal(t, "cart-updated", env.Event)
}

func TestHubEmitSkipsOtherRooms(t *testing.T) {
	hub := NewHub(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	joined := dialHub(t, server)
	joinRoom(t, hub, joined, "alice@example.com")
	other := dialHub(t, server)
	joinRoom(t, hub, other, "bob@example.com")

	hub.Emit("alice@example.com", "notification", "only for alice")

	env := readEnvelope(t, joined)
	assert.Equal(t, "notification", env.Event)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var stray Envelope
	assert.Error(t, other.ReadJSON(&stray))
}

func TestHubBroadcastReachesEveryClient(t *testing.T) {
	hub := NewHub(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	joined := dialHub(t, server)
	joinRoom(t, hub, joined, "alice@example.com")
	lurker := dialHub(t, server)
	require.Eventually(t, func() bool {
		return hub.ClientCount() == 2
	}, time.Second, 10*time.Millisecond)

	hub.Broadcast("coupon", map[string]string{"code": "SAVE10"})

	for _, conn := range []*websocket.Conn{joined, lurker} {
		env := readEnvelope(t, conn)
		assert.Equal(t, "coupon", env.Event)
	}
}

func TestHubCleansUpOnDisconnect(t *testing.T) {
	hub := NewHub(zap.NewNop())
	server := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer server.Close()

	conn := dialHub(t, server)
	joinRoom(t, hub, conn, "alice@example.com")

	conn.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0 && hub.RoomSize("alice@example.com") == 0
	}, time.Second, 10*time.Millisecond)
}
