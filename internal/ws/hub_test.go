package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room-service/internal/models"
)

func TestHubMembership(t *testing.T) {
	hub := NewHub()
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	assert.False(t, hub.HasClients("r1"))
	assert.Empty(t, hub.OpenRooms())

	hub.AddClient("r1", conn1, ConnInfo{ConnID: "c1", UserID: "u1"})
	hub.AddClient("r1", conn2, ConnInfo{ConnID: "c2", UserID: "u2"})
	hub.AddClient("r2", conn1, ConnInfo{ConnID: "c3", UserID: "u1"})

	assert.True(t, hub.HasClients("r1"))
	assert.True(t, hub.HasClients("r2"))
	assert.ElementsMatch(t, []string{"r1", "r2"}, hub.OpenRooms())

	hub.RemoveClient("r1", conn1)
	assert.True(t, hub.HasClients("r1"))

	hub.RemoveClient("r1", conn2)
	assert.False(t, hub.HasClients("r1"))
	assert.ElementsMatch(t, []string{"r2"}, hub.OpenRooms())
}

// dialTestClient upgrades a real connection against an httptest server and
// registers it with the hub.
func dialTestClient(t *testing.T, hub *Hub, roomID string) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		hub.AddClient(roomID, conn, ConnInfo{ConnID: newConnID(), ConnectedAt: time.Now()})
	}))
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	require.Eventually(t, func() bool {
		return hub.HasClients(roomID)
	}, 2*time.Second, 5*time.Millisecond)
	return client
}

func readEvent(t *testing.T, client *websocket.Conn) models.RoomEvent {
	t.Helper()
	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := client.ReadMessage()
	require.NoError(t, err)

	var event models.RoomEvent
	require.NoError(t, json.Unmarshal(payload, &event))
	return event
}

func TestBroadcastMessage(t *testing.T) {
	hub := NewHub()
	client := dialTestClient(t, hub, "r1")

	hub.BroadcastMessage("r1", models.Message{ID: "m1", ChatRoomID: "r1", Content: "hello"})

	event := readEvent(t, client)
	assert.Equal(t, "message", event.Type)
	require.NotNil(t, event.Message)
	assert.Equal(t, "m1", event.Message.ID)
}

func TestBroadcastDeletion(t *testing.T) {
	hub := NewHub()
	client := dialTestClient(t, hub, "r1")

	hub.BroadcastDeletion("r1", "m1")

	event := readEvent(t, client)
	assert.Equal(t, "message_deleted", event.Type)
	assert.Equal(t, "m1", event.MessageID)
}

func TestBroadcastSnapshotReplacesView(t *testing.T) {
	hub := NewHub()
	client := dialTestClient(t, hub, "r1")

	hub.BroadcastSnapshot("r1", []models.Message{
		{ID: "m1", ChatRoomID: "r1"},
		{ID: "m2", ChatRoomID: "r1"},
	})

	event := readEvent(t, client)
	assert.Equal(t, "snapshot", event.Type)
	require.Len(t, event.Messages, 2)
	assert.Equal(t, "m1", event.Messages[0].ID)
}

func TestBroadcastScopedToRoom(t *testing.T) {
	hub := NewHub()
	client := dialTestClient(t, hub, "r1")
	other := dialTestClient(t, hub, "r2")

	hub.BroadcastRoomDeleted("r1")

	event := readEvent(t, client)
	assert.Equal(t, "room_deleted", event.Type)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "client in another room must not receive the event")
}
