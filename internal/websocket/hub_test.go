package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ridecare-backend/internal/models"
	"ridecare-backend/internal/state"
	"ridecare-backend/pkg/storage"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHub(t *testing.T, origins ...string) (*Hub, *state.Store, string) {
	t.Helper()

	store := state.New(storage.NewMemoryStore())
	require.NoError(t, store.Load(context.Background()))

	if len(origins) == 0 {
		origins = []string{"http://localhost:8081"}
	}
	hub := NewHub(store, origins, nil)
	hub.Start()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r)
	}))

	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
		store.Close()
	})

	return hub, store, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string, header http.Header) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestHub_SendsSnapshotOnConnect(t *testing.T) {
	hub, _, url := setupHub(t)
	conn := dial(t, url, nil)

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeSnapshot, msg.Type)
	require.NotNil(t, msg.Data)
	assert.False(t, msg.Data.IsLoading)
	assert.Equal(t, models.ThemeDefault, msg.Data.Theme)

	assert.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_BroadcastsChanges(t *testing.T) {
	hub, store, url := setupHub(t)
	conn := dial(t, url, nil)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, store.UpdateTheme(context.Background(), models.ThemeElderly))

	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeSnapshot, msg.Type)
	assert.Equal(t, models.ThemeElderly, msg.Data.Theme)
}

func TestHub_PingAndRefresh(t *testing.T) {
	_, _, url := setupHub(t)
	conn := dial(t, url, nil)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypePing}))
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypeRefresh}))
	msg := readMessage(t, conn)
	assert.Equal(t, MessageTypeSnapshot, msg.Type)
	assert.NotNil(t, msg.Data)
}

func TestHub_ClientDisconnectUnregisters(t *testing.T) {
	hub, _, url := setupHub(t)
	conn := dial(t, url, nil)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, _, url := setupHub(t)
	conn := dial(t, url, nil)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Stop())
	assert.Equal(t, 0, hub.ClientCount())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)

	// a second Stop is harmless
	require.NoError(t, hub.Stop())
}

func TestHub_CheckOrigin(t *testing.T) {
	_, _, url := setupHub(t, "http://localhost:8081")

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"http://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn := dial(t, url, http.Header{"Origin": {"http://localhost:8081"}})
	assert.Equal(t, MessageTypeSnapshot, readMessage(t, conn).Type)
}
