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
)

// startServer registers every incoming connection as the bot (path /bot) or a subscriber (path /sync) of device 1.
func startServer(t *testing.T, m *Manager) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if r.URL.Path == "/bot" {
			m.Register(1, c)
			return
		}
		m.Subscribe(1, c)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestManager_SendToDevice(t *testing.T) {
	m := NewManager()
	assert.ErrorIs(t, m.SendToDevice(1, []byte("x")), ErrNotConnected)

	ts := startServer(t, m)
	bot := dial(t, ts, "/bot")
	require.Eventually(t, func() bool { return m.IsConnected(1) }, time.Second, 10*time.Millisecond)
	assert.Equal(t, []uint{1}, m.List())

	require.NoError(t, m.SendJSON(1, map[string]string{"kind": "check_update"}))
	require.NoError(t, bot.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := bot.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"check_update"}`, string(msg))
}

func TestManager_AutoSync(t *testing.T) {
	m := NewManager()
	ts := startServer(t, m)
	sub1, sub2 := dial(t, ts, "/sync"), dial(t, ts, "/sync")
	require.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return len(m.subscribers[1]) == 2
	}, time.Second, 10*time.Millisecond)

	m.AutoSync(1, "Point", 5, map[string]string{"name": "Heyo!"}, "label-1")
	m.AutoSync(2, "Point", 6, nil, "other device")

	for _, sub := range []*websocket.Conn{sub1, sub2} {
		require.NoError(t, sub.SetReadDeadline(time.Now().Add(time.Second)))
		_, msg, err := sub.ReadMessage()
		require.NoError(t, err)
		var got AutoSync
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, "auto_sync", got.Type)
		assert.Equal(t, "Point", got.Kind)
		assert.Equal(t, uint(5), got.ID)
		assert.Equal(t, "label-1", got.Label)
	}
}

func TestManager_UnregisterOnlyCurrent(t *testing.T) {
	m := NewManager()
	ts := startServer(t, m)
	dial(t, ts, "/bot")
	require.Eventually(t, func() bool { return m.IsConnected(1) }, time.Second, 10*time.Millisecond)

	m.mu.RLock()
	first := m.connections[1].ws
	m.mu.RUnlock()

	dial(t, ts, "/bot")
	require.Eventually(t, func() bool {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return m.connections[1].ws != first
	}, time.Second, 10*time.Millisecond)

	// the replaced connection's cleanup must not drop the new one
	m.Unregister(1, first)
	assert.True(t, m.IsConnected(1))
}
