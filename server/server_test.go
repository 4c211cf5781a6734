package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"farmbot-server/confs"
	"farmbot-server/db"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"), nil)
	require.NoError(t, err)
	opts := &confs.Options{JWTSecret: "test-secret", TokenTTL: time.Hour, FlushInterval: time.Minute}
	opts.Releases.URL = "http://127.0.0.1:1/releases"
	opts.Releases.Interval = time.Hour
	return NewServer(database, opts)
}

type response struct {
	Code int
	Body map[string]any
}

func call(t *testing.T, h http.Handler, method, path, token string, body any, headers ...string) response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	res := response{Code: rec.Code}
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res.Body), rec.Body.String())
	}
	return res
}

func signup(t *testing.T, h http.Handler, email string) string {
	t.Helper()
	res := call(t, h, http.MethodPost, "/api/v1/users", "", map[string]any{"email": email, "password": "password123"})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	res = call(t, h, http.MethodPost, "/api/v1/tokens", "", map[string]any{"email": email, "password": "password123"})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	return res.Body["token"].(string)
}

func data(r response) map[string]any { return r.Body["data"].(map[string]any) }

func TestServer_Auth(t *testing.T) {
	h := newTestServer(t).Handler()

	assert.Equal(t, http.StatusOK, call(t, h, http.MethodGet, "/health", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, h, http.MethodGet, "/api/v1/device", "", nil).Code)

	token := signup(t, h, "grower@example.com")
	res := call(t, h, http.MethodPost, "/api/v1/users", "", map[string]any{"email": "grower@example.com", "password": "password123"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)

	res = call(t, h, http.MethodPost, "/api/v1/tokens", "", map[string]any{"email": "grower@example.com", "password": "nope-nope"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = call(t, h, http.MethodGet, "/api/v1/device", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Farmbot", data(res)["name"])

	res = call(t, h, http.MethodPut, "/api/v1/device", token, map[string]any{"name": "Lettuce", "beta_opt_in": true})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Lettuce", data(res)["name"])
	assert.Equal(t, true, data(res)["beta_opt_in"])
}

func TestServer_ResourceLifecycle(t *testing.T) {
	h := newTestServer(t).Handler()
	token := signup(t, h, "a@example.com")
	otherToken := signup(t, h, "b@example.com")

	res := call(t, h, http.MethodPost, "/api/v1/points", token,
		map[string]any{"pointer_type": "Plant", "name": "Carrot", "x": 10, "y": 20})
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	id := uint(data(res)["id"].(float64))

	res = call(t, h, http.MethodGet, "/api/v1/points", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["data"], 1)
	res = call(t, h, http.MethodGet, "/api/v1/points", otherToken, nil)
	assert.Empty(t, res.Body["data"])

	path := "/api/v1/points/" + jsonID(id)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, path, otherToken, nil).Code)

	res = call(t, h, http.MethodPatch, path, otherToken, map[string]any{"name": "Stolen"})
	require.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Equal(t, "Resource not found", res.Body["errors"].(map[string]any)["resource_id"])

	res = call(t, h, http.MethodPatch, path, token, map[string]any{"name": "Big carrot"})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, "Big carrot", data(res)["name"])

	res = call(t, h, http.MethodPost, "/api/v1/resources", token,
		map[string]any{"action": "save", "resource": "Point", "resource_id": 0, "body": map[string]any{"name": "x"}})
	require.Equal(t, http.StatusUnprocessableEntity, res.Code)
	assert.Equal(t, "Resource creation is not supported over this channel yet",
		res.Body["errors"].(map[string]any)["body"])

	res = call(t, h, http.MethodPost, "/api/v1/resources", token,
		map[string]any{"action": "destroy", "resource": "Plant", "resource_id": id})
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, path, token, nil).Code)

	assert.Equal(t, http.StatusNotFound, call(t, h, http.MethodGet, "/api/v1/points/abc", token, nil).Code)
}

func jsonID(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestServer_OsUpdateAndRPC(t *testing.T) {
	h := newTestServer(t).Handler()
	token := signup(t, h, "a@example.com")

	res := call(t, h, http.MethodGet, "/api/v1/device/os_update", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "none", data(res)["status"])
	assert.Equal(t, true, data(res)["disabled"])

	res = call(t, h, http.MethodPost, "/api/v1/device/check_updates", token, nil)
	require.Equal(t, http.StatusAccepted, res.Code)
	assert.Equal(t, "queued", res.Body["status"])
	cmdID := res.Body["command"].(map[string]any)["id"].(string)

	res = call(t, h, http.MethodGet, "/api/v1/rpc/poll", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.EqualValues(t, 1, res.Body["count"])

	res = call(t, h, http.MethodGet, "/api/v1/rpc/poll", token, nil)
	assert.EqualValues(t, 0, res.Body["count"])

	res = call(t, h, http.MethodPost, "/api/v1/rpc/ack", token, map[string]any{"id": cmdID, "status": "ok"})
	assert.Equal(t, http.StatusOK, res.Code)
	res = call(t, h, http.MethodPost, "/api/v1/rpc/ack", token, map[string]any{"id": "missing"})
	assert.Equal(t, http.StatusNotFound, res.Code)
}

func dialWS(t *testing.T, ts *httptest.Server, path, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path + "?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg map[string]any
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestServer_BotChannel(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	token := signup(t, ts.Config.Handler, "bot@example.com")

	res := call(t, ts.Config.Handler, http.MethodPost, "/api/v1/sensors", token, map[string]any{"pin": 59, "label": "Soil"})
	require.Equal(t, http.StatusCreated, res.Code)
	sensorID := data(res)["id"]

	// queued before the bot is online, pushed on connect
	res = call(t, ts.Config.Handler, http.MethodPost, "/api/v1/device/check_updates", token, nil)
	require.Equal(t, http.StatusAccepted, res.Code)
	cmdID := res.Body["command"].(map[string]any)["id"]

	sync := dialWS(t, ts, "/ws/sync", token)
	bot := dialWS(t, ts, "/ws", token)

	push := readJSON(t, bot)
	assert.Equal(t, "rpc_request", push["type"])
	assert.Equal(t, "check_update", push["kind"])
	assert.Equal(t, cmdID, push["id"])

	require.NoError(t, bot.WriteJSON(map[string]any{"type": "status", "controller_version": "15.3.0", "commit": "abc"}))
	require.NoError(t, bot.WriteJSON(map[string]any{
		"kind": "resources", "action": "save", "resource": "Sensor", "resource_id": sensorID,
		"body": map[string]any{"label": "Moisture"}, "uuid": "req-42",
	}))
	reply := readJSON(t, bot)
	assert.Equal(t, "rpc_ok", reply["kind"])
	assert.Equal(t, "req-42", reply["label"])

	msg := readJSON(t, sync)
	assert.Equal(t, "auto_sync", msg["type"])
	assert.Equal(t, "Sensor", msg["kind"])
	assert.Equal(t, "req-42", msg["label"])

	require.NoError(t, bot.WriteJSON(map[string]any{"type": "rpc_ok", "label": cmdID}))
	require.NoError(t, bot.WriteJSON(map[string]any{"kind": "resources", "action": "destroy", "resource": "Sensor", "resource_id": 999}))
	reply = readJSON(t, bot)
	assert.Equal(t, "rpc_error", reply["kind"])
	assert.Equal(t, "NONE", reply["label"])
	assert.Equal(t, []any{"Resource not found"}, reply["errors"])

	// status was handled before the resources reply on the same connection
	res = call(t, ts.Config.Handler, http.MethodGet, "/api/v1/device", token, nil)
	assert.Equal(t, "15.3.0", data(res)["fbos_version"])
	res = call(t, ts.Config.Handler, http.MethodGet, "/api/v1/device/connected", token, nil)
	assert.Equal(t, true, res.Body["connected"])
}

func TestServer_RestMutationsLabelAutoSync(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	h := ts.Config.Handler
	token := signup(t, h, "ui@example.com")

	sync := dialWS(t, ts, "/ws/sync", token)
	require.Eventually(t, func() bool {
		res := call(t, h, http.MethodGet, "/api/v1/device/connected", token, nil)
		return res.Body["subscribers"] == float64(1)
	}, 5*time.Second, 10*time.Millisecond)

	res := call(t, h, http.MethodPost, "/api/v1/points", token,
		map[string]any{"name": "Carrot"}, "X-Farmbot-Rpc-Id", "rest-create")
	require.Equal(t, http.StatusCreated, res.Code, res.Body)
	id := uint(data(res)["id"].(float64))
	path := "/api/v1/points/" + jsonID(id)

	res = call(t, h, http.MethodPatch, path, token, map[string]any{"name": "Big carrot"}, "X-Farmbot-Rpc-Id", "rest-patch")
	require.Equal(t, http.StatusOK, res.Code, res.Body)
	res = call(t, h, http.MethodDelete, path, token, nil, "X-Farmbot-Rpc-Id", "rest-delete")
	require.Equal(t, http.StatusOK, res.Code, res.Body)

	tbl := []struct {
		label   string
		name    any
		deleted bool
	}{
		{"rest-create", "Carrot", false},
		{"rest-patch", "Big carrot", false},
		{"rest-delete", nil, true},
	}
	for _, tt := range tbl {
		msg := readJSON(t, sync)
		assert.Equal(t, "auto_sync", msg["type"])
		assert.Equal(t, "Point", msg["kind"])
		assert.Equal(t, float64(id), msg["id"])
		assert.Equal(t, tt.label, msg["label"])
		if tt.deleted {
			assert.Nil(t, msg["body"])
			continue
		}
		assert.Equal(t, tt.name, msg["body"].(map[string]any)["name"])
	}
}

func TestServer_Readings(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()
	token := signup(t, ts.Config.Handler, "bot@example.com")

	bot := dialWS(t, ts, "/ws", token)
	for _, v := range []float64{10, 10.1, 30} {
		require.NoError(t, bot.WriteJSON(map[string]any{"type": "sensor_reading", "pin": 59, "value": v}))
	}
	require.Eventually(t, func() bool {
		res := call(t, ts.Config.Handler, http.MethodGet, "/api/v1/readings/stats", token, nil)
		return len(res.Body["pending"].([]any)) == 3
	}, 5*time.Second, 20*time.Millisecond)

	res := call(t, ts.Config.Handler, http.MethodPost, "/api/v1/readings/flush", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.EqualValues(t, 2, res.Body["inserted"])

	res = call(t, ts.Config.Handler, http.MethodGet, "/api/v1/sensor_readings", token, nil)
	assert.Len(t, res.Body["data"], 2)
}
