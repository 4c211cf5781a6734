package ws

import (
	"encoding/json"
	"errors"
	"sync"

	log "github.com/go-pkgz/lgr"
	"github.com/gorilla/websocket"
)

// ErrNotConnected is returned when a device has no open bot connection.
var ErrNotConnected = errors.New("device not connected")

// AutoSync tells subscribers that a resource changed. Body is nil for deletions.
type AutoSync struct {
	Type  string `json:"type"` // always "auto_sync"
	Kind  string `json:"kind"`
	ID    uint   `json:"id"`
	Body  any    `json:"body"`
	Label string `json:"label"`
}

// conn serializes writes; gorilla connections allow one concurrent writer.
type conn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *conn) write(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, payload)
}

// Manager keeps track of active bot connections and sync subscribers.
type Manager struct {
	mu          sync.RWMutex
	connections map[uint]*conn                     // deviceID -> bot
	subscribers map[uint]map[*websocket.Conn]*conn // deviceID -> UI clients
}

func NewManager() *Manager {
	return &Manager{
		connections: make(map[uint]*conn),
		subscribers: make(map[uint]map[*websocket.Conn]*conn),
	}
}

// Register registers a bot connection, replacing any existing one.
func (m *Manager) Register(deviceID uint, ws *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.connections[deviceID]; ok && old.ws != ws {
		// close old connection to avoid leaks
		_ = old.ws.Close()
	}
	m.connections[deviceID] = &conn{ws: ws}
}

// Unregister removes the bot connection if ws is still the registered one.
func (m *Manager) Unregister(deviceID uint, ws *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.connections[deviceID]; ok && c.ws == ws {
		delete(m.connections, deviceID)
	}
	_ = ws.Close()
}

// Subscribe adds a UI connection receiving the device's auto-sync messages.
func (m *Manager) Subscribe(deviceID uint, ws *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.subscribers[deviceID] == nil {
		m.subscribers[deviceID] = make(map[*websocket.Conn]*conn)
	}
	m.subscribers[deviceID][ws] = &conn{ws: ws}
}

func (m *Manager) Unsubscribe(deviceID uint, ws *websocket.Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscribers[deviceID], ws)
	if len(m.subscribers[deviceID]) == 0 {
		delete(m.subscribers, deviceID)
	}
	_ = ws.Close()
}

// SendToDevice sends a text message to a device if connected.
func (m *Manager) SendToDevice(deviceID uint, payload []byte) error {
	m.mu.RLock()
	c, ok := m.connections[deviceID]
	m.mu.RUnlock()
	if !ok {
		return ErrNotConnected
	}
	return c.write(payload)
}

// SendJSON marshals v and sends it to the device.
func (m *Manager) SendJSON(deviceID uint, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.SendToDevice(deviceID, b)
}

// Publish sends payload to every subscriber of the device and returns how many got it.
func (m *Manager) Publish(deviceID uint, payload []byte) int {
	m.mu.RLock()
	targets := make([]*conn, 0, len(m.subscribers[deviceID]))
	for _, c := range m.subscribers[deviceID] {
		targets = append(targets, c)
	}
	m.mu.RUnlock()

	sent := 0
	for _, c := range targets {
		if err := c.write(payload); err != nil {
			log.Printf("[DEBUG] auto-sync write for device %d failed: %v", deviceID, err)
			continue
		}
		sent++
	}
	return sent
}

// AutoSync publishes a resource change to the device's subscribers.
func (m *Manager) AutoSync(deviceID uint, kind string, id uint, body any, label string) {
	b, err := json.Marshal(AutoSync{Type: "auto_sync", Kind: kind, ID: id, Body: body, Label: label})
	if err != nil {
		log.Printf("[WARN] can't encode auto-sync for %s#%d: %v", kind, id, err)
		return
	}
	m.Publish(deviceID, b)
}

// IsConnected returns whether a device is currently connected.
func (m *Manager) IsConnected(deviceID uint) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.connections[deviceID]
	return ok
}

// Subscribers returns how many sync subscribers the device has.
func (m *Manager) Subscribers(deviceID uint) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscribers[deviceID])
}

// List returns a copy of current connected device IDs.
func (m *Manager) List() []uint {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uint, 0, len(m.connections))
	for id := range m.connections {
		ids = append(ids, id)
	}
	return ids
}
