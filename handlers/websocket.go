package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"farmbot-server/entities"
	"farmbot-server/middlewares"
	"farmbot-server/resources"
	"farmbot-server/services"
	"farmbot-server/usecases"
	"farmbot-server/ws"

	"github.com/gin-gonic/gin"
	log "github.com/go-pkgz/lgr"
	"github.com/gorilla/websocket"
)

// Bot message types.
const (
	msgStatus        = "status"
	msgSensorReading = "sensor_reading"
	msgResources     = "resources"
	msgRPCOk         = "rpc_ok"
	msgRPCError      = "rpc_error"
	msgHeartbeat     = "heartbeat"
)

// incomingMessage is peeked to route a bot message. Resources requests use kind.
type incomingMessage struct {
	Type string `json:"type"`
	Kind string `json:"kind"`
}

func (m incomingMessage) route() string {
	if m.Type != "" {
		return m.Type
	}
	return m.Kind
}

type sensorReadingPayload struct {
	Pin    int      `json:"pin"`
	Mode   int      `json:"mode"`
	Value  float64  `json:"value"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
	Z      *float64 `json:"z"`
	ReadAt string   `json:"read_at"`
}

type rpcReplyPayload struct {
	Label   string   `json:"label"`
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

// WSHandler groups dependencies for websocket flows
type WSHandler struct {
	mgr       *ws.Manager
	devices   *usecases.DeviceUseCase
	commands  *usecases.CommandsUseCase
	resources *resources.Service
	processor *services.DataProcessor
}

func NewWSHandler(mgr *ws.Manager, devices *usecases.DeviceUseCase, commands *usecases.CommandsUseCase,
	svc *resources.Service, processor *services.DataProcessor) *WSHandler {
	return &WSHandler{mgr: mgr, devices: devices, commands: commands, resources: svc, processor: processor}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleDeviceWS upgrades to websocket and reads messages from the bot
// GET /ws?token=<token>
func (h *WSHandler) HandleDeviceWS(c *gin.Context) {
	deviceID := middlewares.DeviceID(c)
	device, err := h.devices.GetDevice(deviceID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WARN] websocket upgrade failed: %v", err)
		return
	}
	h.mgr.Register(deviceID, conn)
	log.Printf("[INFO] device connected: %d", deviceID)

	defer func() {
		h.mgr.Unregister(deviceID, conn)
		log.Printf("[INFO] device disconnected: %d", deviceID)
	}()

	if n := h.commands.DispatchPending(deviceID); n > 0 {
		log.Printf("[INFO] pushed %d queued commands to device %d", n, deviceID)
	}

	for {
		mt, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[DEBUG] device %d closed connection", deviceID)
			} else {
				log.Printf("[WARN] read error from %d: %v", deviceID, err)
			}
			return
		}
		if mt != websocket.TextMessage {
			continue
		}
		h.handleMessage(device, message)
	}
}

func (h *WSHandler) handleMessage(device *entities.Device, message []byte) {
	var base incomingMessage
	if err := json.Unmarshal(message, &base); err != nil {
		log.Printf("[WARN] invalid json from %d: %v", device.ID, err)
		return
	}

	switch base.route() {
	case msgStatus:
		var payload usecases.BotStatus
		if err := json.Unmarshal(message, &payload); err != nil {
			log.Printf("[WARN] invalid status payload from %d: %v", device.ID, err)
			return
		}
		if err := h.devices.ReportStatus(device.ID, payload); err != nil {
			log.Printf("[ERROR] can't store status of %d: %v", device.ID, err)
		}
	case msgSensorReading:
		var payload sensorReadingPayload
		if err := json.Unmarshal(message, &payload); err != nil {
			log.Printf("[WARN] invalid sensor_reading payload from %d: %v", device.ID, err)
			return
		}
		h.processor.AddReading(payload.reading(device.ID))
	case msgResources:
		reply := h.resources.Handle(device, message)
		if err := h.mgr.SendJSON(device.ID, reply); err != nil {
			log.Printf("[WARN] can't reply %s to %d: %v", reply.Label, device.ID, err)
		}
	case msgRPCOk, msgRPCError:
		var payload rpcReplyPayload
		if err := json.Unmarshal(message, &payload); err != nil {
			log.Printf("[WARN] invalid %s payload from %d: %v", base.route(), device.ID, err)
			return
		}
		status := entities.CommandOK
		if base.route() == msgRPCError {
			status = entities.CommandError
		}
		if err := h.commands.Ack(device.ID, payload.Label, status, payload.response()); err != nil {
			log.Printf("[WARN] can't ack %q from %d: %v", payload.Label, device.ID, err)
		}
	case msgHeartbeat:
		log.Printf("[DEBUG] heartbeat from %d", device.ID)
	default:
		log.Printf("[WARN] unknown message type from %d: %s", device.ID, base.route())
	}
}

func (p sensorReadingPayload) reading(deviceID uint) entities.SensorReading {
	r := entities.SensorReading{Pin: p.Pin, Mode: p.Mode, Value: p.Value, X: p.X, Y: p.Y, Z: p.Z}
	r.DeviceID = deviceID
	if t, err := time.Parse(time.RFC3339Nano, p.ReadAt); err == nil {
		r.ReadAt = t.UTC()
	}
	return r
}

func (p rpcReplyPayload) response() string {
	if p.Message != "" {
		return p.Message
	}
	return strings.Join(p.Errors, "; ")
}

// HandleSyncWS streams auto-sync messages of the caller's device
// GET /ws/sync?token=<token>
func (h *WSHandler) HandleSyncWS(c *gin.Context) {
	deviceID := middlewares.DeviceID(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WARN] websocket upgrade failed: %v", err)
		return
	}
	h.mgr.Subscribe(deviceID, conn)
	defer h.mgr.Unsubscribe(deviceID, conn)

	// subscribers only listen, reads detect the close
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// GetConnectedDevices GET /api/v1/device/connected
func (h *WSHandler) GetConnectedDevices(c *gin.Context) {
	deviceID := middlewares.DeviceID(c)
	c.JSON(http.StatusOK, gin.H{"connected": h.mgr.IsConnected(deviceID), "subscribers": h.mgr.Subscribers(deviceID)})
}
