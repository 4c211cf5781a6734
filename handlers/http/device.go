package httpHandler

import (
	"net/http"

	"farmbot-server/middlewares"
	"farmbot-server/usecases"

	"github.com/gin-gonic/gin"
)

type DeviceHandler struct {
	useCase  *usecases.DeviceUseCase
	commands *usecases.CommandsUseCase
}

func NewDeviceHandler(useCase *usecases.DeviceUseCase, commands *usecases.CommandsUseCase) *DeviceHandler {
	return &DeviceHandler{
		useCase:  useCase,
		commands: commands,
	}
}

// GetDevice handles GET /api/v1/device
func (h *DeviceHandler) GetDevice(c *gin.Context) {
	device, err := h.useCase.GetDevice(middlewares.DeviceID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": device})
}

// UpdateDevice handles PUT /api/v1/device
func (h *DeviceHandler) UpdateDevice(c *gin.Context) {
	var upd usecases.DeviceUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badRequest(c, err)
		return
	}
	device, err := h.useCase.UpdateDevice(middlewares.DeviceID(c), upd)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": device})
}

// DeleteDevice handles DELETE /api/v1/device
func (h *DeviceHandler) DeleteDevice(c *gin.Context) {
	if err := h.useCase.DeleteDevice(middlewares.DeviceID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device deleted successfully"})
}

// OsUpdate handles GET /api/v1/device/os_update
func (h *DeviceHandler) OsUpdate(c *gin.Context) {
	props, err := h.useCase.OsUpdateStatus(middlewares.DeviceID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": props})
}

// CheckUpdates handles POST /api/v1/device/check_updates
func (h *DeviceHandler) CheckUpdates(c *gin.Context) {
	cmd, err := h.commands.CheckUpdates(middlewares.DeviceID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	status := "queued"
	if h.commands.Dispatch(cmd) {
		status = "sent"
	}
	c.JSON(http.StatusAccepted, gin.H{"status": status, "command": cmd})
}
