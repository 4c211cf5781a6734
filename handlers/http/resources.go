package httpHandler

import (
	"net/http"
	"strconv"

	"farmbot-server/entities"
	"farmbot-server/middlewares"
	"farmbot-server/resources"
	"farmbot-server/usecases"

	"github.com/gin-gonic/gin"
)

// RpcIDHeader carries the client request id echoed back as the auto-sync label.
const RpcIDHeader = "X-Farmbot-Rpc-Id"

type ResourceHandler struct {
	useCase *usecases.ResourceUseCase
	devices *usecases.DeviceUseCase
}

func NewResourceHandler(useCase *usecases.ResourceUseCase, devices *usecases.DeviceUseCase) *ResourceHandler {
	return &ResourceHandler{useCase: useCase, devices: devices}
}

// Register mounts the CRUD routes of kind on group.
func (h *ResourceHandler) Register(group *gin.RouterGroup, kind *resources.Kind) {
	group.GET("", h.list(kind.Name))
	group.POST("", h.create(kind.Name))
	group.GET("/:id", h.get(kind.Name))
	group.PUT("/:id", h.update(kind.Name))
	group.PATCH("/:id", h.update(kind.Name))
	group.DELETE("/:id", h.destroy(kind.Name))
}

func (h *ResourceHandler) device(c *gin.Context) (*entities.Device, bool) {
	device, err := h.devices.GetDevice(middlewares.DeviceID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return device, true
}

func resourceID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found"})
		return 0, false
	}
	return uint(id), true
}

func (h *ResourceHandler) list(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := h.useCase.List(kind, middlewares.DeviceID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": out})
	}
}

func (h *ResourceHandler) get(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resourceID(c)
		if !ok {
			return
		}
		record, err := h.useCase.Get(kind, middlewares.DeviceID(c), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	}
}

func (h *ResourceHandler) create(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
		device, ok := h.device(c)
		if !ok {
			return
		}
		record, err := h.useCase.Create(kind, device, body, c.GetHeader(RpcIDHeader))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"data": record})
	}
}

func (h *ResourceHandler) update(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resourceID(c)
		if !ok {
			return
		}
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			badRequest(c, err)
			return
		}
		device, ok := h.device(c)
		if !ok {
			return
		}
		record, err := h.useCase.Update(kind, device, id, body, c.GetHeader(RpcIDHeader))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": record})
	}
}

func (h *ResourceHandler) destroy(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := resourceID(c)
		if !ok {
			return
		}
		device, ok := h.device(c)
		if !ok {
			return
		}
		if err := h.useCase.Delete(kind, device, id, c.GetHeader(RpcIDHeader)); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Resource deleted successfully"})
	}
}

type jobReq struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID uint           `json:"resource_id"`
	Body       map[string]any `json:"body"`
	UUID       string         `json:"uuid"`
}

// RunJob handles POST /api/v1/resources
func (h *ResourceHandler) RunJob(c *gin.Context) {
	var req jobReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	device, ok := h.device(c)
	if !ok {
		return
	}
	if req.UUID == "" {
		req.UUID = c.GetHeader(RpcIDHeader)
	}
	record, err := h.useCase.Run(resources.Params{
		Action:     req.Action,
		Resource:   req.Resource,
		ResourceID: req.ResourceID,
		Body:       req.Body,
		UUID:       req.UUID,
		Device:     device,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": record})
}
