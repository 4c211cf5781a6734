package httpHandler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"farmbot-server/middlewares"
	"farmbot-server/usecases"

	"github.com/gin-gonic/gin"
)

type CommandHandler struct {
	cmdUC *usecases.CommandsUseCase
}

func NewCommandHandler(uc *usecases.CommandsUseCase) *CommandHandler {
	return &CommandHandler{cmdUC: uc}
}

type enqueueReq struct {
	Kind string                 `json:"kind" binding:"required"`
	Args map[string]interface{} `json:"args"`
}

// POST /api/v1/rpc
// Enqueue an RPC and, if the bot is connected via WS, push immediately
func (h *CommandHandler) Enqueue(c *gin.Context) {
	var req enqueueReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cmd, err := h.cmdUC.Enqueue(middlewares.DeviceID(c), req.Kind, req.Args)
	if err != nil {
		respondError(c, err)
		return
	}

	status := "queued"
	if h.cmdUC.Dispatch(cmd) {
		status = "sent"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "command": cmd})
}

// GET /api/v1/rpc/poll?limit=...
// Bots call this to fetch pending RPCs when WS isn't available
func (h *CommandHandler) Poll(c *gin.Context) {
	limit := 10
	if l := c.Query("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	cmds, err := h.cmdUC.Poll(middlewares.DeviceID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	// mark as sent so they aren't re-delivered endlessly
	ids := make([]string, 0, len(cmds))
	for _, c0 := range cmds {
		ids = append(ids, c0.ID)
	}
	if err := h.cmdUC.MarkSent(ids); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": cmds, "count": len(cmds)})
}

type ackReq struct {
	ID      string `json:"id" binding:"required"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// POST /api/v1/rpc/ack
// Bot acknowledges RPC execution
func (h *CommandHandler) Ack(c *gin.Context) {
	var req ackReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	resp := ""
	if req.Message != "" {
		b, _ := json.Marshal(map[string]string{"message": req.Message})
		resp = string(b)
	}
	if err := h.cmdUC.Ack(middlewares.DeviceID(c), req.ID, req.Status, resp); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
