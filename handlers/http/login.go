package httpHandler

import (
	"net/http"

	"farmbot-server/usecases"

	"github.com/gin-gonic/gin"
)

type LoginHandler struct {
	auth *usecases.AuthUseCase
}

func NewLoginHandler(auth *usecases.AuthUseCase) *LoginHandler {
	return &LoginHandler{auth: auth}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	UserID   uint   `json:"user_id"`
	DeviceID uint   `json:"device_id"`
}

// Register handles POST /api/v1/users
func (h *LoginHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.auth.Register(req.Email, req.Password, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": user})
}

// Login handles POST /api/v1/tokens
func (h *LoginHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	token, user, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, LoginResponse{
		Token:    token,
		UserID:   user.ID,
		DeviceID: user.DeviceID,
	})
}
