package middlewares

import (
	"net/http"
	"strings"

	"farmbot-server/usecases"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware.
const (
	UserIDKey   = "user_id"
	DeviceIDKey = "device_id"
)

// TokenParser verifies a session token.
type TokenParser interface {
	ParseToken(raw string) (usecases.Claims, error)
}

// AuthMiddleware validates the JWT token from header OR query parameter.
func AuthMiddleware(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenString string

		authHeader := c.GetHeader("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		// websocket clients can't set headers, ?token=abc123
		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token required"})
			return
		}

		claims, err := parser.ParseToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Set(DeviceIDKey, claims.DeviceID)
		c.Next()
	}
}

// DeviceID returns the device of the authenticated caller.
func DeviceID(c *gin.Context) uint {
	return c.GetUint(DeviceIDKey)
}
