package httpHandler

import (
	"errors"
	"net/http"

	"farmbot-server/resources"
	"farmbot-server/usecases"

	"github.com/gin-gonic/gin"
	log "github.com/go-pkgz/lgr"
)

// respondError maps usecase and job errors to a status code and JSON body.
func respondError(c *gin.Context, err error) {
	var jobErrs *resources.Errors
	var verr *usecases.ValidationError
	switch {
	case errors.As(err, &jobErrs):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": jobErrs.Map()})
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{verr.Field: verr.Message}})
	case errors.Is(err, usecases.ErrEmailTaken):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": gin.H{"email": err.Error()}})
	case errors.Is(err, usecases.ErrNotFound), errors.Is(err, resources.ErrUnknownKind):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, usecases.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
	default:
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}
