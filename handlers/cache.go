package handlers

import (
	"net/http"

	"farmbot-server/middlewares"
	"farmbot-server/services"

	"github.com/gin-gonic/gin"
)

type CacheHandler struct {
	processor *services.DataProcessor
}

func NewCacheHandler(processor *services.DataProcessor) *CacheHandler {
	return &CacheHandler{
		processor: processor,
	}
}

// FlushReadings POST /api/v1/readings/flush
func (h *CacheHandler) FlushReadings(c *gin.Context) {
	n := h.processor.ProcessCachedData()
	c.JSON(http.StatusOK, gin.H{"status": "processed", "inserted": n})
}

// GetCacheStats GET /api/v1/readings/stats
func (h *CacheHandler) GetCacheStats(c *gin.Context) {
	stats := h.processor.GetCacheStats()

	pending := h.processor.GetDeviceReadings(middlewares.DeviceID(c))
	readings := make([]gin.H, 0, len(pending))
	for _, point := range pending {
		readings = append(readings, gin.H{
			"pin":       point.Reading.Pin,
			"value":     point.Reading.Value,
			"read_at":   point.Reading.ReadAt,
			"cached_at": point.CachedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"stats":   stats,
		"pending": readings,
	})
}
