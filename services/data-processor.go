package services

import (
	"context"
	"time"

	"farmbot-server/cache"
	"farmbot-server/entities"
	"farmbot-server/repositories"

	log "github.com/go-pkgz/lgr"
)

// DataProcessor buffers sensor readings from devices and writes them in batches.
type DataProcessor struct {
	cache    *cache.ReadingsCache
	repo     repositories.ResourceRepository
	interval time.Duration
}

func NewDataProcessor(repo repositories.ResourceRepository, interval time.Duration, threshold float64) *DataProcessor {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &DataProcessor{
		cache:    cache.NewReadingsCache(threshold),
		repo:     repo,
		interval: interval,
	}
}

// Start flushes on every interval until ctx is done, then flushes once more.
func (dp *DataProcessor) Start(ctx context.Context) {
	ticker := time.NewTicker(dp.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				dp.ProcessCachedData()
			case <-ctx.Done():
				dp.ProcessCachedData()
				return
			}
		}
	}()
}

// ProcessCachedData writes buffered readings and returns how many were stored.
func (dp *DataProcessor) ProcessCachedData() int {
	var all []entities.SensorReading
	for _, readings := range dp.cache.Drain() {
		all = append(all, readings...)
	}
	if len(all) == 0 {
		log.Printf("[DEBUG] no cached readings to process")
		return 0
	}
	if err := dp.repo.CreateBatch(&all); err != nil {
		log.Printf("[ERROR] bulk inserting %d readings, keeping them buffered: %v", len(all), err)
		dp.cache.Restore(all)
		return 0
	}
	log.Printf("[INFO] inserted %d cached readings", len(all))
	return len(all)
}

func (dp *DataProcessor) AddReading(r entities.SensorReading) {
	if r.ReadAt.IsZero() {
		r.ReadAt = time.Now().UTC()
	}
	dp.cache.AddReading(r)
}

func (dp *DataProcessor) GetDeviceReadings(deviceID uint) []cache.ReadingPoint {
	return dp.cache.DeviceReadings(deviceID)
}

func (dp *DataProcessor) GetCacheStats() map[string]interface{} {
	return dp.cache.Stats()
}
