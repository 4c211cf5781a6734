package cache

import (
	"sync"
	"time"

	"farmbot-server/entities"
)

type ReadingPoint struct {
	Reading  entities.SensorReading
	CachedAt time.Time
}

// ReadingsCache buffers sensor readings per device until they are flushed to the database.
type ReadingsCache struct {
	mu        sync.RWMutex
	readings  map[uint][]ReadingPoint // map[deviceID][]readings
	threshold float64                 // minimum value change per pin worth storing, 0 keeps all
}

func NewReadingsCache(threshold float64) *ReadingsCache {
	return &ReadingsCache{
		readings:  make(map[uint][]ReadingPoint),
		threshold: threshold,
	}
}

// AddReading adds a new reading to the cache
func (rc *ReadingsCache) AddReading(r entities.SensorReading) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.readings[r.DeviceID] = append(rc.readings[r.DeviceID], ReadingPoint{Reading: r, CachedAt: time.Now()})
}

// Drain removes every buffered reading and returns, per device, the significant ones.
func (rc *ReadingsCache) Drain() map[uint][]entities.SensorReading {
	rc.mu.Lock()
	buffered := rc.readings
	rc.readings = make(map[uint][]ReadingPoint)
	rc.mu.Unlock()

	res := make(map[uint][]entities.SensorReading, len(buffered))
	for deviceID, points := range buffered {
		res[deviceID] = significant(points, rc.threshold)
	}
	return res
}

// Restore puts drained readings back ahead of anything buffered since the drain.
func (rc *ReadingsCache) Restore(readings []entities.SensorReading) {
	now := time.Now()
	back := make(map[uint][]ReadingPoint)
	for _, r := range readings {
		r.ID = 0
		back[r.DeviceID] = append(back[r.DeviceID], ReadingPoint{Reading: r, CachedAt: now})
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	for deviceID, points := range back {
		rc.readings[deviceID] = append(points, rc.readings[deviceID]...)
	}
}

// significant keeps readings whose value moved at least threshold away from the
// last kept reading of the same pin. The first and last reading of every pin are
// always kept.
func significant(points []ReadingPoint, threshold float64) []entities.SensorReading {
	lastKept := map[int]int{} // pin -> index in kept
	lastSeen := map[int]int{} // pin -> index in points
	var kept []entities.SensorReading

	for i, p := range points {
		pin := p.Reading.Pin
		lastSeen[pin] = i
		idx, ok := lastKept[pin]
		if ok && abs(p.Reading.Value-kept[idx].Value) < threshold {
			continue
		}
		kept = append(kept, p.Reading)
		lastKept[pin] = len(kept) - 1
	}

	// walk the buffer once more so trailing readings come out in arrival order
	for i, p := range points {
		pin := p.Reading.Pin
		if lastSeen[pin] == i && kept[lastKept[pin]] != p.Reading {
			kept = append(kept, p.Reading)
		}
	}
	return kept
}

// Len returns the number of buffered readings.
func (rc *ReadingsCache) Len() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	n := 0
	for _, points := range rc.readings {
		n += len(points)
	}
	return n
}

// Stats returns statistics about the current cache
func (rc *ReadingsCache) Stats() map[string]interface{} {
	rc.mu.RLock()
	defer rc.mu.RUnlock()

	total := 0
	for _, points := range rc.readings {
		total += len(points)
	}
	return map[string]interface{}{
		"total_devices":  len(rc.readings),
		"total_readings": total,
		"threshold":      rc.threshold,
	}
}

// DeviceReadings returns a copy of the buffered readings of one device.
func (rc *ReadingsCache) DeviceReadings(deviceID uint) []ReadingPoint {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	res := make([]ReadingPoint, len(rc.readings[deviceID]))
	copy(res, rc.readings[deviceID])
	return res
}

// Clear drops every buffered reading.
func (rc *ReadingsCache) Clear() {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.readings = make(map[uint][]ReadingPoint)
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
