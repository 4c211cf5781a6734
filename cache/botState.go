package cache

import (
	"sync"
	"time"

	"farmbot-server/fbos"
)

// BotState is the last status a device reported over its websocket.
type BotState struct {
	ControllerVersion string                      `json:"controller_version"`
	Commit            string                      `json:"commit"`
	CurrentlyOnBeta   bool                        `json:"currently_on_beta"`
	Jobs              map[string]fbos.JobProgress `json:"jobs"`
	ReportedAt        time.Time                   `json:"reported_at"`
}

// BotStateCache holds the latest BotState per device.
type BotStateCache struct {
	mu     sync.RWMutex
	states map[uint]BotState
}

func NewBotStateCache() *BotStateCache {
	return &BotStateCache{states: make(map[uint]BotState)}
}

func (bc *BotStateCache) Set(deviceID uint, state BotState) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if state.ReportedAt.IsZero() {
		state.ReportedAt = time.Now()
	}
	bc.states[deviceID] = state
}

// Get returns a copy of the device state; jobs map is copied too.
func (bc *BotStateCache) Get(deviceID uint) (BotState, bool) {
	bc.mu.RLock()
	defer bc.mu.RUnlock()
	st, ok := bc.states[deviceID]
	if !ok {
		return BotState{}, false
	}
	jobs := make(map[string]fbos.JobProgress, len(st.Jobs))
	for k, v := range st.Jobs {
		jobs[k] = v
	}
	st.Jobs = jobs
	return st, true
}

func (bc *BotStateCache) Delete(deviceID uint) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	delete(bc.states, deviceID)
}
