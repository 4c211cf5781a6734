package client

import (
	"time"

	cache "github.com/go-pkgz/expirable-cache/v3"
)

// Tracker is told about every request id sent with a mutation.
type Tracker interface {
	MaybeStartTracking(uuid string)
}

// ConsistencyTracker remembers outstanding request ids until their auto-sync
// arrives or the ttl passes. The client is consistent when none are left.
type ConsistencyTracker struct {
	outstanding cache.Cache[string, string]
}

func NewConsistencyTracker(ttl time.Duration) *ConsistencyTracker {
	return &ConsistencyTracker{outstanding: cache.NewCache[string, string]().WithTTL(ttl)}
}

func (ct *ConsistencyTracker) MaybeStartTracking(uuid string) {
	if uuid == "" {
		return
	}
	ct.outstanding.Set(uuid, uuid, 0)
}

func (ct *ConsistencyTracker) StopTracking(uuid string) {
	ct.outstanding.Invalidate(uuid)
}

// Outstanding lists unexpired ids, oldest first.
func (ct *ConsistencyTracker) Outstanding() []string {
	return ct.outstanding.Values()
}

func (ct *ConsistencyTracker) Consistent() bool {
	ct.outstanding.DeleteExpired()
	return ct.outstanding.Len() == 0
}
