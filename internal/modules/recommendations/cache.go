package recommendations

import (
	"sync"
	"time"

	"github.com/Meza27/cryptoadvisor/internal/domain"
)

// batchCache holds the last analyzed batch of coins. The whole batch is
// replaced atomically, there is no per-entry eviction.
type batchCache struct {
	mu       sync.Mutex
	entries  []domain.Analysis
	storedAt time.Time
	ttl      time.Duration
	now      func() time.Time
}

func newBatchCache(ttl time.Duration, now func() time.Time) *batchCache {
	if now == nil {
		now = time.Now
	}
	return &batchCache{ttl: ttl, now: now}
}

// Get returns the cached batch if it is still fresh. An entry whose age
// equals the TTL exactly is already expired. An empty batch is a miss.
func (c *batchCache) Get() ([]domain.Analysis, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) == 0 {
		return nil, false
	}
	if c.now().Sub(c.storedAt) >= c.ttl {
		return nil, false
	}

	out := make([]domain.Analysis, len(c.entries))
	copy(out, c.entries)
	return out, true
}

// Replace swaps in a new batch and resets the expiry clock.
func (c *batchCache) Replace(entries []domain.Analysis) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make([]domain.Analysis, len(entries))
	copy(c.entries, entries)
	c.storedAt = c.now()
}
