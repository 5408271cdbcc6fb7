package discovery

import (
	"sort"
	"sync"
	"time"

	"github.com/scoutdash/scout/internal/domain"
)

// batchCache holds the most recent discovery batch for the TTL window, so
// read endpoints between capture runs skip the repository query. State lives
// on the long-lived capture service, not in a package global.
type batchCache struct {
	mu    sync.Mutex
	batch []domain.Discovery
	setAt time.Time
	ttl   time.Duration
}

func newBatchCache(ttl time.Duration) *batchCache {
	return &batchCache{ttl: ttl}
}

// Get returns the cached batch and true while the TTL has not expired.
func (c *batchCache) Get() ([]domain.Discovery, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.batch == nil || time.Since(c.setAt) > c.ttl {
		return nil, false
	}

	out := make([]domain.Discovery, len(c.batch))
	copy(out, c.batch)
	return out, true
}

// Set replaces the cached batch and restarts the TTL. The batch is stored
// ranked the same way repository reads are ordered, score descending with
// newer entries first on ties, so cache hits and repository hits return the
// same ordering.
func (c *batchCache) Set(batch []domain.Discovery) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.batch = make([]domain.Discovery, len(batch))
	copy(c.batch, batch)
	sort.SliceStable(c.batch, func(i, j int) bool {
		if c.batch[i].Score != c.batch[j].Score {
			return c.batch[i].Score > c.batch[j].Score
		}
		return c.batch[i].AsOf.After(c.batch[j].AsOf)
	})
	c.setAt = time.Now()
}

// Invalidate clears the cache.
func (c *batchCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.batch = nil
}
