package reports

import (
	"context"
	"sync"
	"sync/atomic"
)

// DashboardStats are the per-user claim counts shown on the dashboard.
// Pending folds in coordinator-approved claims: from the lecturer's side
// both are still in flight.
type DashboardStats struct {
	Total               int64 `json:"total"`
	Pending             int64 `json:"pending"`
	CoordinatorApproved int64 `json:"coordinator_approved"`
	Approved            int64 `json:"approved"`
	Rejected            int64 `json:"rejected"`
}

// Loader computes fresh stats for a user, normally with a few count
// queries.
type Loader func(ctx context.Context, userID uint) (DashboardStats, error)

type cacheKey struct {
	userID  uint
	version uint64
}

// StatsCache is a read-through cache of dashboard stats keyed by a
// version counter. Any successful claim transition bumps the version,
// which orphans every cached entry at once; stale entries are dropped
// lazily on the next read.
type StatsCache struct {
	version atomic.Uint64

	mu      sync.RWMutex
	entries map[cacheKey]DashboardStats
}

func NewStatsCache() *StatsCache {
	return &StatsCache{entries: make(map[cacheKey]DashboardStats)}
}

// Invalidate marks every cached entry stale.
func (c *StatsCache) Invalidate() {
	c.version.Add(1)
}

func (c *StatsCache) Get(ctx context.Context, userID uint, load Loader) (DashboardStats, error) {
	key := cacheKey{userID: userID, version: c.version.Load()}

	c.mu.RLock()
	stats, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return stats, nil
	}

	stats, err := load(ctx, userID)
	if err != nil {
		return DashboardStats{}, err
	}

	c.mu.Lock()
	for k := range c.entries {
		if k.version != key.version {
			delete(c.entries, k)
		}
	}
	c.entries[key] = stats
	c.mu.Unlock()

	return stats, nil
}
