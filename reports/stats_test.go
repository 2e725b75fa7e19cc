package reports

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingLoader(stats DashboardStats) (Loader, *int) {
	calls := 0
	return func(ctx context.Context, userID uint) (DashboardStats, error) {
		calls++
		return stats, nil
	}, &calls
}

func TestStatsCacheReadThrough(t *testing.T) {
	cache := NewStatsCache()
	ctx := context.Background()

	load, calls := countingLoader(DashboardStats{Total: 3, Pending: 2, Approved: 1})

	for i := 0; i < 5; i++ {
		stats, err := cache.Get(ctx, 1, load)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stats.Total)
	}
	assert.Equal(t, 1, *calls)
}

func TestStatsCachePerUser(t *testing.T) {
	cache := NewStatsCache()
	ctx := context.Background()

	loadOne, callsOne := countingLoader(DashboardStats{Total: 1})
	loadTwo, callsTwo := countingLoader(DashboardStats{Total: 2})

	one, err := cache.Get(ctx, 1, loadOne)
	require.NoError(t, err)
	two, err := cache.Get(ctx, 2, loadTwo)
	require.NoError(t, err)

	assert.Equal(t, int64(1), one.Total)
	assert.Equal(t, int64(2), two.Total)
	assert.Equal(t, 1, *callsOne)
	assert.Equal(t, 1, *callsTwo)
}

func TestStatsCacheInvalidate(t *testing.T) {
	cache := NewStatsCache()
	ctx := context.Background()

	load, calls := countingLoader(DashboardStats{Total: 3})

	_, err := cache.Get(ctx, 1, load)
	require.NoError(t, err)
	assert.Equal(t, 1, *calls)

	cache.Invalidate()

	_, err = cache.Get(ctx, 1, load)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls, "invalidation must force a reload")

	_, err = cache.Get(ctx, 1, load)
	require.NoError(t, err)
	assert.Equal(t, 2, *calls, "reloaded entry is cached again")
}

func TestStatsCacheLoaderError(t *testing.T) {
	cache := NewStatsCache()
	ctx := context.Background()

	boom := errors.New("database down")
	calls := 0
	failing := func(ctx context.Context, userID uint) (DashboardStats, error) {
		calls++
		return DashboardStats{}, boom
	}

	_, err := cache.Get(ctx, 1, failing)
	assert.ErrorIs(t, err, boom)

	// Errors are not cached.
	_, err = cache.Get(ctx, 1, failing)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestStatsCacheConcurrentAccess(t *testing.T) {
	cache := NewStatsCache()
	ctx := context.Background()

	load := func(ctx context.Context, userID uint) (DashboardStats, error) {
		return DashboardStats{Total: int64(userID)}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				cache.Invalidate()
			}
			stats, err := cache.Get(ctx, uint(i%4+1), load)
			assert.NoError(t, err)
			assert.Equal(t, int64(i%4+1), stats.Total)
		}(i)
	}
	wg.Wait()
}
