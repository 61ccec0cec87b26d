package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestStore(t *testing.T) *RedisStore {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRedisStore(client)
}

func TestRedisStore_Allow(t *testing.T) {
	store := newRedisTestStore(t)
	ctx := context.Background()

	t.Run("admits up to the limit and rejects the next call", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			decision, err := store.Allow(ctx, "user:1", 10*time.Second, 10)
			require.NoError(t, err)
			assert.True(t, decision.Allowed, "call %d should be admitted", i+1)
			assert.Equal(t, 10-i-1, decision.Remaining)
		}

		decision, err := store.Allow(ctx, "user:1", 10*time.Second, 10)
		require.NoError(t, err)
		assert.False(t, decision.Allowed)
		assert.Equal(t, 0, decision.Remaining)
	})

	t.Run("keys are counted independently", func(t *testing.T) {
		decision, err := store.Allow(ctx, "user:2", 10*time.Second, 10)
		require.NoError(t, err)
		assert.True(t, decision.Allowed)
	})

	t.Run("rejection reports when the oldest entry ages out", func(t *testing.T) {
		start := time.Now()

		for i := 0; i < 3; i++ {
			_, err := store.Allow(ctx, "user:3", 10*time.Second, 3)
			require.NoError(t, err)
		}

		decision, err := store.Allow(ctx, "user:3", 10*time.Second, 3)
		require.NoError(t, err)
		require.False(t, decision.Allowed)
		assert.WithinDuration(t, start.Add(10*time.Second), decision.ResetAt, time.Second)
	})
}

func TestRedisStore_WindowElapses(t *testing.T) {
	store := newRedisTestStore(t)
	ctx := context.Background()
	window := 100 * time.Millisecond

	for i := 0; i < 2; i++ {
		decision, err := store.Allow(ctx, "user:1", window, 2)
		require.NoError(t, err)
		require.True(t, decision.Allowed)
	}

	decision, err := store.Allow(ctx, "user:1", window, 2)
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	time.Sleep(window + 20*time.Millisecond)

	decision, err = store.Allow(ctx, "user:1", window, 2)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestRedisStore_RejectionsNotRecorded(t *testing.T) {
	store := newRedisTestStore(t)
	ctx := context.Background()
	window := 300 * time.Millisecond

	decision, err := store.Allow(ctx, "user:1", window, 1)
	require.NoError(t, err)
	require.True(t, decision.Allowed)

	time.Sleep(200 * time.Millisecond)

	decision, err = store.Allow(ctx, "user:1", window, 1)
	require.NoError(t, err)
	require.False(t, decision.Allowed)

	// The admitted entry has aged out by now. The rejection above must
	// not have consumed the freed slot.
	time.Sleep(200 * time.Millisecond)

	decision, err = store.Allow(ctx, "user:1", window, 1)
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestRedisStore_Concurrent(t *testing.T) {
	store := newRedisTestStore(t)
	ctx := context.Background()

	const callers = 50
	const max = 10

	var wg sync.WaitGroup
	results := make(chan bool, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			decision, err := store.Allow(ctx, "user:1", 10*time.Second, max)
			require.NoError(t, err)
			results <- decision.Allowed
		}()
	}

	wg.Wait()
	close(results)

	admitted := 0
	for allowed := range results {
		if allowed {
			admitted++
		}
	}

	assert.Equal(t, max, admitted)
}
