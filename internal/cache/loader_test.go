package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	rediscache "content-sync-service/internal/infra/redis"
)

const testKey = "content:instagram:limit=10"

func setupLoader(t *testing.T, maxStale time.Duration) (*Loader, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	t.Cleanup(func() { _ = client.Close() })

	store := rediscache.NewCache(client, zap.NewNop(), "testcache")

	return NewLoader(store, maxStale, zap.NewNop()), mr
}

// countingFetch returns a FetchFunc that serves value and counts calls.
func countingFetch(value []byte, calls *int) FetchFunc {
	return func(ctx context.Context) ([]byte, error) {
		*calls++
		return value, nil
	}
}

func TestLoader_FreshHitSkipsFetch(t *testing.T) {
	loader, _ := setupLoader(t, 0)
	ctx := context.Background()

	calls := 0
	fetch := countingFetch([]byte(`["a"]`), &calls)

	value, source, err := loader.GetOrFetch(ctx, testKey, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, SourceMiss, source)
	assert.Equal(t, []byte(`["a"]`), value)
	assert.Equal(t, 1, calls)

	// Within the TTL the fetch must not run again.
	value, source, err = loader.GetOrFetch(ctx, testKey, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, SourceHit, source)
	assert.Equal(t, []byte(`["a"]`), value)
	assert.Equal(t, 1, calls)
}

func TestLoader_ExpiredEntryRefetches(t *testing.T) {
	loader, mr := setupLoader(t, 0)
	ctx := context.Background()

	calls := 0
	fetch := countingFetch([]byte(`["a"]`), &calls)

	_, _, err := loader.GetOrFetch(ctx, testKey, time.Minute, fetch)
	require.NoError(t, err)

	mr.FastForward(time.Minute + time.Second)

	_, source, err := loader.GetOrFetch(ctx, testKey, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, SourceMiss, source)
	assert.Equal(t, 2, calls)
}

func TestLoader_ServesStaleOnFetchFailure(t *testing.T) {
	loader, mr := setupLoader(t, 0)
	ctx := context.Background()

	calls := 0
	_, _, err := loader.GetOrFetch(ctx, testKey, time.Minute, countingFetch([]byte(`["a"]`), &calls))
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	failing := func(ctx context.Context) ([]byte, error) {
		return nil, errors.New("provider down")
	}

	// The expired value is served instead of the error.
	value, source, err := loader.GetOrFetch(ctx, testKey, time.Minute, failing)
	require.NoError(t, err)
	assert.Equal(t, SourceStale, source)
	assert.Equal(t, []byte(`["a"]`), value)

	// And the failure must not have evicted it.
	value, source, err = loader.GetOrFetch(ctx, testKey, time.Minute, failing)
	require.NoError(t, err)
	assert.Equal(t, SourceStale, source)
	assert.Equal(t, []byte(`["a"]`), value)
}

func TestLoader_PropagatesErrorWithoutPreviousValue(t *testing.T) {
	loader, _ := setupLoader(t, 0)

	wantErr := errors.New("provider down")
	value, _, err := loader.GetOrFetch(context.Background(), testKey, time.Minute, func(ctx context.Context) ([]byte, error) {
		return nil, wantErr
	})
	assert.Nil(t, value)
	assert.ErrorIs(t, err, wantErr)
}

func TestLoader_SuccessfulFetchRestoresFreshness(t *testing.T) {
	loader, mr := setupLoader(t, 0)
	ctx := context.Background()

	calls := 0
	_, _, err := loader.GetOrFetch(ctx, testKey, time.Minute, countingFetch([]byte(`["a"]`), &calls))
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, source, err := loader.GetOrFetch(ctx, testKey, time.Minute, countingFetch([]byte(`["b"]`), &calls))
	require.NoError(t, err)
	assert.Equal(t, SourceMiss, source)

	// The refreshed value serves as a hit again.
	value, source, err := loader.GetOrFetch(ctx, testKey, time.Minute, countingFetch([]byte(`["c"]`), &calls))
	require.NoError(t, err)
	assert.Equal(t, SourceHit, source)
	assert.Equal(t, []byte(`["b"]`), value)
	assert.Equal(t, 2, calls)
}

func TestLoader_MaxStaleBoundsRetention(t *testing.T) {
	loader, mr := setupLoader(t, 5*time.Minute)
	ctx := context.Background()

	calls := 0
	_, _, err := loader.GetOrFetch(ctx, testKey, time.Minute, countingFetch([]byte(`["a"]`), &calls))
	require.NoError(t, err)

	// Past the retention bound nothing is left to serve stale.
	mr.FastForward(6 * time.Minute)

	wantErr := errors.New("provider down")
	_, _, err = loader.GetOrFetch(ctx, testKey, time.Minute, func(ctx context.Context) ([]byte, error) {
		return nil, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}

func TestLoader_Invalidate(t *testing.T) {
	loader, _ := setupLoader(t, 0)
	ctx := context.Background()

	calls := 0
	fetch := countingFetch([]byte(`["a"]`), &calls)

	_, _, err := loader.GetOrFetch(ctx, testKey, time.Minute, fetch)
	require.NoError(t, err)

	require.NoError(t, loader.Invalidate(ctx, testKey))

	_, source, err := loader.GetOrFetch(ctx, testKey, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, SourceMiss, source)
	assert.Equal(t, 2, calls)
}

func TestLoader_InvalidatePrefix(t *testing.T) {
	loader, _ := setupLoader(t, 0)
	ctx := context.Background()

	calls := 0
	_, _, err := loader.GetOrFetch(ctx, "content:instagram:limit=10", time.Minute, countingFetch([]byte(`["a"]`), &calls))
	require.NoError(t, err)
	_, _, err = loader.GetOrFetch(ctx, "content:facebook:limit=10", time.Minute, countingFetch([]byte(`["b"]`), &calls))
	require.NoError(t, err)

	require.NoError(t, loader.InvalidatePrefix(ctx, "content:instagram:"))

	// Only the matching prefix was dropped.
	_, source, err := loader.GetOrFetch(ctx, "content:instagram:limit=10", time.Minute, countingFetch([]byte(`["a"]`), &calls))
	require.NoError(t, err)
	assert.Equal(t, SourceMiss, source)

	_, source, err = loader.GetOrFetch(ctx, "content:facebook:limit=10", time.Minute, countingFetch([]byte(`["b"]`), &calls))
	require.NoError(t, err)
	assert.Equal(t, SourceHit, source)
}
