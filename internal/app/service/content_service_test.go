package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"content-sync-service/internal/cache"
	"content-sync-service/internal/domain"
	rediscache "content-sync-service/internal/infra/redis"
)

type contentFixture struct {
	svc  *ContentService
	repo *memRepo
	mr   *miniredis.Miniredis
}

func newContentFixture(t *testing.T, providers ...domain.Provider) *contentFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := rediscache.NewCache(client, zap.NewNop(), "testcache")
	loader := cache.NewLoader(store, 0, zap.NewNop())
	repo := newMemRepo()

	ttls := map[string]time.Duration{"instagram": time.Minute}
	svc := NewContentService(repo, providers, loader, ttls, 30*time.Second, zap.NewNop())

	return &contentFixture{svc: svc, repo: repo, mr: mr}
}

func TestGetProviderContent_CachesFetch(t *testing.T) {
	provider := &fakeProvider{name: "instagram", items: []*domain.Item{
		displayItem("instagram", "A", "Post A"),
	}}
	f := newContentFixture(t, provider)
	ctx := context.Background()

	items, source, err := f.svc.GetProviderContent(ctx, "instagram", 10)
	require.NoError(t, err)
	assert.Equal(t, "miss", source)
	require.Len(t, items, 1)
	assert.Equal(t, "Post A", items[0].Title)

	// Second read is served from cache without touching the provider.
	items, source, err = f.svc.GetProviderContent(ctx, "instagram", 10)
	require.NoError(t, err)
	assert.Equal(t, "hit", source)
	require.Len(t, items, 1)
	assert.Equal(t, 1, provider.fetchCount())
}

func TestGetProviderContent_ServesStaleOnFetchFailure(t *testing.T) {
	provider := &fakeProvider{name: "instagram", items: []*domain.Item{
		displayItem("instagram", "A", "Post A"),
	}}
	f := newContentFixture(t, provider)
	ctx := context.Background()

	_, _, err := f.svc.GetProviderContent(ctx, "instagram", 10)
	require.NoError(t, err)

	f.mr.FastForward(2 * time.Minute)
	provider.err = domain.NewFetchError("instagram", domain.FetchTransient, 503, nil)

	items, source, err := f.svc.GetProviderContent(ctx, "instagram", 10)
	require.NoError(t, err, "an expired value still beats an error")
	assert.Equal(t, "stale", source)
	require.Len(t, items, 1)
	assert.Equal(t, "Post A", items[0].Title)
}

func TestGetProviderContent_FallsBackToDatabase(t *testing.T) {
	provider := &fakeProvider{
		name: "instagram",
		err:  domain.NewFetchError("instagram", domain.FetchTimeout, 0, nil),
	}
	f := newContentFixture(t, provider)

	f.repo.seed(displayItem("instagram", "A", "Synced row"))

	items, source, err := f.svc.GetProviderContent(context.Background(), "instagram", 10)
	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, source)
	require.Len(t, items, 1)
	assert.Equal(t, "Synced row", items[0].Title)
}

func TestGetProviderContent_PropagatesWhenEveryRungIsEmpty(t *testing.T) {
	fetchErr := domain.NewFetchError("instagram", domain.FetchAuth, 401, nil)
	provider := &fakeProvider{name: "instagram", err: fetchErr}
	f := newContentFixture(t, provider)

	items, _, err := f.svc.GetProviderContent(context.Background(), "instagram", 10)
	assert.Nil(t, items)

	var got *domain.FetchError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, domain.FetchAuth, got.Kind)
}

func TestGetProviderContent_UnknownProvider(t *testing.T) {
	f := newContentFixture(t, &fakeProvider{name: "instagram"})

	_, _, err := f.svc.GetProviderContent(context.Background(), "tiktok", 10)
	assert.ErrorIs(t, err, domain.ErrUnknownProvider)
}

func TestList_CachesDatabaseQuery(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	f.repo.seed(
		displayItem("instagram", "A", "Post A"),
		displayItem("facebook", "B", "Post B"),
	)

	result, err := f.svc.List(ctx, domain.DefaultListParams())
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Total)

	_, err = f.svc.List(ctx, domain.DefaultListParams())
	require.NoError(t, err)
	assert.Equal(t, 1, f.repo.listCalls, "second read must come from cache")
}

func TestList_DistinctParamsDistinctKeys(t *testing.T) {
	f := newContentFixture(t)
	ctx := context.Background()

	f.repo.seed(
		displayItem("instagram", "A", "Post A"),
		displayItem("facebook", "B", "Post B"),
	)

	all, err := f.svc.List(ctx, domain.DefaultListParams())
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)

	params := domain.DefaultListParams()
	params.ProviderID = "facebook"
	scoped, err := f.svc.List(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, int64(1), scoped.Total, "a filtered query must not reuse the unfiltered payload")
}

func TestGetByID(t *testing.T) {
	f := newContentFixture(t)

	seeded := displayItem("instagram", "A", "Post A")
	f.repo.seed(seeded)

	item, err := f.svc.GetByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "Post A", item.Title)

	_, err = f.svc.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
