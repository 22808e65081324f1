// Package service provides application use cases.
package service

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"content-sync-service/internal/cache"
	"content-sync-service/internal/domain"
)

// SourceDatabase marks a read served from the last synced rows after
// both the cache and the live fetch came up empty.
const SourceDatabase = "database"

// ContentService serves content reads. Every read goes through the
// cache loader; provider reads additionally fall back to the database
// when a fetch fails and nothing stale is cached.
type ContentService struct {
	repo       domain.ItemRepository
	providers  map[string]domain.Provider
	loader     *cache.Loader
	ttls       map[string]time.Duration
	defaultTTL time.Duration
	logger     *zap.Logger
}

// NewContentService creates a new ContentService. ttls holds the
// per-provider serving TTL; defaultTTL applies to aggregate listings
// and to providers without an explicit TTL.
func NewContentService(
	repo domain.ItemRepository,
	providers []domain.Provider,
	loader *cache.Loader,
	ttls map[string]time.Duration,
	defaultTTL time.Duration,
	logger *zap.Logger,
) *ContentService {
	byName := make(map[string]domain.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}

	return &ContentService{
		repo:       repo,
		providers:  byName,
		loader:     loader,
		ttls:       ttls,
		defaultTTL: defaultTTL,
		logger:     logger,
	}
}

// GetProviderContent returns one provider's current items, cached. The
// read ladder is: fresh cache value, live fetch, stale cache value,
// last synced database rows. The fetch error only surfaces when every
// rung is empty. The returned source is one of hit, miss, stale or
// database.
func (s *ContentService) GetProviderContent(ctx context.Context, providerID string, limit int) ([]*domain.Item, string, error) {
	provider, ok := s.providers[providerID]
	if !ok {
		return nil, "", domain.ErrUnknownProvider
	}

	key := cache.ProviderContentKey(providerID, limit)
	payload, source, err := s.loader.GetOrFetch(ctx, key, s.ttl(providerID), func(ctx context.Context) ([]byte, error) {
		result, fetchErr := provider.Fetch(ctx, domain.FetchOptions{Limit: limit})
		if fetchErr != nil {
			return nil, fetchErr
		}

		return json.Marshal(result.Items)
	})
	if err != nil {
		items, dbErr := s.repo.ListActive(ctx, providerID, limit)
		if dbErr != nil || len(items) == 0 {
			return nil, "", err
		}

		s.logger.Warn("serving last synced rows after fetch failure",
			zap.String("provider", providerID),
			zap.Error(err),
		)

		return items, SourceDatabase, nil
	}

	var items []*domain.Item
	if err := json.Unmarshal(payload, &items); err != nil {
		return nil, "", fmt.Errorf("decoding cached items: %w", err)
	}

	return items, string(source), nil
}

// List returns the aggregate item listing from the database, cached.
// A failing database query is covered by the loader's stale value.
func (s *ContentService) List(ctx context.Context, params domain.ListParams) (*domain.ListResult, error) {
	params.Validate()

	s.logger.Debug("listing items",
		zap.String("provider", params.ProviderID),
		zap.String("kind", string(params.Kind)),
		zap.Int("page", params.Page),
		zap.Int("page_size", params.PageSize),
	)

	key := cache.ListingKey(params)
	payload, _, err := s.loader.GetOrFetch(ctx, key, s.defaultTTL, func(ctx context.Context) ([]byte, error) {
		result, listErr := s.repo.List(ctx, params)
		if listErr != nil {
			return nil, listErr
		}

		return json.Marshal(result)
	})
	if err != nil {
		s.logger.Error("listing failed", zap.Error(err))
		return nil, err
	}

	var result domain.ListResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return nil, fmt.Errorf("decoding cached listing: %w", err)
	}

	return &result, nil
}

// GetByID retrieves a single item by its internal ID.
func (s *ContentService) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return item, nil
}

// Count returns the total number of active items.
func (s *ContentService) Count(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx, domain.ListParams{})
}

// CountByProvider returns active item counts grouped by provider.
func (s *ContentService) CountByProvider(ctx context.Context) (map[string]int64, error) {
	return s.repo.CountByProvider(ctx)
}

func (s *ContentService) ttl(providerID string) time.Duration {
	if ttl, ok := s.ttls[providerID]; ok && ttl > 0 {
		return ttl
	}

	return s.defaultTTL
}
