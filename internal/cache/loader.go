// Package cache implements the get-or-fetch read policy used by every
// content read path.
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"content-sync-service/internal/domain"
	"content-sync-service/internal/metrics"
)

// FetchFunc produces the serialized value for a key on a cache miss.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Source describes where a loaded value came from.
type Source string

const (
	SourceHit   Source = "hit"   // served within TTL, fetch not invoked
	SourceMiss  Source = "miss"  // fetched and stored with a fresh expiry
	SourceStale Source = "stale" // fetch failed, previous value served
)

const freshSuffix = ":fresh"

// Loader layers the read policy on a cache store. Values are written
// twice: the payload under the plain key, retained up to maxStale
// (zero = until overwritten), and a freshness marker under key+":fresh"
// expiring with the TTL. A fetch failure therefore never evicts a
// still-useful previous value; it is served stale instead, and the
// error only propagates when nothing older exists.
type Loader struct {
	store    domain.Cache
	maxStale time.Duration
	logger   *zap.Logger
}

// NewLoader creates a Loader over the given store.
func NewLoader(store domain.Cache, maxStale time.Duration, logger *zap.Logger) *Loader {
	return &Loader{
		store:    store,
		maxStale: maxStale,
		logger:   logger,
	}
}

// GetOrFetch returns the value for key, fetching it when no fresh copy
// exists. ttl must be positive. Store errors degrade to a fetch rather
// than failing the read.
func (l *Loader) GetOrFetch(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) ([]byte, Source, error) {
	marker, err := l.store.Get(ctx, key+freshSuffix)
	if err == nil && marker != nil {
		value, err := l.store.Get(ctx, key)
		if err == nil && value != nil {
			metrics.CacheRequestsTotal.WithLabelValues(string(SourceHit)).Inc()

			return value, SourceHit, nil
		}
	}

	value, fetchErr := fetch(ctx)
	if fetchErr == nil {
		l.storeValue(ctx, key, value, ttl)
		metrics.CacheRequestsTotal.WithLabelValues(string(SourceMiss)).Inc()

		return value, SourceMiss, nil
	}

	stale, err := l.store.Get(ctx, key)
	if err == nil && stale != nil {
		l.logger.Warn("serving stale value after fetch failure",
			zap.String("key", key),
			zap.Error(fetchErr),
		)
		metrics.CacheRequestsTotal.WithLabelValues(string(SourceStale)).Inc()

		return stale, SourceStale, nil
	}

	metrics.CacheRequestsTotal.WithLabelValues("error").Inc()

	return nil, "", fetchErr
}

// Invalidate drops one key and its freshness marker.
func (l *Loader) Invalidate(ctx context.Context, key string) error {
	if err := l.store.Delete(ctx, key+freshSuffix); err != nil {
		return err
	}

	return l.store.Delete(ctx, key)
}

// InvalidatePrefix drops every key under prefix, markers included.
func (l *Loader) InvalidatePrefix(ctx context.Context, prefix string) error {
	return l.store.DeletePrefix(ctx, prefix)
}

// storeValue writes the payload first so a marker never outlives a
// missing value.
func (l *Loader) storeValue(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := l.store.Set(ctx, key, value, l.maxStale); err != nil {
		l.logger.Warn("cache store failed",
			zap.String("key", key),
			zap.Error(err),
		)

		return
	}
	if err := l.store.Set(ctx, key+freshSuffix, []byte("1"), ttl); err != nil {
		l.logger.Warn("cache marker store failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
