package domain

import (
	"context"
	"time"
)

// ItemRepository defines the interface for item persistence operations.
// Implementations: internal/infra/postgres/repository.go
type ItemRepository interface {
	// List finds items matching the given filter parameters.
	List(ctx context.Context, params ListParams) (*ListResult, error)

	// GetByID retrieves a single item by its internal ID.
	// Returns ErrNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*Item, error)

	// ListActive returns the active items of one provider, newest first,
	// capped at limit (0 = no cap). This is the page-render fallback.
	ListActive(ctx context.Context, providerID string, limit int) ([]*Item, error)

	// ListByProvider returns every row of one provider, including
	// soft-deleted ones. Reconciliation diffs against this set.
	ListByProvider(ctx context.Context, providerID string) ([]*Item, error)

	// ApplyPlan executes a reconcile plan in a single transaction.
	// With hardDelete, rows planned for deactivation are removed instead.
	// Either every mutation commits or none does.
	ApplyPlan(ctx context.Context, plan ReconcilePlan, hardDelete bool) error

	// Count returns the total number of items matching optional filters.
	Count(ctx context.Context, params ListParams) (int64, error)

	// CountByProvider returns active item counts grouped by provider.
	CountByProvider(ctx context.Context) (map[string]int64, error)

	// RecordSyncRun persists the stats of one sync execution.
	RecordSyncRun(ctx context.Context, run *SyncRun) error

	// ListSyncRuns returns recent sync runs, newest first.
	// providerID filters when non-empty.
	ListSyncRuns(ctx context.Context, providerID string, limit int) ([]*SyncRun, error)
}

// FetchOptions bounds one provider fetch.
type FetchOptions struct {
	// Limit caps the number of records requested (0 = provider default).
	Limit int
}

// FetchResult is the normalized outcome of one provider fetch.
type FetchResult struct {
	Items []*Item
	// Skipped counts records dropped by per-item validation.
	Skipped int
}

// Provider defines the interface for external content providers.
// Implementations: internal/infra/provider/instagram, facebook, googlebusiness
type Provider interface {
	// Name returns the unique identifier for this provider.
	Name() string

	// Fetch retrieves the provider's current content snapshot.
	// The implementation handles pagination internally; records that
	// fail normalization are skipped and counted, never fatal.
	Fetch(ctx context.Context, opts FetchOptions) (*FetchResult, error)

	// HealthCheck verifies the provider is accessible.
	HealthCheck(ctx context.Context) error
}

// Cache defines the interface for caching operations.
// Implementations: internal/infra/redis/cache.go
type Cache interface {
	// Get retrieves a value by key. Returns nil if not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value with the given TTL. A zero TTL stores the
	// value without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value by key.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all values whose key starts with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// Clear removes all cached values.
	Clear(ctx context.Context) error
}

// ChangeAction labels a published item change.
type ChangeAction string

const (
	ChangeCreated     ChangeAction = "created"
	ChangeUpdated     ChangeAction = "updated"
	ChangeDeactivated ChangeAction = "deactivated"
	ChangeDeleted     ChangeAction = "deleted"
)

// Publisher emits item change events after a sync writes rows.
// Implementations: internal/publisher/rabbitmq.go
type Publisher interface {
	// PublishChange emits one change event.
	PublishChange(ctx context.Context, item *Item, action ChangeAction) error

	// Close releases the underlying connection.
	Close() error
}
