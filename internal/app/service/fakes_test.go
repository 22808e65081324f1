package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"content-sync-service/internal/domain"
)

// memRepo is an in-memory domain.ItemRepository. It applies reconcile
// plans to a row map the way the real repository does, which keeps
// idempotency tests honest.
type memRepo struct {
	mu        sync.Mutex
	rows      map[string]*domain.Item // providerID + "/" + externalID
	runs      []*domain.SyncRun
	applied   []appliedPlan
	nextID    int
	listCalls int
	listErr   error
	applyErr  error
}

type appliedPlan struct {
	plan       domain.ReconcilePlan
	hardDelete bool
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[string]*domain.Item)}
}

func rowKey(providerID, externalID string) string {
	return providerID + "/" + externalID
}

func (r *memRepo) seed(items ...*domain.Item) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, it := range items {
		if it.ID == "" {
			r.nextID++
			it.ID = fmt.Sprintf("row-%d", r.nextID)
		}
		r.rows[rowKey(it.ProviderID, it.ExternalID)] = it
	}
}

func (r *memRepo) row(providerID, externalID string) *domain.Item {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.rows[rowKey(providerID, externalID)]
}

func (r *memRepo) List(ctx context.Context, params domain.ListParams) (*domain.ListResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.listCalls++
	if r.listErr != nil {
		return nil, r.listErr
	}

	params.Validate()
	items := []*domain.Item{}
	for _, it := range r.rows {
		if !params.IncludeInactive && !it.Active {
			continue
		}
		if params.ProviderID != "" && it.ProviderID != params.ProviderID {
			continue
		}
		if params.Kind != "" && it.Kind != params.Kind {
			continue
		}
		items = append(items, it)
	}

	return domain.NewListResult(items, int64(len(items)), params), nil
}

func (r *memRepo) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, it := range r.rows {
		if it.ID == id {
			return it, nil
		}
	}

	return nil, domain.ErrNotFound
}

func (r *memRepo) ListActive(ctx context.Context, providerID string, limit int) ([]*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := []*domain.Item{}
	for _, it := range r.rows {
		if it.ProviderID != providerID || !it.Active {
			continue
		}
		items = append(items, it)
		if limit > 0 && len(items) == limit {
			break
		}
	}

	return items, nil
}

func (r *memRepo) ListByProvider(ctx context.Context, providerID string) ([]*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}

	items := []*domain.Item{}
	for _, it := range r.rows {
		if it.ProviderID == providerID {
			items = append(items, it)
		}
	}

	return items, nil
}

func (r *memRepo) ApplyPlan(ctx context.Context, plan domain.ReconcilePlan, hardDelete bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.applyErr != nil {
		return r.applyErr
	}

	r.applied = append(r.applied, appliedPlan{plan: plan, hardDelete: hardDelete})

	for _, it := range plan.Create {
		r.nextID++
		stored := *it
		stored.ID = fmt.Sprintf("row-%d", r.nextID)
		r.rows[rowKey(it.ProviderID, it.ExternalID)] = &stored
	}
	for _, it := range plan.Update {
		stored := *it
		r.rows[rowKey(it.ProviderID, it.ExternalID)] = &stored
	}
	for _, it := range plan.Deactivate {
		k := rowKey(it.ProviderID, it.ExternalID)
		if hardDelete {
			delete(r.rows, k)
			continue
		}
		if row, ok := r.rows[k]; ok {
			row.Active = false
		}
	}

	return nil
}

func (r *memRepo) Count(ctx context.Context, params domain.ListParams) (int64, error) {
	result, err := r.List(ctx, params)
	if err != nil {
		return 0, err
	}

	return result.Total, nil
}

func (r *memRepo) CountByProvider(ctx context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[string]int64)
	for _, it := range r.rows {
		if it.Active {
			counts[it.ProviderID]++
		}
	}

	return counts, nil
}

func (r *memRepo) RecordSyncRun(ctx context.Context, run *domain.SyncRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	run.ID = fmt.Sprintf("run-%d", r.nextID)
	r.runs = append(r.runs, run)

	return nil
}

func (r *memRepo) ListSyncRuns(ctx context.Context, providerID string, limit int) ([]*domain.SyncRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	runs := []*domain.SyncRun{}
	for i := len(r.runs) - 1; i >= 0; i-- {
		run := r.runs[i]
		if providerID != "" && run.ProviderID != providerID {
			continue
		}
		runs = append(runs, run)
		if limit > 0 && len(runs) == limit {
			break
		}
	}

	return runs, nil
}

func (r *memRepo) recordedRuns() []*domain.SyncRun {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]*domain.SyncRun{}, r.runs...)
}

func (r *memRepo) appliedPlans() []appliedPlan {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]appliedPlan{}, r.applied...)
}

// fakeProvider serves a fixed snapshot or a fixed error. Fetch hands
// out copies so a sync mutating items never contaminates later fetches.
type fakeProvider struct {
	mu       sync.Mutex
	name     string
	items    []*domain.Item
	skipped  int
	err      error
	fetches  int
	lastOpts domain.FetchOptions
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Fetch(ctx context.Context, opts domain.FetchOptions) (*domain.FetchResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.fetches++
	p.lastOpts = opts

	if p.err != nil {
		return nil, p.err
	}

	items := make([]*domain.Item, len(p.items))
	for i, it := range p.items {
		copied := *it
		copied.Tags = append([]string{}, it.Tags...)
		items[i] = &copied
	}

	return &domain.FetchResult{Items: items, Skipped: p.skipped}, nil
}

func (p *fakeProvider) HealthCheck(ctx context.Context) error { return p.err }

func (p *fakeProvider) fetchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.fetches
}

type publishedChange struct {
	externalID string
	action     domain.ChangeAction
}

type fakePublisher struct {
	mu      sync.Mutex
	changes []publishedChange
}

func (p *fakePublisher) PublishChange(ctx context.Context, item *domain.Item, action domain.ChangeAction) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.changes = append(p.changes, publishedChange{externalID: item.ExternalID, action: action})

	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) published() []publishedChange {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]publishedChange{}, p.changes...)
}

// fakeLocker is an in-process DistributedLocker.
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held[key] {
		return false, nil
	}
	l.held[key] = true

	return true, nil
}

func (l *fakeLocker) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.held, key)

	return nil
}

// displayItem builds an item with deterministic display fields, so a
// local copy and a remote copy built from the same arguments compare
// display-equal.
func displayItem(providerID, externalID, title string) *domain.Item {
	it := domain.NewItem(providerID, externalID, domain.ItemKindPost)
	it.Title = title
	it.Permalink = "https://example.com/" + externalID
	it.PostedAt = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	return it
}
