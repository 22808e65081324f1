package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"content-sync-service/internal/cache"
	"content-sync-service/internal/domain"
	"content-sync-service/internal/metrics"
	"content-sync-service/pkg/locker"
)

// syncLockKey guards sync runs across every entrypoint (scheduler,
// admin API, webhook, CLI). One key for all of them: a run is a run.
const syncLockKey = "sync:run:lock"

// SyncOptions control one sync run.
type SyncOptions struct {
	// Limit caps how many records are fetched per provider (0 = provider default).
	Limit int

	// DryRun computes and reports the plan without writing rows.
	DryRun bool

	// Force invalidates the serving cache even when the run wrote nothing.
	Force bool

	// DeleteRemoved hard-deletes rows that vanished remotely instead of
	// deactivating them.
	DeleteRemoved bool

	// Category is stamped as an extra tag on every fetched item.
	Category string
}

// SyncService reconciles provider content into the local table.
type SyncService struct {
	repo      domain.ItemRepository
	providers []domain.Provider
	loader    *cache.Loader
	publisher domain.Publisher // nil when event publishing is disabled
	locker    locker.DistributedLocker
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewSyncService creates a new SyncService.
func NewSyncService(
	repo domain.ItemRepository,
	providers []domain.Provider,
	loader *cache.Loader,
	publisher domain.Publisher,
	lkr locker.DistributedLocker,
	lockTTL time.Duration,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		repo:      repo,
		providers: providers,
		loader:    loader,
		publisher: publisher,
		locker:    lkr,
		lockTTL:   lockTTL,
		logger:    logger,
	}
}

// SyncAll reconciles all providers concurrently. A failing provider
// never blocks the others; its run carries the error.
func (s *SyncService) SyncAll(ctx context.Context, opts SyncOptions) []*domain.SyncRun {
	runs := make([]*domain.SyncRun, len(s.providers))
	var wg sync.WaitGroup

	s.logger.Info("starting sync for all providers",
		zap.Int("provider_count", len(s.providers)),
		zap.Bool("dry_run", opts.DryRun),
	)

	for i, provider := range s.providers {
		wg.Add(1)
		go func(idx int, p domain.Provider) {
			defer wg.Done()
			run, _ := s.syncProvider(ctx, p, opts)
			runs[idx] = run
		}(i, provider)
	}

	wg.Wait()

	totalChanges := 0
	totalFailed := 0
	for _, run := range runs {
		if run.Status == domain.SyncStatusFailed {
			totalFailed++
		} else {
			totalChanges += run.Changes()
		}
	}

	s.logger.Info("sync completed",
		zap.Int("total_changes", totalChanges),
		zap.Int("providers_failed", totalFailed),
	)

	return runs
}

// SyncAllLocked runs SyncAll under the global sync lock. Returns
// domain.ErrSyncLocked when another run is in progress.
func (s *SyncService) SyncAllLocked(ctx context.Context, opts SyncOptions) ([]*domain.SyncRun, error) {
	var runs []*domain.SyncRun
	acquired, err := locker.WithLock(ctx, s.locker, syncLockKey, s.lockTTL, func(ctx context.Context) error {
		runs = s.SyncAll(ctx, opts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrSyncLocked
	}

	return runs, nil
}

// SyncProvider reconciles a single provider by name.
func (s *SyncService) SyncProvider(ctx context.Context, providerID string, opts SyncOptions) (*domain.SyncRun, error) {
	for _, p := range s.providers {
		if p.Name() == providerID {
			return s.syncProvider(ctx, p, opts)
		}
	}

	return nil, domain.ErrUnknownProvider
}

// SyncProviderLocked runs SyncProvider under the global sync lock.
// Returns domain.ErrSyncLocked when another run is in progress.
func (s *SyncService) SyncProviderLocked(ctx context.Context, providerID string, opts SyncOptions) (*domain.SyncRun, error) {
	var run *domain.SyncRun
	var syncErr error
	acquired, err := locker.WithLock(ctx, s.locker, syncLockKey, s.lockTTL, func(ctx context.Context) error {
		run, syncErr = s.SyncProvider(ctx, providerID, opts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, domain.ErrSyncLocked
	}

	return run, syncErr
}

// syncProvider fetches one provider's snapshot, diffs it against the
// local rows and applies the plan. A fetch failure aborts before any
// row is touched; a repeated run against an unchanged snapshot writes
// nothing.
func (s *SyncService) syncProvider(ctx context.Context, provider domain.Provider, opts SyncOptions) (*domain.SyncRun, error) {
	start := time.Now()
	run := &domain.SyncRun{
		ProviderID: provider.Name(),
		StartedAt:  start.UTC(),
		DryRun:     opts.DryRun,
	}

	result, err := provider.Fetch(ctx, domain.FetchOptions{Limit: opts.Limit})
	if err != nil {
		s.logger.Warn("sync aborted, no rows were touched",
			zap.String("provider", provider.Name()),
			zap.Error(err),
		)

		return s.failRun(ctx, run, start, err), &domain.SyncAbortedError{ProviderID: provider.Name(), Err: err}
	}

	run.Skipped = result.Skipped
	remote := result.Items
	if opts.Category != "" {
		for _, it := range remote {
			it.Tags = appendUnique(it.Tags, opts.Category)
		}
	}

	local, err := s.repo.ListByProvider(ctx, provider.Name())
	if err != nil {
		s.logger.Error("loading local rows failed",
			zap.String("provider", provider.Name()),
			zap.Error(err),
		)

		return s.failRun(ctx, run, start, err), err
	}

	plan := domain.BuildReconcilePlan(local, remote)

	if !opts.DryRun && !plan.Empty() {
		if err := s.repo.ApplyPlan(ctx, plan, opts.DeleteRemoved); err != nil {
			s.logger.Error("applying reconcile plan failed",
				zap.String("provider", provider.Name()),
				zap.Error(err),
			)

			return s.failRun(ctx, run, start, err), err
		}
	}

	run.Created = len(plan.Create)
	run.Updated = len(plan.Update)
	if opts.DeleteRemoved {
		run.Deleted = len(plan.Deactivate)
	} else {
		run.Deactivated = len(plan.Deactivate)
	}
	run.Unchanged = plan.Unchanged

	run.Status = domain.SyncStatusSucceeded
	if run.Skipped > 0 {
		run.Status = domain.SyncStatusPartial
	}
	run.Duration = time.Since(start)

	if !opts.DryRun {
		s.publishChanges(ctx, plan, opts.DeleteRemoved)

		if run.Changes() > 0 || opts.Force {
			s.invalidateServingCache(ctx, provider.Name())
		}

		s.countItemMutations(run)
	}

	s.finishRun(ctx, run)

	s.logger.Info("provider sync completed",
		zap.String("provider", provider.Name()),
		zap.String("status", string(run.Status)),
		zap.Bool("dry_run", run.DryRun),
		zap.Int("created", run.Created),
		zap.Int("updated", run.Updated),
		zap.Int("deactivated", run.Deactivated),
		zap.Int("deleted", run.Deleted),
		zap.Int("unchanged", run.Unchanged),
		zap.Int("skipped", run.Skipped),
		zap.Duration("duration", run.Duration),
	)

	return run, nil
}

// GetProviderNames returns the names of all registered providers.
func (s *SyncService) GetProviderNames() []string {
	names := make([]string, len(s.providers))
	for i, p := range s.providers {
		names[i] = p.Name()
	}
	return names
}

// ListSyncRuns returns recent run history, newest first.
func (s *SyncService) ListSyncRuns(ctx context.Context, providerID string, limit int) ([]*domain.SyncRun, error) {
	return s.repo.ListSyncRuns(ctx, providerID, limit)
}

// InvalidateProvider drops one provider's serving cache, or every
// serving key when providerID is empty.
func (s *SyncService) InvalidateProvider(ctx context.Context, providerID string) error {
	if providerID == "" {
		if err := s.loader.InvalidatePrefix(ctx, cache.ListingPrefix()); err != nil {
			return err
		}

		return s.loader.InvalidatePrefix(ctx, "")
	}

	s.invalidateServingCache(ctx, providerID)

	return nil
}

func (s *SyncService) failRun(ctx context.Context, run *domain.SyncRun, start time.Time, err error) *domain.SyncRun {
	run.Status = domain.SyncStatusFailed
	run.Error = err.Error()
	run.Duration = time.Since(start)

	s.finishRun(ctx, run)

	return run
}

// finishRun records the run and its metrics. Recording uses a context
// detached from cancellation so history survives an aborted sync.
func (s *SyncService) finishRun(ctx context.Context, run *domain.SyncRun) {
	metrics.ObserveSync(run.ProviderID, string(run.Status), run.Duration)

	if err := s.repo.RecordSyncRun(context.WithoutCancel(ctx), run); err != nil {
		s.logger.Error("recording sync run failed",
			zap.String("provider", run.ProviderID),
			zap.Error(err),
		)
	}
}

func (s *SyncService) countItemMutations(run *domain.SyncRun) {
	ops := map[string]int{
		"created":     run.Created,
		"updated":     run.Updated,
		"deactivated": run.Deactivated,
		"deleted":     run.Deleted,
	}
	for op, n := range ops {
		if n > 0 {
			metrics.SyncItemsTotal.WithLabelValues(run.ProviderID, op).Add(float64(n))
		}
	}
}

// publishChanges emits one event per written row. Publishing is best
// effort: the rows are already committed, so a broker failure only logs.
func (s *SyncService) publishChanges(ctx context.Context, plan domain.ReconcilePlan, hardDelete bool) {
	if s.publisher == nil {
		return
	}

	removeAction := domain.ChangeDeactivated
	if hardDelete {
		removeAction = domain.ChangeDeleted
	}

	publish := func(items []*domain.Item, action domain.ChangeAction) {
		for _, it := range items {
			if err := s.publisher.PublishChange(ctx, it, action); err != nil {
				s.logger.Warn("publishing change event failed",
					zap.String("provider", it.ProviderID),
					zap.String("external_id", it.ExternalID),
					zap.String("action", string(action)),
					zap.Error(err),
				)
			}
		}
	}

	publish(plan.Create, domain.ChangeCreated)
	publish(plan.Update, domain.ChangeUpdated)
	publish(plan.Deactivate, removeAction)
}

// invalidateServingCache drops the provider's cached payloads and every
// aggregate listing, so the next read sees the new rows.
func (s *SyncService) invalidateServingCache(ctx context.Context, providerID string) {
	if err := s.loader.InvalidatePrefix(ctx, cache.ProviderContentPrefix(providerID)); err != nil {
		s.logger.Warn("invalidating provider cache failed",
			zap.String("provider", providerID),
			zap.Error(err),
		)
	}
	if err := s.loader.InvalidatePrefix(ctx, cache.ListingPrefix()); err != nil {
		s.logger.Warn("invalidating listing cache failed",
			zap.String("provider", providerID),
			zap.Error(err),
		)
	}
}

func appendUnique(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}

	return append(tags, tag)
}
