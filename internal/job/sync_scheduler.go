// Package job provides background job schedulers.
package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"content-sync-service/internal/app/service"
	"content-sync-service/internal/domain"
	"content-sync-service/pkg/locker"
)

// scheduleLockKey is the cross-instance cooldown lock. It decides which
// instance attempts the scheduled run; the run itself is additionally
// serialized by the sync service's global run lock, shared with the
// admin API, the webhook and the CLI.
const scheduleLockKey = "sync:schedule:lock"

// SyncScheduler runs periodic content synchronization with distributed
// locking so only one instance executes scheduled syncs at a time.
type SyncScheduler struct {
	syncService *service.SyncService
	interval    time.Duration
	timeout     time.Duration
	logger      *zap.Logger
	locker      locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// SyncConfig holds sync scheduler configuration.
type SyncConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// NewSyncScheduler creates a new SyncScheduler.
func NewSyncScheduler(
	syncSvc *service.SyncService,
	cfg SyncConfig,
	logger *zap.Logger,
	lkr locker.DistributedLocker,
) *SyncScheduler {
	return &SyncScheduler{
		syncService: syncSvc,
		interval:    cfg.Interval,
		timeout:     cfg.Timeout,
		logger:      logger,
		locker:      lkr,
	}
}

// Start begins the background sync job.
func (s *SyncScheduler) Start(runOnStartup bool) {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting sync scheduler",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_startup", runOnStartup),
	)

	s.wg.Add(1)
	go s.run(runOnStartup)
}

// Stop gracefully stops the scheduler.
func (s *SyncScheduler) Stop() {
	s.logger.Info("stopping sync scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("sync scheduler stopped")
}

// run is the main loop of the scheduler.
func (s *SyncScheduler) run(runOnStartup bool) {
	defer s.wg.Done()

	if runOnStartup {
		s.executeSync()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.executeSync()
		}
	}
}

// executeSync performs one scheduled sync attempt.
//
// Locking behavior:
//   - Cooldown TTL = interval. After a clean run the lock is left to
//     expire, so no other instance repeats the work within the interval.
//   - On failure the lock is released immediately so another instance
//     (or the next tick) can retry without waiting out the cooldown.
//   - When a manual run already holds the global run lock, the cooldown
//     is released too; the content is being refreshed either way.
func (s *SyncScheduler) executeSync() {
	acquired, err := s.locker.Acquire(s.ctx, scheduleLockKey, s.interval)
	if err != nil {
		s.logger.Error("failed to acquire schedule lock", zap.Error(err))

		return
	}
	if !acquired {
		s.logger.Debug("another instance owns the schedule, skipping execution")

		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	runs, err := s.syncService.SyncAllLocked(ctx, service.SyncOptions{})
	if err != nil {
		s.releaseCooldown()

		if errors.Is(err, domain.ErrSyncLocked) {
			s.logger.Info("a manual sync is already running, skipping scheduled run")

			return
		}

		s.logger.Error("scheduled sync failed to start", zap.Error(err))

		return
	}

	totalChanges := 0
	totalFailed := 0
	for _, run := range runs {
		if run.Status == domain.SyncStatusFailed {
			totalFailed++
			s.logger.Warn("provider sync failed",
				zap.String("provider", run.ProviderID),
				zap.String("error", run.Error),
			)

			continue
		}
		totalChanges += run.Changes()
	}

	if totalFailed > 0 {
		s.releaseCooldown()
		s.logger.Info("sync completed with errors, cooldown released for retry",
			zap.Int("total_changes", totalChanges),
			zap.Int("providers_failed", totalFailed),
		)

		return
	}

	// Lock expires naturally after the interval (cooldown period).
	s.logger.Info("sync completed successfully, cooldown held",
		zap.Int("total_changes", totalChanges),
		zap.Duration("cooldown", s.interval),
	)
}

func (s *SyncScheduler) releaseCooldown() {
	if err := s.locker.Release(s.ctx, scheduleLockKey); err != nil {
		s.logger.Error("failed to release schedule lock", zap.Error(err))
	}
}
