// Package locker provides distributed locking for coordinating sync
// runs across service instances and entrypoints.
package locker

import (
	"context"
	"time"
)

// DistributedLocker provides distributed lock capabilities across multiple
// instances. Implementations must be safe for concurrent use.
//
// The ttl should be set based on the operation's purpose:
//   - for mutual exclusion: the operation timeout,
//   - for cooldown/rate limiting: the desired cooldown period.
type DistributedLocker interface {
	// Acquire attempts to acquire a distributed lock with the given key.
	// Returns true if the lock was acquired, false if another instance
	// holds it. The lock expires after ttl if not released.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release releases the lock identified by key.
	// Safe to call even if this instance doesn't own the lock (no-op).
	Release(ctx context.Context, key string) error
}

// WithLock runs fn while holding the lock and releases it afterwards.
// Returns false without running fn when another instance holds the lock.
func WithLock(ctx context.Context, l DistributedLocker, key string, ttl time.Duration, fn func(context.Context) error) (bool, error) {
	acquired, err := l.Acquire(ctx, key, ttl)
	if err != nil {
		return false, err
	}
	if !acquired {
		return false, nil
	}
	defer func() { _ = l.Release(ctx, key) }()

	return true, fn(ctx)
}
