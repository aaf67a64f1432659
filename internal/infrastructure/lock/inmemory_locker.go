package lock

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// InMemoryLocker provides per-key mutual exclusion within a single
// process. Useful for single-instance deployments and tests where a
// Redis server is not available.
type InMemoryLocker struct {
	mu    sync.Mutex
	locks map[string]time.Time
}

// NewInMemoryLocker creates an in-process locker.
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{
		locks: make(map[string]time.Time),
	}
}

// WithLock runs fn while holding the named lock. When the lock is held
// it returns ErrLockHeld without waiting, matching the Redis behavior.
func (l *InMemoryLocker) WithLock(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error {
	if err := l.acquire(key, ttl); err != nil {
		return err
	}
	defer l.release(key)
	return fn(ctx)
}

func (l *InMemoryLocker) acquire(key string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if expiry, ok := l.locks[key]; ok && time.Now().Before(expiry) {
		return fmt.Errorf("%w: %s", ErrLockHeld, key)
	}
	l.locks[key] = time.Now().Add(ttl)
	return nil
}

func (l *InMemoryLocker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locks, key)
}
