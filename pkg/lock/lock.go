// Package lock serializes writers per group. Locks are not reentrant.
package lock

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/noah-isme/certisched-api/pkg/errors"
)

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

// Locker acquires an exclusive lock for a key.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// MemoryLocker keeps one single-slot semaphore per key inside the process.
type MemoryLocker struct {
	mu      sync.Mutex
	slots   map[string]chan struct{}
	timeout time.Duration
}

// NewMemoryLocker builds an in-process locker. A zero timeout waits until ctx is done.
func NewMemoryLocker(timeout time.Duration) *MemoryLocker {
	return &MemoryLocker{slots: make(map[string]chan struct{}), timeout: timeout}
}

// Lock blocks until the key is free, the timeout elapses or ctx is cancelled.
func (l *MemoryLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	slot := l.slot(key)

	waitCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	select {
	case slot <- struct{}{}:
		return releaseOnce(func() { <-slot }), nil
	case <-waitCtx.Done():
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, appErrors.Clone(appErrors.ErrLockTimeout, "timed out waiting for group "+key)
	}
}

func (l *MemoryLocker) slot(key string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[key] = ch
	}
	return ch
}

func releaseOnce(fn func()) Unlock {
	var once sync.Once
	return func() { once.Do(fn) }
}
