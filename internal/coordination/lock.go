// Package coordination serializes inventory sync runs, across processes
// through Redis or inside one process through a mutex.
package coordination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultLockTTL bounds how long a crashed holder can block new runs.
	DefaultLockTTL = 30 * time.Minute

	// SyncLockKey is the Redis key of the inventory sync lock.
	SyncLockKey = "lock:inventory-sync"
)

var (
	// ErrLockNotAcquired is returned when another holder owns the lock.
	ErrLockNotAcquired = errors.New("lock not acquired")

	// ErrLockNotHeld is returned when releasing a lock that expired or
	// was taken over.
	ErrLockNotHeld = errors.New("lock not held")
)

// Release gives up an acquired lock.
type Release func(ctx context.Context) error

// Locker hands out a single exclusive lease.
type Locker interface {
	// TryAcquire takes the lock without waiting. It returns
	// ErrLockNotAcquired when the lock is held elsewhere.
	TryAcquire(ctx context.Context) (Release, error)
}

var unlockScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// DistributedLock is one attempt at holding a Redis lock. Each instance
// carries its own token so only the acquirer can unlock it.
type DistributedLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewDistributedLock creates a lock on key. A non-positive ttl uses DefaultLockTTL.
func NewDistributedLock(client *redis.Client, key string, ttl time.Duration) *DistributedLock {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &DistributedLock{
		client: client,
		key:    key,
		token:  uuid.New().String(),
		ttl:    ttl,
	}
}

// TryLock attempts to acquire the lock without blocking.
func (l *DistributedLock) TryLock(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock: %w", err)
	}
	return ok, nil
}

// Unlock releases the lock if this instance still holds it.
func (l *DistributedLock) Unlock(ctx context.Context) error {
	result, err := unlockScript.Run(ctx, l.client, []string{l.key}, l.token).Int()
	if err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if result == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// Key returns the lock key.
func (l *DistributedLock) Key() string {
	return l.key
}

// RedisLocker issues DistributedLocks on a fixed key.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLocker creates a Locker backed by client.
func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

// TryAcquire implements Locker.
func (r *RedisLocker) TryAcquire(ctx context.Context) (Release, error) {
	lock := NewDistributedLock(r.client, r.key, r.ttl)
	acquired, err := lock.TryLock(ctx)
	if err != nil {
		return nil, err
	}
	if !acquired {
		return nil, ErrLockNotAcquired
	}
	return lock.Unlock, nil
}

// LocalLocker is a Locker for a single process.
type LocalLocker struct {
	mu sync.Mutex
}

// NewLocalLocker creates an in-process Locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

// TryAcquire implements Locker.
func (l *LocalLocker) TryAcquire(context.Context) (Release, error) {
	if !l.mu.TryLock() {
		return nil, ErrLockNotAcquired
	}

	var once sync.Once
	return func(context.Context) error {
		released := false
		once.Do(func() {
			l.mu.Unlock()
			released = true
		})
		if !released {
			return ErrLockNotHeld
		}
		return nil
	}, nil
}
