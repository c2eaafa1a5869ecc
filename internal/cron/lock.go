package cron

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ExpiryLockName names the lock that guards the write-off cycle.
const ExpiryLockName = "expiry-write-off"

// defaultLockTTL outlives a normal cycle; a crashed worker frees the lock
// when it expires.
const defaultLockTTL = 30 * time.Minute

// ErrLockLost means the lease expired and another worker now owns the key.
var ErrLockLost = errors.New("cron lock lost")

// Lock gives one worker at a time the right to run a cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// extender is implemented by locks whose lease can be renewed mid-cycle.
type extender interface {
	Extend(ctx context.Context) error
}

type redisStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock is a SETNX lease. Each Acquire stores a fresh owner token so a
// worker whose lease lapsed cannot release or renew its successor's lock.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	owner  string
}

func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx %s: %w", l.key, err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Extend pushes the lease out by a full TTL while this worker still owns it.
func (l *RedisLock) Extend(ctx context.Context) error {
	held, err := l.held(ctx)
	if err != nil {
		return err
	}
	if !held {
		l.owner = ""
		return ErrLockLost
	}
	if err := l.client.Set(ctx, l.key, l.owner, l.ttl); err != nil {
		return fmt.Errorf("extend lock: %w", err)
	}
	return nil
}

// Release deletes the key only while this worker still owns it.
func (l *RedisLock) Release(ctx context.Context) error {
	held, err := l.held(ctx)
	if err != nil || !held {
		l.owner = ""
		return err
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}

func (l *RedisLock) held(ctx context.Context) (bool, error) {
	if l.owner == "" {
		return false, nil
	}
	value, err := l.client.Get(ctx, l.key)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read lock owner: %w", err)
	}
	return value == l.owner, nil
}
