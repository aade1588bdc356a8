// Package lock provides a Redis backed distributed lock (RedLock via redsync)
// so that several API instances serialise work on the same item.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

var (
	ErrEmptyKey = errors.New("lock key cannot be empty")
	ErrNotHeld  = errors.New("lock was not held or already expired")
)

type Options struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

func DefaultOptions() Options {
	return Options{
		Expiry:     10 * time.Second,
		Tries:      32,
		RetryDelay: 50 * time.Millisecond,
	}
}

type Redis struct {
	rs   *redsync.Redsync
	opts Options
}

func NewRedis(client redis.UniversalClient, opts Options) *Redis {
	return &Redis{
		rs:   redsync.New(goredis.NewPool(client)),
		opts: opts,
	}
}

// WithLock runs fn while holding the lock for key. The lock is released on every exit path.
func (r *Redis) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}

	mutex := r.rs.NewMutex(key,
		redsync.WithExpiry(r.opts.Expiry),
		redsync.WithTries(r.opts.Tries),
		redsync.WithRetryDelay(r.opts.RetryDelay),
	)

	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("acquiring lock %s: %w", key, err)
	}

	defer func() {
		// The caller's context may already be cancelled; the lock must still go.
		unlockCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		if ok, err := mutex.UnlockContext(unlockCtx); !ok || err != nil {
			slog.Warn("failed to release lock", "key", key, "error", errors.Join(err, ErrNotHeld))
		}
	}()

	return fn(ctx)
}
