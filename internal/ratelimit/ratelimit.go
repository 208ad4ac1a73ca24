package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// LoginLimiter tracks failed login attempts per source address in Redis so the
// window survives process restarts and is shared across instances.
type LoginLimiter struct {
	rdb         *redis.Client
	maxAttempts int
	window      time.Duration
	now         func() time.Time
}

// NewLoginLimiter connects to Redis and returns a limiter enforcing
// maxAttempts failed attempts per window per address.
func NewLoginLimiter(addr, password string, db, maxAttempts int, window time.Duration) (*LoginLimiter, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &LoginLimiter{
		rdb:         rdb,
		maxAttempts: maxAttempts,
		window:      window,
		now:         time.Now,
	}, nil
}

// Close closes the Redis connection
func (l *LoginLimiter) Close() error {
	return l.rdb.Close()
}

func (l *LoginLimiter) key(addr string) string {
	return "login-attempts:" + addr
}

// Allow reports whether the address may attempt a login. Attempts older than
// the window are dropped before counting.
func (l *LoginLimiter) Allow(ctx context.Context, addr string) (bool, error) {
	key := l.key(addr)
	cutoff := l.now().Add(-l.window)

	pipe := l.rdb.Pipeline()
	pipe.ZRemRangeByScore(ctx, key, "0", fmt.Sprintf("%d", cutoff.UnixNano()))
	card := pipe.ZCard(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("failed to count login attempts: %w", err)
	}

	return card.Val() < int64(l.maxAttempts), nil
}

// RecordFailure adds a failed attempt for the address.
func (l *LoginLimiter) RecordFailure(ctx context.Context, addr string) error {
	key := l.key(addr)
	now := l.now()

	pipe := l.rdb.Pipeline()
	pipe.ZAdd(ctx, key, &redis.Z{
		Score:  float64(now.UnixNano()),
		Member: now.UnixNano(),
	})
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record login attempt: %w", err)
	}
	return nil
}

// RecordSuccess clears the window for the address.
func (l *LoginLimiter) RecordSuccess(ctx context.Context, addr string) error {
	return l.rdb.Del(ctx, l.key(addr)).Err()
}
