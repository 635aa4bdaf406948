package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRateLimited = errors.New("rate limited")

// RateLimitError carries how long the caller must wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// RetryAfterSeconds rounds up to whole seconds.
func (e *RateLimitError) RetryAfterSeconds() int {
	secs := int((e.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}

// Limiter allows one action per key per window.
type Limiter interface {
	Allow(ctx context.Context, key string, window time.Duration) error
}

// RedisLimiter shares the window across instances with SET NX PX.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisLimiter(rdb *redis.Client) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, prefix: "artisans:limit:"}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string, window time.Duration) error {
	ok, err := l.rdb.SetNX(ctx, l.prefix+key, time.Now().Unix(), window).Result()
	if err != nil {
		return fmt.Errorf("limiter: %w", err)
	}
	if ok {
		return nil
	}
	ttl, err := l.rdb.PTTL(ctx, l.prefix+key).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return &RateLimitError{RetryAfter: ttl}
}

// MemoryLimiter is the single node fallback.
type MemoryLimiter struct {
	mu   sync.Mutex
	next map[string]time.Time
	now  func() time.Time
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{next: make(map[string]time.Time), now: time.Now}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string, window time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.next[key]; ok && now.Before(until) {
		return &RateLimitError{RetryAfter: until.Sub(now)}
	}
	l.next[key] = now.Add(window)

	// drop expired keys so the map does not grow without bound
	for k, until := range l.next {
		if !now.Before(until) {
			delete(l.next, k)
		}
	}
	return nil
}
