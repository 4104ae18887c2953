// Package middleware provides HTTP middleware for folio.
package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shashiranjanraj/folio/pkg/logger"
	"github.com/shashiranjanraj/folio/pkg/metrics"
	"github.com/shashiranjanraj/folio/pkg/response"
)

// Limiter decides whether one more request for key fits in the current window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Name() string
}

// ─── In-memory fixed window ──────────────────────────────────────────────────

// bucket tracks a fixed-window request count for one client.
type bucket struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter keeps per-process counters. Expired buckets are swept at most
// once per window, on the request path.
type MemoryLimiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

// NewMemoryLimiter allows max requests per window per key.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:     max,
		window:  window,
		now:     time.Now,
		buckets: map[string]*bucket{},
	}
}

func (l *MemoryLimiter) Name() string { return "memory" }

func (l *MemoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > l.window {
		for k, b := range l.buckets {
			if now.After(b.resetAt) {
				delete(l.buckets, k)
			}
		}
		l.lastSweep = now
	}

	b, ok := l.buckets[key]
	if !ok || now.After(b.resetAt) {
		b = &bucket{resetAt: now.Add(l.window)}
		l.buckets[key] = b
	}

	b.count++
	return b.count <= l.max, nil
}

// ─── Redis fixed window ──────────────────────────────────────────────────────

// RedisLimiter shares counters between every instance pointed at the same
// Redis, using INCR plus an expiry set by the first hit of each window.
type RedisLimiter struct {
	rdb    *redis.Client
	max    int
	window time.Duration
	prefix string
}

// NewRedisLimiter allows max requests per window per key across instances.
func NewRedisLimiter(rdb *redis.Client, max int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, max: max, window: window, prefix: "folio:ratelimit:"}
}

func (l *RedisLimiter) Name() string { return "redis" }

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	k := l.prefix + key

	n, err := l.rdb.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("ratelimit: incr: %w", err)
	}
	if n == 1 {
		if err := l.rdb.PExpire(ctx, k, l.window).Err(); err != nil {
			return false, fmt.Errorf("ratelimit: expire: %w", err)
		}
	}
	return n <= int64(l.max), nil
}

// ─── Fallback ────────────────────────────────────────────────────────────────

// FallbackLimiter asks primary first and switches to secondary for any
// request where primary errors (e.g. Redis went away).
type FallbackLimiter struct {
	primary   Limiter
	secondary Limiter
	warned    sync.Once
}

// WithFallback wraps primary so its errors degrade to secondary.
func WithFallback(primary, secondary Limiter) *FallbackLimiter {
	return &FallbackLimiter{primary: primary, secondary: secondary}
}

func (l *FallbackLimiter) Name() string { return l.primary.Name() }

func (l *FallbackLimiter) Allow(ctx context.Context, key string) (bool, error) {
	ok, err := l.primary.Allow(ctx, key)
	if err == nil {
		return ok, nil
	}
	l.warned.Do(func() {
		logger.Warn("rate limiter falling back to in-memory counters", "store", l.primary.Name(), "error", err)
	})
	return l.secondary.Allow(ctx, key)
}

// ─── Swap ────────────────────────────────────────────────────────────────────

// SwapLimiter delegates to the most recently stored Limiter. The server
// starts on process memory and stores the shared store once it answers.
type SwapLimiter struct {
	cur atomic.Pointer[limiterRef]
}

type limiterRef struct{ Limiter }

// NewSwapLimiter starts out delegating to initial.
func NewSwapLimiter(initial Limiter) *SwapLimiter {
	s := &SwapLimiter{}
	s.Store(initial)
	return s
}

// Store replaces the delegate for every later request.
func (s *SwapLimiter) Store(l Limiter) { s.cur.Store(&limiterRef{l}) }

// Current is the delegate in use.
func (s *SwapLimiter) Current() Limiter { return s.cur.Load().Limiter }

func (s *SwapLimiter) Name() string { return s.Current().Name() }

func (s *SwapLimiter) Allow(ctx context.Context, key string) (bool, error) {
	return s.Current().Allow(ctx, key)
}

// ─── Middleware ──────────────────────────────────────────────────────────────

// RateLimit rejects clients that exceed the limiter with a 429.
// Example: middleware.RateLimit(middleware.NewMemoryLimiter(100, time.Minute))
func RateLimit(l Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, err := l.Allow(r.Context(), clientIP(r))
			if err != nil {
				// Fail open.
				logger.WithCtx(r.Context()).Warn("rate limiter error", "error", err)
				ok = true
			}

			if !ok {
				metrics.RateLimited.WithLabelValues(l.Name()).Inc()
				response.TooManyRequests(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
