package httpmiddleware

import (
	"context"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RateLimitConfig configures the per-key token bucket limiter.
type RateLimitConfig struct {
	// Max requests allowed per Window for one key.
	Max int
	// Window over which Max tokens refill.
	Window time.Duration
	// KeyFunc derives the limit key; nil buckets by client IP.
	KeyFunc func(*http.Request) string
}

// bucket holds the refill state for one key. tokens refill continuously at
// Max per Window, capped at Max.
type bucket struct {
	tokens   float64
	refilled time.Time
}

type limiter struct {
	cfg     RateLimitConfig
	rate    float64 // tokens per second
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func newLimiter(cfg RateLimitConfig) *limiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = clientIPKey
	}
	return &limiter{
		cfg:     cfg,
		rate:    float64(cfg.Max) / cfg.Window.Seconds(),
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// take spends one token for key if available. It reports the remaining
// whole tokens, when the bucket is full again, and whether the request may
// proceed.
func (l *limiter) take(key string) (remaining int, resetAt time.Time, ok bool) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, exists := l.buckets[key]
	if !exists {
		b = &bucket{tokens: float64(l.cfg.Max), refilled: now}
		l.buckets[key] = b
	} else {
		b.tokens += now.Sub(b.refilled).Seconds() * l.rate
		if b.tokens > float64(l.cfg.Max) {
			b.tokens = float64(l.cfg.Max)
		}
		b.refilled = now
	}

	missing := float64(l.cfg.Max) - b.tokens
	if b.tokens >= 1 {
		b.tokens--
		missing++
		ok = true
	}
	resetAt = now.Add(time.Duration(missing / l.rate * float64(time.Second)))
	return int(b.tokens), resetAt, ok
}

// evictStale drops buckets that have been full for a while; a full bucket
// carries no state worth keeping.
func (l *limiter) evictStale() {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, b := range l.buckets {
		if now.Sub(b.refilled) >= 2*l.cfg.Window {
			delete(l.buckets, key)
		}
	}
}

// RateLimit enforces a per-key token bucket. Rejected requests get 429 with
// the API's JSON error shape; every response carries X-RateLimit-Limit,
// X-RateLimit-Remaining, and X-RateLimit-Reset.
func RateLimit(cfg RateLimitConfig) Middleware {
	return limitMiddleware(newLimiter(cfg))
}

// RateLimitWithCleanup is RateLimit plus a background sweep that evicts
// idle buckets until ctx is cancelled.
func RateLimitWithCleanup(ctx context.Context, cfg RateLimitConfig) Middleware {
	l := newLimiter(cfg)
	go func() {
		ticker := time.NewTicker(2 * cfg.Window)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.evictStale()
			}
		}
	}()
	return limitMiddleware(l)
}

func limitMiddleware(l *limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			remaining, resetAt, ok := l.take(l.cfg.KeyFunc(r))

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(l.cfg.Max))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(resetAt.Unix(), 10))

			if !ok {
				wait := time.Until(resetAt)
				if wait < 0 {
					wait = 0
				}
				h.Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"code":429,"message":"rate limit exceeded"}`))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIPKey buckets by client IP, trusting X-Forwarded-For then
// X-Real-IP before falling back to the socket address.
func clientIPKey(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
