package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLimiter(max int, window time.Duration) (*limiter, *time.Time) {
	l := newLimiter(RateLimitConfig{Max: max, Window: window})
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_ExhaustsAndRefills(t *testing.T) {
	l, now := newTestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		_, _, ok := l.take("k")
		require.True(t, ok, "request %d within limit", i)
	}

	_, resetAt, ok := l.take("k")
	assert.False(t, ok, "tokens spent")
	assert.True(t, resetAt.After(*now))

	// One window later the bucket is full again.
	*now = now.Add(time.Minute)
	remaining, _, ok := l.take("k")
	require.True(t, ok)
	assert.Equal(t, 2, remaining)
}

func TestLimiter_PartialRefill(t *testing.T) {
	l, now := newTestLimiter(10, time.Minute)

	for i := 0; i < 10; i++ {
		_, _, ok := l.take("k")
		require.True(t, ok)
	}
	_, _, ok := l.take("k")
	require.False(t, ok)

	// 6s at 10/min refills one token.
	*now = now.Add(6 * time.Second)
	_, _, ok = l.take("k")
	assert.True(t, ok)
	_, _, ok = l.take("k")
	assert.False(t, ok)
}

func TestLimiter_KeysAreIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute)

	_, _, ok := l.take("a")
	require.True(t, ok)
	_, _, ok = l.take("a")
	require.False(t, ok)

	_, _, ok = l.take("b")
	assert.True(t, ok, "another key has its own bucket")
}

func TestLimiter_EvictStale(t *testing.T) {
	l, now := newTestLimiter(5, time.Minute)

	_, _, ok := l.take("k")
	require.True(t, ok)
	require.Len(t, l.buckets, 1)

	*now = now.Add(3 * time.Minute)
	l.evictStale()
	assert.Empty(t, l.buckets)
}

func TestRateLimitMiddleware(t *testing.T) {
	l, _ := newTestLimiter(2, time.Minute)
	handler := limitMiddleware(l)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	doReq := func() *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/products", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		handler.ServeHTTP(rec, req)
		return rec
	}

	rec := doReq()
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Remaining"))

	doReq()
	rec = doReq()
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"code":429,"message":"rate limit exceeded"}`, rec.Body.String())
}

func TestClientIPKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", clientIPKey(req))

	req.Header.Set("X-Real-IP", "198.51.100.2")
	assert.Equal(t, "198.51.100.2", clientIPKey(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", clientIPKey(req))
}
