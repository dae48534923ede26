package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct{ t time.Time }

func (c *testClock) now() time.Time { return c.t }

func newClockedLimiter(config *RateLimitConfig) (*RateLimiter, *testClock) {
	clock := &testClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	limiter := NewRateLimiter(config)
	limiter.now = clock.now
	return limiter, clock
}

func TestRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	config := &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    time.Second,
		BurstSize:         2,
	}
	limiter, clock := newClockedLimiter(config)

	allowedCount := 0
	for i := 0; i < config.RequestsPerWindow+config.BurstSize+5; i++ {
		ok, err := limiter.Allow(ctx, "ip:1")
		require.NoError(t, err)
		if ok {
			allowedCount++
		}
	}
	assert.Equal(t, config.RequestsPerWindow+config.BurstSize, allowedCount)

	// other keys are independent
	ok, _ := limiter.Allow(ctx, "ip:2")
	assert.True(t, ok)

	// 100ms earns one token at 10/s
	clock.t = clock.t.Add(100 * time.Millisecond)
	ok, _ = limiter.Allow(ctx, "ip:1")
	assert.True(t, ok)
	ok, _ = limiter.Allow(ctx, "ip:1")
	assert.False(t, ok)
}

func TestRateLimiter_RefillCapsAtCapacity(t *testing.T) {
	ctx := context.Background()
	limiter, clock := newClockedLimiter(&RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute})

	limiter.Allow(ctx, "k")
	limiter.Allow(ctx, "k")
	assert.Equal(t, 0, limiter.Remaining("k"))

	clock.t = clock.t.Add(time.Hour)
	limiter.Allow(ctx, "k")
	assert.Equal(t, 1, limiter.Remaining("k"))
	assert.Equal(t, 2, limiter.Remaining("unknown"))
}

func TestRateLimiter_Cleanup(t *testing.T) {
	ctx := context.Background()
	limiter, clock := newClockedLimiter(&RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute})

	limiter.Allow(ctx, "old")
	clock.t = clock.t.Add(3 * time.Minute)
	limiter.Allow(ctx, "fresh")

	limiter.Cleanup()

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.buckets, "old")
	assert.Contains(t, limiter.buckets, "fresh")
}

func TestDefaultLoginRateLimitConfig(t *testing.T) {
	config := DefaultLoginRateLimitConfig()
	assert.Equal(t, 10, config.RequestsPerWindow)
	assert.Equal(t, time.Minute, config.WindowDuration)
	assert.Equal(t, config, NewRateLimiter(nil).config)
}

func newRedisLimiter(t *testing.T, config *RateLimitConfig) (*DistributedRateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewDistributedRateLimiter(client, config, "test"), mr
}

func TestDistributedRateLimiter_Allow(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newRedisLimiter(t, &RateLimitConfig{RequestsPerWindow: 3, WindowDuration: time.Minute})

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "ip:1")
		require.NoError(t, err)
		assert.True(t, ok, "request %d", i)
	}

	ok, err := limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.False(t, ok)

	ttl := mr.TTL("test:ip:1")
	assert.True(t, ttl > 0 && ttl <= time.Minute, "ttl %v", ttl)

	// the window does not slide with each hit
	mr.FastForward(30 * time.Second)
	limiter.Allow(ctx, "ip:1")
	assert.LessOrEqual(t, mr.TTL("test:ip:1"), 30*time.Second)

	mr.FastForward(31 * time.Second)
	ok, err = limiter.Allow(ctx, "ip:1")
	require.NoError(t, err)
	assert.True(t, ok, "new window")
}

func TestDistributedRateLimiter_RestoresMissingExpiry(t *testing.T) {
	ctx := context.Background()
	limiter, mr := newRedisLimiter(t, &RateLimitConfig{RequestsPerWindow: 3, WindowDuration: time.Minute})

	require.NoError(t, mr.Set("test:ip:9", "5"))

	ok, err := limiter.Allow(ctx, "ip:9")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.TTL("test:ip:9") > 0)
}

func TestDistributedRateLimiter_TTL(t *testing.T) {
	ctx := context.Background()
	limiter, _ := newRedisLimiter(t, &RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute})

	_, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)

	ttl, err := limiter.TTL(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ttl > 0)
}

func TestDistributedRateLimiter_RedisDownFailsOpen(t *testing.T) {
	limiter, mr := newRedisLimiter(t, nil)
	mr.Close()

	ok, err := limiter.Allow(context.Background(), "k")
	assert.Error(t, err)
	assert.True(t, ok)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter, _ := newClockedLimiter(&RateLimitConfig{RequestsPerWindow: 2, WindowDuration: time.Minute})
	m := NewRateLimitMiddleware(limiter, time.Minute, "login")

	calls := 0
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1:1").Code)
	assert.Equal(t, http.StatusOK, send("10.0.0.1:2").Code)

	blocked := send("10.0.0.1:3")
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)
	assert.Equal(t, "60", blocked.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"Too many requests, try again later"}`, blocked.Body.String())

	assert.Equal(t, http.StatusOK, send("10.0.0.2:1").Code)
	assert.Equal(t, 3, calls)
}

func TestRateLimitMiddleware_ForwardedForHeader(t *testing.T) {
	send := func(h http.Handler, forwarded string) int {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:1"
		req.Header.Set("X-Forwarded-For", forwarded)
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Code
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	t.Run("ignored by default", func(t *testing.T) {
		limiter, _ := newClockedLimiter(&RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute})
		h := NewRateLimitMiddleware(limiter, time.Minute, "login").Handler(ok)

		assert.Equal(t, http.StatusOK, send(h, "203.0.113.1"))
		assert.Equal(t, http.StatusTooManyRequests, send(h, "203.0.113.2"))
		assert.Equal(t, http.StatusTooManyRequests, send(h, "203.0.113.3"))
	})

	t.Run("trusted behind proxy", func(t *testing.T) {
		limiter, _ := newClockedLimiter(&RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute})
		h := NewRateLimitMiddleware(limiter, time.Minute, "login", WithTrustedProxyHeaders(true)).Handler(ok)

		assert.Equal(t, http.StatusOK, send(h, "203.0.113.1"))
		assert.Equal(t, http.StatusOK, send(h, "203.0.113.2"))
		assert.Equal(t, http.StatusTooManyRequests, send(h, "203.0.113.2"))
	})
}

func TestRateLimitMiddleware_RetryAfterFromRedisTTL(t *testing.T) {
	limiter, mr := newRedisLimiter(t, &RateLimitConfig{RequestsPerWindow: 1, WindowDuration: time.Minute})
	m := NewRateLimitMiddleware(limiter, time.Minute, "login")
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("POST", "/auth/login", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	mr.FastForward(45 * time.Second)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "15", w.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	limiter, mr := newRedisLimiter(t, nil)
	mr.Close()
	m := NewRateLimitMiddleware(limiter, time.Minute, "login")

	w := httptest.NewRecorder()
	m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})).ServeHTTP(w, httptest.NewRequest("POST", "/auth/login", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}
