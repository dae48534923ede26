package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/pethealth/pethealth/pkg/audit"
	"github.com/pethealth/pethealth/pkg/httputil"
)

type ttlLimiter interface {
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// RateLimitMiddleware throttles requests per client IP
type RateLimitMiddleware struct {
	limiter Limiter
	window  time.Duration
	scope   string
	opts    options
}

// NewRateLimitMiddleware creates a per-IP limiter for one route group.
// scope names it in metrics and keys, e.g. "login".
func NewRateLimitMiddleware(limiter Limiter, window time.Duration, scope string, opts ...Option) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		limiter: limiter,
		window:  window,
		scope:   scope,
		opts:    newOptions(opts),
	}
}

// Handler wraps an HTTP handler with rate limiting. Limiter errors fail open.
func (m *RateLimitMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		key := m.scope + ":ip:" + m.clientIP(r)

		allowed, err := m.limiter.Allow(ctx, key)
		if err != nil {
			m.opts.logger.WithError(err).WithField("scope", m.scope).Warn("rate limiter unavailable, allowing request")
			next.ServeHTTP(w, r)
			return
		}
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		m.opts.metrics.RecordRateLimited(m.scope)
		event := audit.NewEvent(r, audit.EventTypeAuthRateLimited, audit.EventStatusDenied)
		if err := m.opts.audit.Log(ctx, event); err != nil {
			m.opts.logger.WithError(err).Warn("failed to write audit event")
		}

		w.Header().Set("Retry-After", fmt.Sprintf("%d", m.retryAfter(ctx, key)))
		httputil.WriteTooManyRequests(w, "Too many requests, try again later")
	})
}

func (m *RateLimitMiddleware) clientIP(r *http.Request) string {
	if m.opts.trustProxyHeaders {
		return httputil.ClientIP(r)
	}
	return httputil.RemoteIP(r)
}

func (m *RateLimitMiddleware) retryAfter(ctx context.Context, key string) int {
	wait := m.window
	if tl, ok := m.limiter.(ttlLimiter); ok {
		if ttl, err := tl.TTL(ctx, key); err == nil && ttl > 0 {
			wait = ttl
		}
	}
	return int(math.Ceil(wait.Seconds()))
}
