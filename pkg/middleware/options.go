package middleware

import (
	"github.com/pethealth/pethealth/pkg/audit"
	"github.com/pethealth/pethealth/pkg/observability"
)

// Option configures the guard and the rate limit middleware
type Option func(*options)

type options struct {
	logger  *observability.Logger
	audit   audit.Logger
	metrics *observability.Metrics

	trustProxyHeaders bool
}

func newOptions(opts []Option) options {
	o := options{
		logger: observability.NopLogger(),
		audit:  audit.NoOpLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger used for rejections and infrastructure errors
func WithLogger(logger *observability.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithAudit records rejections in the audit trail
func WithAudit(logger audit.Logger) Option {
	return func(o *options) { o.audit = logger }
}

// WithTrustedProxyHeaders keys clients by X-Forwarded-For / X-Real-IP.
// Only enable behind a proxy that overwrites those headers.
func WithTrustedProxyHeaders(trust bool) Option {
	return func(o *options) { o.trustProxyHeaders = trust }
}

// WithMetrics counts rejections
func WithMetrics(metrics *observability.Metrics) Option {
	return func(o *options) { o.metrics = metrics }
}
