// Package observability provides structured logging, Prometheus metrics,
// health probes, OpenTelemetry tracing and graceful shutdown for the API.
//
// # Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("user_id", id).Info("login succeeded")
//
// Handlers should prefer observability.FromContext(r.Context()), which adds the
// request id, the authenticated user id and the active trace ids.
//
// # Metrics
//
// NewMetrics registers HTTP, auth, cache and database pool collectors on the
// given registry. Every Record* method accepts a nil receiver so components can
// be constructed without metrics in tests.
//
// # Health
//
// HealthChecker serves /health/live and /health/ready on the separate health
// port. A failing database makes the service unready; a failing redis only
// degrades it because the login limiter falls back to allowing requests.
package observability
