// Package middleware provides HTTP middleware for session authentication and
// rate limiting.
//
// # SessionGuard
//
// Reads the session token from a cookie and resolves it through a
// TokenVerifier (normally *auth.Service):
//
//	guard := middleware.NewSessionGuard(authService, "auth_token",
//		middleware.WithLogger(logger), middleware.WithAudit(auditLog))
//	protected.Use(guard.Handler)
//
//	user, ok := middleware.CurrentUser(r.Context())
//
// A missing cookie yields 401 "Missing auth token"; a token that fails
// verification, or whose user no longer exists, yields 401 "Invalid auth
// token". Store failures are 500s, not 401s.
//
// # Rate limiting
//
// RateLimiter is an in-process token bucket; DistributedRateLimiter keeps a
// fixed window counter in Redis so all instances share one budget. Both
// satisfy Limiter:
//
//	limiter := middleware.NewDistributedRateLimiter(redisClient, cfg, "ratelimit")
//	login := middleware.NewRateLimitMiddleware(limiter, time.Minute, "login")
//
// Limiter errors fail open; blocked requests get 429 with Retry-After.
package middleware
