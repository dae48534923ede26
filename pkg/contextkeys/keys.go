// Package contextkeys provides centralized context key definitions
//
// All request-scoped values that cross package boundaries are keyed here so
// that producers and consumers agree on a single typed key.
//
//	ctx = contextkeys.WithRequestID(ctx, id)
//	id := contextkeys.GetRequestID(ctx)
package contextkeys

import "context"

// Key is the type for context keys to prevent collisions
type Key string

const (
	// RequestIDKey contains the request ID string
	// Set by: httputil.RequestIDMiddleware
	// Used by: logger, audit trail, error responses
	RequestIDKey Key = "request_id"

	// UserIDKey contains the authenticated user's ID string
	// Set by: middleware.SessionGuard after the session cookie resolves
	// Used by: logger, audit trail
	UserIDKey Key = "user_id"

	// CurrentUserKey contains *users.User, the authenticated identity
	// Set by: middleware.SessionGuard
	// Used by: protected handlers via middleware.CurrentUser
	CurrentUserKey Key = "current_user"

	// LoggerKey contains *observability.Logger
	// Set by: httputil.LoggingMiddleware
	// Used by: handlers that need structured logging with request context
	LoggerKey Key = "logger"
)

// WithRequestID adds request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey, requestID)
}

// WithUserID adds user ID to the context
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// WithCurrentUser adds the authenticated identity to the context
func WithCurrentUser(ctx context.Context, user interface{}) context.Context {
	return context.WithValue(ctx, CurrentUserKey, user)
}

// WithLogger adds logger to the context
func WithLogger(ctx context.Context, logger interface{}) context.Context {
	return context.WithValue(ctx, LoggerKey, logger)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		return requestID
	}
	return ""
}

// GetUserID retrieves user ID from context
func GetUserID(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}
