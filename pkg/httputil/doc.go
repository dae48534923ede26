// Package httputil provides HTTP utilities for standardized request/response handling.
//
// # Response Helpers
//
// Every error body has the shape {"error": "..."} with optional per-field details:
//
//	httputil.WriteSuccess(w, user)
//	httputil.WriteCreated(w, pet)
//	httputil.WriteConflict(w, "Email already in use")
//	httputil.WriteDetailedError(w, http.StatusBadRequest, "Validation failed", details)
//
// WriteInternalError never echoes the underlying cause.
//
// # Request Parsing
//
// ParseJSON is strict: unknown fields, trailing data and empty bodies are errors.
//
//	var req registerRequest
//	if !httputil.ParseJSONOrError(w, r, &req) {
//		return // 400 already written
//	}
//
// # Middleware
//
//	httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//		httputil.CORSMiddleware(cfg.Server.AllowedOrigins),
//		httputil.MaxBytesMiddleware(cfg.Server.MaxBodyBytes),
//	)
//
// # Related Packages
//
//   - pkg/middleware: session guard and login rate limiting
package httputil
