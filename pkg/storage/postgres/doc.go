// Package postgres opens the PostgreSQL pool, applies the embedded goose
// migrations and builds the optional Redis client shared by the rate limiter
// and readiness checks.
package postgres
