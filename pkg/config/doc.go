// Package config loads the pet-health API configuration from environment variables.
//
// # Configuration Structure
//
// Server settings:
//
//	PETHEALTH_ENV="development"        # development, production
//	PETHEALTH_PORT="5000"
//	PETHEALTH_HEALTH_PORT="9090"
//	PETHEALTH_WEB_ORIGIN="http://localhost:5173,https://app.example.com"
//
// Session settings:
//
//	PETHEALTH_JWT_SECRET="..."         # required in production
//	PETHEALTH_TOKEN_TTL="24h"
//	PETHEALTH_BCRYPT_COST="10"
//	PETHEALTH_HASH_CONCURRENCY="4"
//	PETHEALTH_COOKIE_NAME="auth_token"
//	PETHEALTH_COOKIE_SAMESITE="lax"    # lax, strict, none
//
// Storage settings:
//
//	PETHEALTH_STORAGE_TYPE="postgres"  # postgres, memory
//	PETHEALTH_DATABASE_URL="postgres://localhost/pethealth?sslmode=disable"
//	PETHEALTH_REDIS_URL="redis://localhost:6379/0"
//
// Observability settings:
//
//	PETHEALTH_LOG_LEVEL="info"         # debug, info, warn, error
//	PETHEALTH_AUDIT_LOG="stdout"       # stdout, stderr, file path, or empty
//	PETHEALTH_OTEL_ENABLED="true"
//	PETHEALTH_OTEL_ENDPOINT="otel-collector:4317"
//
// # Usage Example
//
//	cfg, err := config.LoadConfig()
//	if err != nil {
//		log.Fatal(err)
//	}
//	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
package config
