package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/pethealth/pethealth/pkg/observability"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	StorageTypePostgres = "postgres"
	StorageTypeMemory   = "memory"

	// Secret used only outside production so a fresh checkout can boot.
	devJWTSecret = "dev-secret-change-me"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Auth          AuthConfig
	Storage       StorageConfig
	RateLimit     RateLimitConfig
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Environment     string
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64

	// Origins allowed to make credentialed cross-origin requests
	AllowedOrigins []string

	// Health/metrics server (separate port for k8s probes)
	HealthPort string

	// Key rate limits by X-Forwarded-For; only safe behind a trusted proxy
	TrustProxyHeaders bool
}

// AuthConfig holds session and credential settings
type AuthConfig struct {
	JWTSecret           string
	TokenTTL            time.Duration
	BcryptCost          int
	HashConcurrency     int
	EqualizeLoginTiming bool

	CookieName     string
	CookieDomain   string
	CookieSameSite string
	CookieSecure   bool
}

// StorageConfig holds persistence settings
type StorageConfig struct {
	Type string

	PostgresURL         string
	PostgresMaxConns    int
	PostgresMinConns    int
	PostgresTimeout     time.Duration
	PostgresMaxLifetime time.Duration
	PostgresMaxIdleTime time.Duration
	RunMigrations       bool

	// Optional. Enables the shared login limiter and the redis readiness check.
	RedisURL      string
	RedisPoolSize int

	SpeciesCacheSize int
	SeedSpecies      bool
}

// RateLimitConfig holds login throttling settings
type RateLimitConfig struct {
	LoginRequestsPerWindow int
	LoginWindow            time.Duration
	LoginBurst             int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool

	// "stdout", "stderr", "" (disabled) or a file path
	AuditLog string

	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	server := loadServerConfig()
	cfg := &Config{
		Server:        server,
		Auth:          loadAuthConfig(server.Environment),
		Storage:       loadStorageConfig(),
		RateLimit:     loadRateLimitConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// IsProduction reports whether the service runs with production hardening
func (c *Config) IsProduction() bool {
	return c.Server.Environment == EnvProduction
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Environment:     strings.ToLower(getEnv("PETHEALTH_ENV", EnvDevelopment)),
		Host:            getEnv("PETHEALTH_HOST", "0.0.0.0"),
		Port:            getEnv("PETHEALTH_PORT", "5000"),
		ReadTimeout:     getEnvDuration("PETHEALTH_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("PETHEALTH_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("PETHEALTH_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("PETHEALTH_SHUTDOWN_TIMEOUT", 30*time.Second),
		MaxBodyBytes:    getEnvInt64("PETHEALTH_MAX_BODY_BYTES", 1<<20),
		AllowedOrigins:  splitList(getEnv("PETHEALTH_WEB_ORIGIN", "http://localhost:5173")),
		HealthPort:      getEnv("PETHEALTH_HEALTH_PORT", "9090"),

		TrustProxyHeaders: getEnvBool("PETHEALTH_TRUST_PROXY_HEADERS", false),
	}
}

func loadAuthConfig(environment string) AuthConfig {
	secret := getEnv("PETHEALTH_JWT_SECRET", "")
	if secret == "" && environment != EnvProduction {
		secret = devJWTSecret
	}

	return AuthConfig{
		JWTSecret:           secret,
		TokenTTL:            getEnvDuration("PETHEALTH_TOKEN_TTL", 24*time.Hour),
		BcryptCost:          getEnvInt("PETHEALTH_BCRYPT_COST", 10),
		HashConcurrency:     getEnvInt("PETHEALTH_HASH_CONCURRENCY", runtime.GOMAXPROCS(0)),
		EqualizeLoginTiming: getEnvBool("PETHEALTH_EQUALIZE_LOGIN_TIMING", true),
		CookieName:          getEnv("PETHEALTH_COOKIE_NAME", "auth_token"),
		CookieDomain:        getEnv("PETHEALTH_COOKIE_DOMAIN", ""),
		CookieSameSite:      strings.ToLower(getEnv("PETHEALTH_COOKIE_SAMESITE", "lax")),
		CookieSecure:        getEnvBool("PETHEALTH_COOKIE_SECURE", environment == EnvProduction),
	}
}

func loadStorageConfig() StorageConfig {
	return StorageConfig{
		Type:                strings.ToLower(getEnv("PETHEALTH_STORAGE_TYPE", StorageTypePostgres)),
		PostgresURL:         getEnv("PETHEALTH_DATABASE_URL", ""),
		PostgresMaxConns:    getEnvInt("PETHEALTH_DB_MAX_CONNS", 20),
		PostgresMinConns:    getEnvInt("PETHEALTH_DB_MIN_CONNS", 2),
		PostgresTimeout:     getEnvDuration("PETHEALTH_DB_TIMEOUT", 5*time.Second),
		PostgresMaxLifetime: getEnvDuration("PETHEALTH_DB_MAX_LIFETIME", 30*time.Minute),
		PostgresMaxIdleTime: getEnvDuration("PETHEALTH_DB_MAX_IDLE_TIME", 5*time.Minute),
		RunMigrations:       getEnvBool("PETHEALTH_DB_MIGRATE", true),
		RedisURL:            getEnv("PETHEALTH_REDIS_URL", ""),
		RedisPoolSize:       getEnvInt("PETHEALTH_REDIS_POOL_SIZE", 10),
		SpeciesCacheSize:    getEnvInt("PETHEALTH_SPECIES_CACHE_SIZE", 128),
		SeedSpecies:         getEnvBool("PETHEALTH_SEED_SPECIES", true),
	}
}

func loadRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		LoginRequestsPerWindow: getEnvInt("PETHEALTH_LOGIN_RATE_LIMIT", 10),
		LoginWindow:            getEnvDuration("PETHEALTH_LOGIN_RATE_WINDOW", time.Minute),
		LoginBurst:             getEnvInt("PETHEALTH_LOGIN_RATE_BURST", 0),
	}
}

func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           parseLogLevel(getEnv("PETHEALTH_LOG_LEVEL", "info")),
		MetricsEnabled:     getEnvBool("PETHEALTH_METRICS_ENABLED", true),
		AuditLog:           getEnv("PETHEALTH_AUDIT_LOG", "stdout"),
		OTelEnabled:        getEnvBool("PETHEALTH_OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("PETHEALTH_OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    getEnv("PETHEALTH_OTEL_SERVICE_NAME", "pethealth-api"),
		OTelServiceVersion: getEnv("PETHEALTH_OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       getEnvBool("PETHEALTH_OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Server.Environment {
	case EnvDevelopment, EnvProduction:
	default:
		return fmt.Errorf("invalid environment: %s (must be development or production)", c.Server.Environment)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required (set PETHEALTH_JWT_SECRET)")
	}
	if c.IsProduction() && c.Auth.JWTSecret == devJWTSecret {
		return fmt.Errorf("the development JWT secret must not be used in production")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost must be between 4 and 31, got %d", c.Auth.BcryptCost)
	}
	if c.Auth.HashConcurrency < 1 {
		return fmt.Errorf("hash concurrency must be at least 1")
	}
	if c.Auth.CookieName == "" {
		return fmt.Errorf("cookie name is required")
	}
	switch c.Auth.CookieSameSite {
	case "lax", "strict":
	case "none":
		if !c.Auth.CookieSecure {
			return fmt.Errorf("SameSite=None cookies must be secure")
		}
	default:
		return fmt.Errorf("invalid cookie SameSite mode: %s (must be lax, strict, or none)", c.Auth.CookieSameSite)
	}

	switch c.Storage.Type {
	case StorageTypePostgres:
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("database URL is required for postgres storage")
		}
	case StorageTypeMemory:
		if c.IsProduction() {
			return fmt.Errorf("memory storage is not allowed in production")
		}
	default:
		return fmt.Errorf("invalid storage type: %s (must be postgres or memory)", c.Storage.Type)
	}

	if c.RateLimit.LoginRequestsPerWindow < 0 {
		return fmt.Errorf("login rate limit must not be negative")
	}
	if c.RateLimit.LoginRequestsPerWindow > 0 && c.RateLimit.LoginWindow <= 0 {
		return fmt.Errorf("login rate window must be positive")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
	}

	return nil
}

func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// splitList splits a comma-separated value, dropping blanks
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
