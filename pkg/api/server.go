package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pethealth/pethealth/pkg/audit"
	"github.com/pethealth/pethealth/pkg/httputil"
	"github.com/pethealth/pethealth/pkg/middleware"
	"github.com/pethealth/pethealth/pkg/observability"
	"github.com/pethealth/pethealth/pkg/users"
)

// AuthService is what the server needs from auth.Service: the HTTP
// operations plus token verification for the session guard.
type AuthService interface {
	Authenticator
	VerifyToken(ctx context.Context, token string) (*users.User, error)
}

// Config holds HTTP surface settings
type Config struct {
	Cookie         CookieConfig
	AllowedOrigins []string
	MaxBodyBytes   int64

	// LoginWindow is the Retry-After fallback for throttled logins
	LoginWindow time.Duration

	// Empty disables request tracing
	TracingServiceName string

	// Key the login limiter by forwarding headers instead of the peer address
	TrustProxyHeaders bool
}

// Dependencies are the services and infrastructure the handlers use.
// LoginLimiter, Metrics and Audit are optional.
type Dependencies struct {
	Auth         AuthService
	Species      SpeciesReader
	Pets         PetService
	LoginLimiter middleware.Limiter
	Logger       *observability.Logger
	Metrics      *observability.Metrics
	Audit        audit.Logger
}

// Server represents our API server
type Server struct {
	router  *mux.Router
	handler http.Handler
	cookies *CookieManager
}

// NewServer creates a new API server with all routes registered
func NewServer(cfg Config, deps Dependencies) *Server {
	if deps.Logger == nil {
		deps.Logger = observability.NopLogger()
	}
	if deps.Audit == nil {
		deps.Audit = audit.NoOpLogger()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = 1 << 20
	}
	if cfg.LoginWindow <= 0 {
		cfg.LoginWindow = time.Minute
	}

	s := &Server{
		router:  mux.NewRouter(),
		cookies: NewCookieManager(cfg.Cookie),
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "Not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteErrorMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	// Installed with Use so the route template is known when labelling
	s.router.Use(observability.HTTPMetricsMiddleware(deps.Metrics))
	if cfg.TracingServiceName != "" {
		s.router.Use(observability.TracingMiddleware(cfg.TracingServiceName))
	}

	mwOpts := []middleware.Option{
		middleware.WithLogger(deps.Logger),
		middleware.WithAudit(deps.Audit),
		middleware.WithMetrics(deps.Metrics),
	}

	guard := middleware.NewSessionGuard(deps.Auth, s.cookies.Name(), mwOpts...).Handler

	var loginLimit func(http.Handler) http.Handler
	if deps.LoginLimiter != nil {
		limitOpts := append(mwOpts, middleware.WithTrustedProxyHeaders(cfg.TrustProxyHeaders))
		loginLimit = middleware.NewRateLimitMiddleware(deps.LoginLimiter, cfg.LoginWindow, "login", limitOpts...).Handler
	}

	s.RegisterRoutes(NewAuthHandlers(deps.Auth, s.cookies, guard, loginLimit, deps.Audit))
	s.RegisterRoutes(NewSpeciesHandlers(deps.Species))
	s.RegisterRoutes(NewPetHandlers(deps.Pets, guard))

	s.handler = httputil.Chain(
		httputil.RecoveryMiddleware(deps.Logger),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(deps.Logger),
		httputil.CORSMiddleware(cfg.AllowedOrigins),
		httputil.MaxBytesMiddleware(cfg.MaxBodyBytes),
	)(s.router)

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}
