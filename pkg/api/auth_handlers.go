package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pethealth/pethealth/pkg/audit"
	"github.com/pethealth/pethealth/pkg/auth"
	"github.com/pethealth/pethealth/pkg/httputil"
	"github.com/pethealth/pethealth/pkg/middleware"
	"github.com/pethealth/pethealth/pkg/observability"
	"github.com/pethealth/pethealth/pkg/users"
)

// Authenticator is the part of auth.Service the HTTP surface calls
type Authenticator interface {
	Register(ctx context.Context, name, email, password string) (*users.User, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	TokenTTL() time.Duration
}

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toUserResponse(u *users.User) userResponse {
	return userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

// AuthHandlers handles authentication-related HTTP requests
type AuthHandlers struct {
	service     Authenticator
	cookies     *CookieManager
	guard       func(http.Handler) http.Handler
	loginLimit  func(http.Handler) http.Handler
	auditLogger audit.Logger
}

// NewAuthHandlers creates the auth handlers. guard protects /auth/me;
// loginLimit, when non-nil, throttles /auth/login.
func NewAuthHandlers(service Authenticator, cookies *CookieManager, guard, loginLimit func(http.Handler) http.Handler, auditLogger audit.Logger) *AuthHandlers {
	if auditLogger == nil {
		auditLogger = audit.NoOpLogger()
	}
	return &AuthHandlers{
		service:     service,
		cookies:     cookies,
		guard:       guard,
		loginLimit:  loginLimit,
		auditLogger: auditLogger,
	}
}

// RegisterRoutes registers authentication routes
func (h *AuthHandlers) RegisterRoutes(router *mux.Router) {
	var login http.Handler = http.HandlerFunc(h.login)
	if h.loginLimit != nil {
		login = h.loginLimit(login)
	}

	router.HandleFunc("/auth/register", h.register).Methods(http.MethodPost)
	router.Handle("/auth/login", login).Methods(http.MethodPost)
	router.HandleFunc("/auth/logout", h.logout).Methods(http.MethodPost)
	router.Handle("/auth/me", h.guard(http.HandlerFunc(h.me))).Methods(http.MethodGet)
}

// register handles POST /auth/register
func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if auth.IsConflict(err) {
			h.audit(r, audit.EventTypeAuthRegister, audit.EventStatusFailure, "", req.Email, err.Error())
		}
		writeServiceError(w, r, err)
		return
	}

	h.audit(r, audit.EventTypeAuthRegister, audit.EventStatusSuccess, user.ID, user.Email, "")
	httputil.WriteCreated(w, toUserResponse(user))
}

// login handles POST /auth/login
func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if auth.IsAuth(err) {
			h.audit(r, audit.EventTypeAuthLoginFailed, audit.EventStatusFailure, "", req.Email, err.Error())
		}
		writeServiceError(w, r, err)
		return
	}

	h.cookies.Set(w, session.Token, h.service.TokenTTL())
	h.audit(r, audit.EventTypeAuthLogin, audit.EventStatusSuccess, session.User.ID, session.User.Email, "")
	httputil.WriteSuccess(w, toUserResponse(session.User))
}

// logout handles POST /auth/logout. Tokens are stateless, so only the
// client's cookie is cleared.
func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	h.cookies.Clear(w)
	h.audit(r, audit.EventTypeAuthLogout, audit.EventStatusSuccess, "", "", "")
	httputil.WriteSuccess(w, map[string]bool{"success": true})
}

// me handles GET /auth/me
func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, auth.MsgMissingToken)
		return
	}
	httputil.WriteSuccess(w, toUserResponse(user))
}

func (h *AuthHandlers) audit(r *http.Request, eventType audit.EventType, status audit.EventStatus, userID, email, message string) {
	event := audit.NewEvent(r, eventType, status)
	if userID != "" {
		event.UserID = userID
	}
	event.Email = email
	event.Message = message

	if err := h.auditLogger.Log(r.Context(), event); err != nil {
		observability.FromContext(r.Context()).WithError(err).Warn("failed to write audit event")
	}
}
