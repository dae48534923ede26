package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/pethealth/pethealth/pkg/audit"
	"github.com/pethealth/pethealth/pkg/auth"
	"github.com/pethealth/pethealth/pkg/contextkeys"
	"github.com/pethealth/pethealth/pkg/httputil"
	"github.com/pethealth/pethealth/pkg/users"
)

// TokenVerifier resolves a session token to a user. *auth.Service satisfies it.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (*users.User, error)
}

// SessionGuard rejects requests without a valid session cookie and attaches
// the resolved user to the request context otherwise.
type SessionGuard struct {
	verifier   TokenVerifier
	cookieName string
	opts       options
}

// NewSessionGuard creates a guard reading the session token from cookieName
func NewSessionGuard(verifier TokenVerifier, cookieName string, opts ...Option) *SessionGuard {
	return &SessionGuard{
		verifier:   verifier,
		cookieName: cookieName,
		opts:       newOptions(opts),
	}
}

// Handler wraps an HTTP handler with session authentication
func (g *SessionGuard) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		cookie, err := r.Cookie(g.cookieName)
		if err != nil || cookie.Value == "" {
			g.reject(w, r, auth.MsgMissingToken)
			return
		}

		user, err := g.verifier.VerifyToken(ctx, cookie.Value)
		if err != nil {
			var authErr *auth.AuthError
			if errors.As(err, &authErr) {
				g.reject(w, r, authErr.Message)
				return
			}
			g.opts.logger.WithError(err).WithField("path", r.URL.Path).Error("session verification failed")
			httputil.WriteInternalError(w)
			return
		}

		ctx = contextkeys.WithCurrentUser(ctx, user)
		ctx = contextkeys.WithUserID(ctx, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (g *SessionGuard) reject(w http.ResponseWriter, r *http.Request, message string) {
	event := audit.NewEvent(r, audit.EventTypeAuthTokenValidateFail, audit.EventStatusDenied)
	event.Message = message
	if err := g.opts.audit.Log(r.Context(), event); err != nil {
		g.opts.logger.WithError(err).Warn("failed to write audit event")
	}
	httputil.WriteUnauthorized(w, message)
}

// CurrentUser returns the user attached by SessionGuard
func CurrentUser(ctx context.Context) (*users.User, bool) {
	user, ok := ctx.Value(contextkeys.CurrentUserKey).(*users.User)
	return user, ok && user != nil
}
