package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pethealth/pethealth/pkg/audit"
	"github.com/pethealth/pethealth/pkg/auth"
	"github.com/pethealth/pethealth/pkg/contextkeys"
	"github.com/pethealth/pethealth/pkg/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct {
	user  *users.User
	err   error
	calls int
}

func (s *stubVerifier) VerifyToken(ctx context.Context, token string) (*users.User, error) {
	s.calls++
	if token != "good" && s.err == nil {
		return nil, &auth.AuthError{Message: auth.MsgInvalidToken}
	}
	return s.user, s.err
}

func guardedRequest(t *testing.T, guard *SessionGuard, cookie *http.Cookie) (*httptest.ResponseRecorder, *users.User, bool) {
	t.Helper()
	var seen *users.User
	called := false
	h := guard.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = CurrentUser(r.Context())
		assert.Equal(t, seen.ID, contextkeys.GetUserID(r.Context()))
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/auth/me", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w, seen, called
}

func TestSessionGuard(t *testing.T) {
	ana := &users.User{ID: "u-1", Name: "Ana", Email: "ana@x.io"}

	t.Run("missing cookie", func(t *testing.T) {
		v := &stubVerifier{user: ana}
		w, _, called := guardedRequest(t, NewSessionGuard(v, "auth_token"), nil)

		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Missing auth token"}`, w.Body.String())
		assert.Zero(t, v.calls)
	})

	t.Run("empty cookie", func(t *testing.T) {
		w, _, called := guardedRequest(t, NewSessionGuard(&stubVerifier{}, "auth_token"), &http.Cookie{Name: "auth_token", Value: ""})
		assert.False(t, called)
		assert.JSONEq(t, `{"error":"Missing auth token"}`, w.Body.String())
	})

	t.Run("other cookie name", func(t *testing.T) {
		w, _, called := guardedRequest(t, NewSessionGuard(&stubVerifier{user: ana}, "auth_token"), &http.Cookie{Name: "session", Value: "good"})
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid token", func(t *testing.T) {
		w, _, called := guardedRequest(t, NewSessionGuard(&stubVerifier{user: ana}, "auth_token"), &http.Cookie{Name: "auth_token", Value: "forged"})
		assert.False(t, called)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"error":"Invalid auth token"}`, w.Body.String())
	})

	t.Run("valid token", func(t *testing.T) {
		w, seen, called := guardedRequest(t, NewSessionGuard(&stubVerifier{user: ana}, "auth_token"), &http.Cookie{Name: "auth_token", Value: "good"})
		require.True(t, called)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, ana, seen)
	})

	t.Run("store failure is not a 401", func(t *testing.T) {
		v := &stubVerifier{err: errors.New("connection refused")}
		w, _, called := guardedRequest(t, NewSessionGuard(v, "auth_token"), &http.Cookie{Name: "auth_token", Value: "good"})
		assert.False(t, called)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}

func TestSessionGuard_AuditsRejections(t *testing.T) {
	var buf bytes.Buffer
	guard := NewSessionGuard(&stubVerifier{}, "auth_token", WithAudit(audit.NewLogrusLogger(&buf)))

	guardedRequest(t, guard, nil)

	assert.Contains(t, buf.String(), `"event_type":"auth.token_validate_fail"`)
	assert.Contains(t, buf.String(), `"message":"Missing auth token"`)
}

func TestCurrentUser_Absent(t *testing.T) {
	_, ok := CurrentUser(context.Background())
	assert.False(t, ok)

	var nilUser *users.User
	_, ok = CurrentUser(contextkeys.WithCurrentUser(context.Background(), nilUser))
	assert.False(t, ok)
}
