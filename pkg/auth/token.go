package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the session lifetime when none is configured
const DefaultTokenTTL = 24 * time.Hour

// Token rejection reasons. These are only reported to logs and metrics.
const (
	RejectMalformed     = "malformed"
	RejectBadSignature  = "bad_signature"
	RejectExpired       = "expired"
	RejectInvalidClaims = "invalid_claims"
)

// Claims is the session token payload. Subject holds the user id.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// TokenService signs and verifies stateless HS256 session tokens
type TokenService struct {
	secret   []byte
	ttl      time.Duration
	now      func() time.Time
	onReject func(reason string, err error)
}

// TokenOption configures a TokenService
type TokenOption func(*TokenService)

// WithClock overrides time.Now, for tests
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithRejectHook is called with the reason each time Verify rejects a token
func WithRejectHook(fn func(reason string, err error)) TokenOption {
	return func(s *TokenService) { s.onReject = fn }
}

// NewTokenService creates a token service. The secret must not be empty.
func NewTokenService(secret string, ttl time.Duration, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("token signing secret is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	s := &TokenService{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// TTL returns the lifetime of issued tokens
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Sign issues a token for the user. Each token carries a unique jti, so two
// tokens signed in the same second still differ.
func (s *TokenService) Sign(userID, email string) (string, time.Time, error) {
	now := s.now().UTC().Truncate(time.Second)
	expiresAt := now.Add(s.ttl)

	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify returns the claims of a valid token. Every failure collapses to
// (nil, false); the reason only reaches the reject hook.
func (s *TokenService) Verify(token string) (*Claims, bool) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !parsed.Valid {
		s.reject(classify(err), err)
		return nil, false
	}
	if claims.Subject == "" {
		s.reject(RejectInvalidClaims, errors.New("token has no subject"))
		return nil, false
	}
	return claims, true
}

func (s *TokenService) reject(reason string, err error) {
	if s.onReject != nil {
		s.onReject(reason, err)
	}
}

func classify(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return RejectMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return RejectBadSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return RejectExpired
	default:
		return RejectInvalidClaims
	}
}
