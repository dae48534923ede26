package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestTokens(t *testing.T, clock *fakeClock, reasons *[]string) *TokenService {
	t.Helper()
	opts := []TokenOption{WithClock(clock.Now)}
	if reasons != nil {
		opts = append(opts, WithRejectHook(func(reason string, err error) {
			*reasons = append(*reasons, reason)
		}))
	}
	svc, err := NewTokenService("test-secret", 24*time.Hour, opts...)
	require.NoError(t, err)
	return svc
}

func TestNewTokenService(t *testing.T) {
	_, err := NewTokenService("", time.Hour)
	assert.Error(t, err)

	svc, err := NewTokenService("s", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTokenTTL, svc.TTL())
}

func TestTokenService_SignAndVerify(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestTokens(t, clock, nil)

	token, expiresAt, err := svc.Sign("user-1", "ana@x.io")
	require.NoError(t, err)
	assert.Equal(t, clock.t.Add(24*time.Hour), expiresAt)
	assert.Len(t, strings.Split(token, "."), 3)

	claims, ok := svc.Verify(token)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ana@x.io", claims.Email)
	assert.Equal(t, clock.t, claims.IssuedAt.Time.UTC())
	assert.Equal(t, expiresAt, claims.ExpiresAt.Time.UTC())
}

func TestTokenService_TokensDifferForSameUser(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	svc := newTestTokens(t, clock, nil)

	a, _, err := svc.Sign("user-1", "ana@x.io")
	require.NoError(t, err)
	b, _, err := svc.Sign("user-1", "ana@x.io")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokenService_Expiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	var reasons []string
	svc := newTestTokens(t, clock, &reasons)

	token, _, err := svc.Sign("user-1", "ana@x.io")
	require.NoError(t, err)

	clock.Advance(24*time.Hour - time.Second)
	_, ok := svc.Verify(token)
	assert.True(t, ok, "one second before expiry")

	clock.Advance(time.Second)
	_, ok = svc.Verify(token)
	assert.False(t, ok, "exactly at expiry")

	assert.Equal(t, []string{RejectExpired}, reasons)
}

func TestTokenService_Rejections(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	var reasons []string
	svc := newTestTokens(t, clock, &reasons)

	good, _, err := svc.Sign("user-1", "ana@x.io")
	require.NoError(t, err)

	other, err := NewTokenService("other-secret", time.Hour, WithClock(clock.Now))
	require.NoError(t, err)
	foreign, _, err := other.Sign("user-1", "ana@x.io")
	require.NoError(t, err)

	// alg "none" must never be accepted
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1", ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "user-1"},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.t.Add(time.Hour))},
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	// payload from another user's token with this token's signature
	otherUser, _, err := svc.Sign("user-2", "bo@x.io")
	require.NoError(t, err)
	parts := strings.Split(good, ".")
	tampered := parts[0] + "." + strings.Split(otherUser, ".")[1] + "." + parts[2]

	tests := []struct {
		name   string
		token  string
		reason string
	}{
		{"empty", "", RejectMalformed},
		{"garbage", "not.a.jwt", RejectMalformed},
		{"wrong secret", foreign, RejectBadSignature},
		{"tampered payload", tampered, RejectBadSignature},
		{"alg none", unsigned, RejectBadSignature},
		{"no expiry", noExpiry, RejectInvalidClaims},
		{"no subject", noSubject, RejectInvalidClaims},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reasons = nil
			claims, ok := svc.Verify(tt.token)
			assert.False(t, ok)
			assert.Nil(t, claims)
			require.Len(t, reasons, 1)
			assert.Equal(t, tt.reason, reasons[0])
		})
	}
}
