package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pethealth/pethealth/pkg/contextkeys"
	"github.com/pethealth/pethealth/pkg/observability"
	"github.com/pethealth/pethealth/pkg/users"
)

// RejectUnknownSubject is reported when a well-formed token names a user
// that no longer exists.
const RejectUnknownSubject = "unknown_subject"

// Recorder receives auth outcomes. *observability.Metrics satisfies it.
type Recorder interface {
	RecordAuthAttempt(operation, result string)
	RecordTokenRejection(reason string)
}

// Session is the result of a successful login
type Session struct {
	User      *users.User
	Token     string
	ExpiresAt time.Time
}

// Service orchestrates registration, login and session verification
type Service struct {
	users    users.Store
	hasher   PasswordHasher
	tokens   *TokenService
	logger   *observability.Logger
	recorder Recorder

	equalizeTiming bool
	dummyOnce      sync.Once
	dummyDigest    string
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithLogger sets the service logger
func WithLogger(logger *observability.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithRecorder reports outcomes to metrics
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) { s.recorder = r }
}

// WithTimingEqualization makes a login for an unknown email run one password
// verification against a throwaway digest, so its latency matches a wrong
// password for a known email.
func WithTimingEqualization(enabled bool) ServiceOption {
	return func(s *Service) { s.equalizeTiming = enabled }
}

// NewService creates the auth service
func NewService(store users.Store, hasher PasswordHasher, tokens *TokenService, opts ...ServiceOption) *Service {
	s := &Service{
		users:          store,
		hasher:         hasher,
		tokens:         tokens,
		logger:         observability.NopLogger(),
		equalizeTiming: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.equalizeTiming {
		s.dummy(context.Background())
	}
	return s
}

// TokenTTL is the lifetime of issued session tokens
func (s *Service) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

// Register creates a user. It does not log the user in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*users.User, error) {
	log := s.log(ctx).WithField("operation", "register")

	// Fast path only. Two concurrent registrations can both pass this check;
	// the store's unique constraint decides the winner below.
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		s.record("register", "conflict")
		return nil, &ConflictError{Message: MsgEmailInUse}
	} else if !errors.Is(err, users.ErrNotFound) {
		s.record("register", "error")
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	digest, err := s.hasher.Hash(ctx, password)
	if err != nil {
		s.record("register", "error")
		return nil, err
	}

	user := &users.User{Name: name, Email: email, PasswordHash: digest}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, users.ErrEmailTaken) {
			s.record("register", "conflict")
			return nil, &ConflictError{Message: MsgEmailInUse}
		}
		s.record("register", "error")
		return nil, err
	}

	s.record("register", "success")
	log.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Login checks credentials and issues a session token. Unknown email and
// wrong password return the same AuthError.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	log := s.log(ctx).WithField("operation", "login")

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			s.record("login", "error")
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		if s.equalizeTiming {
			if digest := s.dummy(ctx); digest != "" {
				_, _ = s.hasher.Verify(ctx, password, digest)
			}
		}
		s.record("login", "failure")
		log.Debug("login failed: unknown email")
		return nil, &AuthError{Message: MsgInvalidCredentials}
	}

	ok, err := s.hasher.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		s.record("login", "error")
		return nil, err
	}
	if !ok {
		s.record("login", "failure")
		log.WithField("user_id", user.ID).Debug("login failed: password mismatch")
		return nil, &AuthError{Message: MsgInvalidCredentials}
	}

	token, expiresAt, err := s.tokens.Sign(user.ID, user.Email)
	if err != nil {
		s.record("login", "error")
		return nil, err
	}

	s.record("login", "success")
	log.WithField("user_id", user.ID).Info("user logged in")
	return &Session{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// VerifyToken resolves a session token to its current user. Invalid tokens
// and tokens for users that no longer exist return an AuthError; store
// failures are returned as-is so callers can tell them apart.
func (s *Service) VerifyToken(ctx context.Context, token string) (*users.User, error) {
	claims, ok := s.tokens.Verify(token)
	if !ok {
		return nil, &AuthError{Message: MsgInvalidToken}
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			if s.recorder != nil {
				s.recorder.RecordTokenRejection(RejectUnknownSubject)
			}
			s.log(ctx).WithField("subject", claims.Subject).Debug("token rejected: unknown subject")
			return nil, &AuthError{Message: MsgInvalidToken}
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	return user, nil
}

// dummy hashes a random password once, on first use. Returns "" if hashing failed,
// in which case the equalization step is skipped.
func (s *Service) dummy(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		buf := make([]byte, 18)
		if _, err := rand.Read(buf); err != nil {
			return
		}
		digest, err := s.hasher.Hash(context.WithoutCancel(ctx), base64.RawStdEncoding.EncodeToString(buf))
		if err != nil {
			s.logger.WithError(err).Warn("failed to prepare timing equalization digest")
			return
		}
		s.dummyDigest = digest
	})
	return s.dummyDigest
}

func (s *Service) record(operation, result string) {
	if s.recorder != nil {
		s.recorder.RecordAuthAttempt(operation, result)
	}
}

func (s *Service) log(ctx context.Context) *observability.Logger {
	if id := contextkeys.GetRequestID(ctx); id != "" {
		return s.logger.WithField("request_id", id)
	}
	return s.logger
}
