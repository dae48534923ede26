package auth

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// DefaultBcryptCost is the work factor used when none is configured
const DefaultBcryptCost = 10

// PasswordHasher produces and checks one-way salted digests
type PasswordHasher interface {
	Hash(ctx context.Context, plaintext string) (string, error)
	// Verify reports whether plaintext matches digest. Malformed digests
	// yield false. The error is only non-nil when ctx ends first.
	Verify(ctx context.Context, plaintext, digest string) (bool, error)
}

// HashObserver receives the wall time of each hash or verify call
type HashObserver interface {
	ObservePasswordHash(operation string, elapsed time.Duration)
}

// BcryptHasher bounds the number of concurrent bcrypt computations so a
// burst of logins cannot starve request handling of CPU.
type BcryptHasher struct {
	cost     int
	sem      *semaphore.Weighted
	observer HashObserver
}

// HasherOption configures a BcryptHasher
type HasherOption func(*BcryptHasher)

// WithHashObserver reports hash timings, typically to observability.Metrics
func WithHashObserver(o HashObserver) HasherOption {
	return func(h *BcryptHasher) { h.observer = o }
}

// NewBcryptHasher creates a hasher. concurrency <= 0 means GOMAXPROCS.
func NewBcryptHasher(cost, concurrency int, opts ...HasherOption) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	h := &BcryptHasher{
		cost: cost,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Hash returns a bcrypt digest. Passwords over 72 bytes are an InputError.
func (h *BcryptHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.sem.Release(1)

	start := time.Now()
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	h.observe("hash", start)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", &InputError{Message: "password must be at most 72 bytes"}
		}
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(digest), nil
}

func (h *BcryptHasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.sem.Release(1)

	start := time.Now()
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	h.observe("verify", start)
	return err == nil, nil
}

func (h *BcryptHasher) observe(operation string, start time.Time) {
	if h.observer != nil {
		h.observer.ObservePasswordHash(operation, time.Since(start))
	}
}
