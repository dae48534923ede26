package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pethealth/pethealth/pkg/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeRecorder struct {
	mu         sync.Mutex
	attempts   map[string]int
	rejections map[string]int
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{attempts: map[string]int{}, rejections: map[string]int{}}
}

func (r *fakeRecorder) RecordAuthAttempt(operation, result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts[operation+"/"+result]++
}

func (r *fakeRecorder) RecordTokenRejection(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rejections[reason]++
}

// countingHasher counts calls so tests can check the unknown-email path does the same work
type countingHasher struct {
	PasswordHasher
	mu       sync.Mutex
	hashes   int
	verifies int
}

func (h *countingHasher) Hash(ctx context.Context, plaintext string) (string, error) {
	h.mu.Lock()
	h.hashes++
	h.mu.Unlock()
	return h.PasswordHasher.Hash(ctx, plaintext)
}

func (h *countingHasher) Verify(ctx context.Context, plaintext, digest string) (bool, error) {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.PasswordHasher.Verify(ctx, plaintext, digest)
}

// racingStore lets FindByEmail miss but Create lose the race
type racingStore struct {
	*users.MemoryStore
}

func (s racingStore) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return nil, users.ErrNotFound
}

type brokenStore struct{ users.Store }

func (brokenStore) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) FindByID(ctx context.Context, id string) (*users.User, error) {
	return nil, errors.New("connection refused")
}

type serviceFixture struct {
	svc      *Service
	store    *users.MemoryStore
	hasher   *countingHasher
	clock    *fakeClock
	recorder *fakeRecorder
}

func newServiceFixture(t *testing.T, opts ...ServiceOption) *serviceFixture {
	t.Helper()
	bh, err := NewBcryptHasher(bcrypt.MinCost, 4)
	require.NoError(t, err)

	clock := &fakeClock{t: time.Now().UTC().Truncate(time.Second)}
	tokens, err := NewTokenService("test-secret", 24*time.Hour, WithClock(clock.Now))
	require.NoError(t, err)

	f := &serviceFixture{
		store:    users.NewMemoryStore(),
		hasher:   &countingHasher{PasswordHasher: bh},
		clock:    clock,
		recorder: newFakeRecorder(),
	}
	opts = append([]ServiceOption{WithRecorder(f.recorder)}, opts...)
	f.svc = NewService(f.store, f.hasher, tokens, opts...)
	return f
}

func TestService_RegisterLoginVerify(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	user, err := f.svc.Register(ctx, "Ana", "ana@x.io", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Ana", user.Name)
	assert.NotEqual(t, "secret1", user.PasswordHash)

	session, err := f.svc.Login(ctx, "ana@x.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, session.User.ID)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, f.clock.t.Add(24*time.Hour), session.ExpiresAt)

	for i := 0; i < 4; i++ {
		me, err := f.svc.VerifyToken(ctx, session.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, me.ID)
		assert.Equal(t, "Ana", me.Name)
		assert.Equal(t, "ana@x.io", me.Email)
	}
	assert.Empty(t, f.recorder.rejections)

	assert.Equal(t, 1, f.recorder.attempts["register/success"])
	assert.Equal(t, 1, f.recorder.attempts["login/success"])
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.Register(ctx, "Ana", "ana@x.io", "secret1")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "Other", "ana@x.io", "different")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, MsgEmailInUse, err.Error())

	// case-sensitive: a differently cased email is a new account
	_, err = f.svc.Register(ctx, "Ana", "Ana@x.io", "secret1")
	assert.NoError(t, err)
}

func TestService_RegisterLosesRace(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)
	require.NoError(t, f.store.Create(ctx, &users.User{Email: "ana@x.io"}))

	bh, _ := NewBcryptHasher(bcrypt.MinCost, 1)
	tokens, _ := NewTokenService("s", time.Hour)
	svc := NewService(racingStore{f.store}, bh, tokens)

	_, err := svc.Register(ctx, "Ana", "ana@x.io", "secret1")
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestService_ConcurrentRegisterSameEmail(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Register(ctx, "Ana", "race@x.io", "secret1")
		}(i)
	}
	wg.Wait()

	var ok, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case IsConflict(err):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, len(errs)-1, conflicts)
}

func TestService_RegisterPasswordTooLong(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Register(context.Background(), "Ana", "ana@x.io", string(make([]byte, 100)))
	require.Error(t, err)
	assert.True(t, IsInput(err))
}

func TestService_LoginFailuresAreIndistinguishable(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	_, err := f.svc.Register(ctx, "Ana", "ana@x.io", "secret1")
	require.NoError(t, err)

	hashes := f.hasher.hashes
	f.hasher.verifies = 0
	_, wrongPassword := f.svc.Login(ctx, "ana@x.io", "nope")
	require.Error(t, wrongPassword)
	afterWrong := f.hasher.verifies

	_, unknownEmail := f.svc.Login(ctx, "ghost@x.io", "nope")
	require.Error(t, unknownEmail)
	afterUnknown := f.hasher.verifies - afterWrong

	assert.True(t, IsAuth(wrongPassword))
	assert.True(t, IsAuth(unknownEmail))
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
	assert.Equal(t, MsgInvalidCredentials, unknownEmail.Error())
	assert.Equal(t, afterWrong, afterUnknown, "both paths run one verification")
	assert.Equal(t, hashes, f.hasher.hashes, "no hashing on the login path")
	assert.Equal(t, 2, f.recorder.attempts["login/failure"])
}

func TestService_LoginWithoutTimingEqualization(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, WithTimingEqualization(false))

	_, err := f.svc.Login(ctx, "ghost@x.io", "nope")
	assert.True(t, IsAuth(err))
	assert.Zero(t, f.hasher.verifies)
	assert.Zero(t, f.hasher.hashes)
}

func TestService_EqualizationDigestPreparedAtConstruction(t *testing.T) {
	f := newServiceFixture(t)
	assert.Equal(t, 1, f.hasher.hashes)
	assert.NotEmpty(t, f.svc.dummyDigest)

	_, err := f.svc.Login(context.Background(), "ghost@x.io", "nope")
	assert.True(t, IsAuth(err))
	assert.Equal(t, 1, f.hasher.hashes)
	assert.Equal(t, 1, f.hasher.verifies)
}

func TestService_LoginStoreFailure(t *testing.T) {
	bh, _ := NewBcryptHasher(bcrypt.MinCost, 1)
	tokens, _ := NewTokenService("s", time.Hour)
	svc := NewService(brokenStore{}, bh, tokens)

	_, err := svc.Login(context.Background(), "ana@x.io", "secret1")
	require.Error(t, err)
	assert.False(t, IsAuth(err))

	_, err = svc.Register(context.Background(), "Ana", "ana@x.io", "secret1")
	require.Error(t, err)
	assert.False(t, IsConflict(err))
}

func TestService_VerifyToken(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	user, err := f.svc.Register(ctx, "Ana", "ana@x.io", "secret1")
	require.NoError(t, err)
	session, err := f.svc.Login(ctx, "ana@x.io", "secret1")
	require.NoError(t, err)

	t.Run("garbage", func(t *testing.T) {
		_, err := f.svc.VerifyToken(ctx, "garbage")
		require.Error(t, err)
		assert.Equal(t, MsgInvalidToken, err.Error())
	})

	t.Run("expired", func(t *testing.T) {
		saved := f.clock.t
		defer func() { f.clock.t = saved }()
		f.clock.Advance(24 * time.Hour)

		_, err := f.svc.VerifyToken(ctx, session.Token)
		assert.True(t, IsAuth(err))
	})

	t.Run("deleted user", func(t *testing.T) {
		require.NoError(t, f.store.Delete(ctx, user.ID))

		_, err := f.svc.VerifyToken(ctx, session.Token)
		require.Error(t, err)
		assert.Equal(t, MsgInvalidToken, err.Error())
		assert.Equal(t, 1, f.recorder.rejections[RejectUnknownSubject])
	})
}

func TestService_VerifyTokenStoreFailure(t *testing.T) {
	bh, _ := NewBcryptHasher(bcrypt.MinCost, 1)
	tokens, _ := NewTokenService("s", time.Hour)
	svc := NewService(brokenStore{}, bh, tokens)

	token, _, err := tokens.Sign("user-1", "ana@x.io")
	require.NoError(t, err)

	_, err = svc.VerifyToken(context.Background(), token)
	require.Error(t, err)
	assert.False(t, IsAuth(err))
}
