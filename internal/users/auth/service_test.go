// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/contactly/internal/platform/apperr"
	"github.com/mkravets/contactly/internal/platform/sec"
	"github.com/mkravets/contactly/internal/users/auth"
	"github.com/mkravets/contactly/internal/users/identity"
)

// # Test Doubles

// fakeUserRepository is an in-memory UserRepository with call counting.
type fakeUserRepository struct {
	mu            sync.Mutex
	byID          map[string]*auth.User
	findByIDCalls int
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{byID: make(map[string]*auth.User)}
}

func (repo *fakeUserRepository) FindByID(_ context.Context, id string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.findByIDCalls++
	if user, ok := repo.byID[id]; ok {
		clone := *user
		return &clone, nil
	}
	return nil, apperr.NotFound("Account")
}

func (repo *fakeUserRepository) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (repo *fakeUserRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, user := range repo.byID {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (repo *fakeUserRepository) Create(_ context.Context, user *auth.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	clone := *user
	repo.byID[user.ID] = &clone
	return nil
}

func (repo *fakeUserRepository) UpdateProfile(_ context.Context, user *auth.User) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if existing, ok := repo.byID[user.ID]; ok {
		existing.Username = user.Username
		existing.DisplayName = user.DisplayName
		existing.AvatarURL = user.AvatarURL
	}
	return nil
}

func (repo *fakeUserRepository) UpdatePassword(_ context.Context, userID, newHash string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if user, ok := repo.byID[userID]; ok {
		user.PasswordHash = newHash
	}
	return nil
}

func (repo *fakeUserRepository) MarkVerified(_ context.Context, userID string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if user, ok := repo.byID[userID]; ok {
		user.IsVerified = true
	}
	return nil
}

func (repo *fakeUserRepository) findCalls() int {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	return repo.findByIDCalls
}

func (repo *fakeUserRepository) markVerifiedDirect(userID string) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.byID[userID].IsVerified = true
}

func (repo *fakeUserRepository) delete(userID string) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	delete(repo.byID, userID)
}

// fakeTokenRepository backs both reset and verification token contracts.
type fakeTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]string
}

func newFakeTokenRepository() *fakeTokenRepository {
	return &fakeTokenRepository{tokens: make(map[string]string)}
}

func (repo *fakeTokenRepository) Set(_ context.Context, token, userID string, _ time.Duration) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	repo.tokens[token] = userID
	return nil
}

func (repo *fakeTokenRepository) Get(_ context.Context, token string) (string, error) {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	if userID, ok := repo.tokens[token]; ok {
		return userID, nil
	}
	return "", apperr.NotFound("Token")
}

func (repo *fakeTokenRepository) Delete(_ context.Context, token string) error {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	delete(repo.tokens, token)
	return nil
}

func (repo *fakeTokenRepository) firstToken() string {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for token := range repo.tokens {
		return token
	}
	return ""
}

// evictionFailingCache serves reads normally but fails every eviction,
// mimicking a cache backend that lost connectivity mid-flight.
type evictionFailingCache struct {
	inner identity.Cache
}

func (cache *evictionFailingCache) GetOrLoad(ctx context.Context, subjectID string, load identity.Loader) (*identity.Identity, error) {
	return cache.inner.GetOrLoad(ctx, subjectID, load)
}

func (cache *evictionFailingCache) Invalidate(context.Context, string) error {
	return errors.New("identity_cache_invalidate_failed: connection refused")
}

// brokenTokenRepository fails every write.
type brokenTokenRepository struct{}

func (brokenTokenRepository) Set(context.Context, string, string, time.Duration) error {
	return errors.New("redis_verify_token_set_failed: connection refused")
}

func (brokenTokenRepository) Get(context.Context, string) (string, error) {
	return "", apperr.NotFound("Token")
}

func (brokenTokenRepository) Delete(context.Context, string) error {
	return errors.New("redis_verify_token_delete_failed: connection refused")
}

// # Fixture

type serviceFixture struct {
	service    *auth.Service
	users      *fakeUserRepository
	resetRepo  *fakeTokenRepository
	verifyRepo *fakeTokenRepository
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	return newServiceFixtureWithCache(t, identity.NewMemoryCache(5*time.Minute))
}

func newServiceFixtureWithCache(t *testing.T, cache identity.Cache) *serviceFixture {
	t.Helper()

	codec, err := sec.NewTokenCodec("unit-test-signing-secret", "contactly.test", 15*time.Minute, 720*time.Hour)
	require.NoError(t, err)

	users := newFakeUserRepository()
	resetRepo := newFakeTokenRepository()
	verifyRepo := newFakeTokenRepository()

	return &serviceFixture{
		service:    auth.NewService(users, resetRepo, verifyRepo, codec, cache),
		users:      users,
		resetRepo:  resetRepo,
		verifyRepo: verifyRepo,
	}
}

// registerVerified enrolls and activates a test account.
func (fixture *serviceFixture) registerVerified(t *testing.T) *auth.User {
	t.Helper()

	user, err := fixture.service.Register(context.Background(), auth.RegisterInput{
		Username:    "ana",
		Email:       "ana@example.com",
		Password:    "correct horse battery",
		DisplayName: "Ana",
	})
	require.NoError(t, err)

	fixture.users.markVerifiedDirect(user.ID)
	return user
}

// # Registration & Login

/*
TestService_Register verifies enrollment, hashing, and conflict detection.
*/
func TestService_Register(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	user, err := fixture.service.Register(ctx, auth.RegisterInput{
		Username:    "ana",
		Email:       "ana@example.com",
		Password:    "correct horse battery",
		DisplayName: "Ana",
	})
	require.NoError(t, err)

	// 1. The stored hash must never equal the plain-text password
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	assert.False(t, user.IsVerified)

	// 2. A verification token was parked for the new account
	assert.Equal(t, user.ID, firstValue(fixture.verifyRepo))

	// 3. Duplicate email is rejected with a conflict
	_, err = fixture.service.Register(ctx, auth.RegisterInput{
		Username: "other",
		Email:    "ana@example.com",
		Password: "another password",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)

	// 4. Duplicate username is rejected with a conflict
	_, err = fixture.service.Register(ctx, auth.RegisterInput{
		Username: "ana",
		Email:    "fresh@example.com",
		Password: "another password",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", apperr.As(err).Code)
}

func firstValue(repo *fakeTokenRepository) string {
	repo.mu.Lock()
	defer repo.mu.Unlock()
	for _, userID := range repo.tokens {
		return userID
	}
	return ""
}

/*
TestService_Login verifies credential checks and token issuance.
*/
func TestService_Login(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	user := fixture.registerVerified(t)

	// 1. Correct credentials by email
	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, session.AccessToken)
	assert.NotEmpty(t, session.RefreshToken)
	assert.NotEqual(t, session.AccessToken, session.RefreshToken)
	assert.Equal(t, user.ID, session.User.ID)

	// 2. Correct credentials by username
	_, err = fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
}

/*
TestService_Login_EnumerationResistance verifies that unknown accounts and
wrong passwords produce indistinguishable failures.
*/
func TestService_Login_EnumerationResistance(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	fixture.registerVerified(t)

	_, unknownErr := fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ghost@example.com",
		Password: "whatever",
	})
	_, wrongErr := fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "not the password",
	})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
	assert.Equal(t, apperr.As(unknownErr).Code, apperr.As(wrongErr).Code)
}

/*
TestService_Login_UnverifiedAccount verifies that activation is required.
*/
func TestService_Login_UnverifiedAccount(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	_, err := fixture.service.Register(ctx, auth.RegisterInput{
		Username: "ana",
		Email:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	_, err = fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperr.As(err).Code)
}

// # Authentication & Caching

/*
TestService_Authenticate_CacheHit verifies the read-through behavior: the
second authentication must be served entirely from the cache.
*/
func TestService_Authenticate_CacheHit(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	fixture.registerVerified(t)

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	baseline := fixture.users.findCalls()

	// 1. First authentication loads from storage
	resolved, claims, err := fixture.service.Authenticate(ctx, session.AccessToken, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "ana", resolved.Username)
	assert.Equal(t, resolved.ID, claims.SubjectID())
	assert.Equal(t, baseline+1, fixture.users.findCalls())

	// 2. Second authentication is a pure cache hit
	_, _, err = fixture.service.Authenticate(ctx, session.AccessToken, time.Now())
	require.NoError(t, err)
	assert.Equal(t, baseline+1, fixture.users.findCalls())
}

/*
TestService_Authenticate_TokenFailures verifies the error taxonomy for
expired and malformed credentials.
*/
func TestService_Authenticate_TokenFailures(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	fixture.registerVerified(t)

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	// 1. An access token past its lifetime reports TOKEN_EXPIRED
	_, _, err = fixture.service.Authenticate(ctx, session.AccessToken, time.Now().Add(16*time.Minute))
	require.Error(t, err)
	assert.Equal(t, "TOKEN_EXPIRED", apperr.As(err).Code)

	// 2. A refresh token presented as an access token is malformed
	_, _, err = fixture.service.Authenticate(ctx, session.RefreshToken, time.Now())
	require.Error(t, err)
	assert.Equal(t, "TOKEN_MALFORMED", apperr.As(err).Code)

	// 3. Garbage input is malformed
	_, _, err = fixture.service.Authenticate(ctx, "not.a.token", time.Now())
	require.Error(t, err)
	assert.Equal(t, "TOKEN_MALFORMED", apperr.As(err).Code)
}

/*
TestService_Authenticate_VanishedSubject verifies that a structurally valid
token over a deleted account is rejected and never cached.
*/
func TestService_Authenticate_VanishedSubject(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	user := fixture.registerVerified(t)

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	fixture.users.delete(user.ID)

	_, _, err = fixture.service.Authenticate(ctx, session.AccessToken, time.Now())
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

/*
TestService_ChangePassword_EvictsCache verifies credential rotation and the
cache coherence side effect.
*/
func TestService_ChangePassword_EvictsCache(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	user := fixture.registerVerified(t)

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	// Populate the cache
	_, _, err = fixture.service.Authenticate(ctx, session.AccessToken, time.Now())
	require.NoError(t, err)
	baseline := fixture.users.findCalls()

	// 1. Wrong current password is rejected
	err = fixture.service.ChangePassword(ctx, user.ID, "wrong", "a brand new password")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)

	// 2. Correct current password rotates the hash
	err = fixture.service.ChangePassword(ctx, user.ID, "correct horse battery", "a brand new password")
	require.NoError(t, err)

	// 3. The cached snapshot was evicted, forcing a storage reload
	_, _, err = fixture.service.Authenticate(ctx, session.AccessToken, time.Now())
	require.NoError(t, err)
	assert.Greater(t, fixture.users.findCalls(), baseline)

	// 4. The new password is live
	_, err = fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "a brand new password",
	})
	require.NoError(t, err)
}

// # Session Management

/*
TestService_Refresh verifies token pair reissue and its failure modes.
*/
func TestService_Refresh(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	user := fixture.registerVerified(t)

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	// 1. A valid refresh token yields a fresh pair for the same subject
	renewed, err := fixture.service.Refresh(ctx, session.RefreshToken, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, user.ID, renewed.User.ID)
	assert.NotEmpty(t, renewed.AccessToken)
	assert.NotEmpty(t, renewed.RefreshToken)

	// 2. An access token cannot be used to refresh
	_, err = fixture.service.Refresh(ctx, session.AccessToken, time.Now())
	require.Error(t, err)
	assert.Equal(t, "TOKEN_MALFORMED", apperr.As(err).Code)

	// 3. A refresh token past its lifetime reports TOKEN_EXPIRED
	_, err = fixture.service.Refresh(ctx, session.RefreshToken, time.Now().Add(721*time.Hour))
	require.Error(t, err)
	assert.Equal(t, "TOKEN_EXPIRED", apperr.As(err).Code)

	// 4. A refresh for a deleted account is rejected
	fixture.users.delete(user.ID)
	_, err = fixture.service.Refresh(ctx, session.RefreshToken, time.Now())
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", apperr.As(err).Code)
}

/*
TestService_Logout verifies cache eviction and idempotency.
*/
func TestService_Logout(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	user := fixture.registerVerified(t)

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	_, _, err = fixture.service.Authenticate(ctx, session.AccessToken, time.Now())
	require.NoError(t, err)
	baseline := fixture.users.findCalls()

	// 1. Logout evicts the cached identity
	require.NoError(t, fixture.service.Logout(ctx, user.ID))

	_, _, err = fixture.service.Authenticate(ctx, session.AccessToken, time.Now())
	require.NoError(t, err)
	assert.Greater(t, fixture.users.findCalls(), baseline)

	// 2. Logging out twice is harmless
	require.NoError(t, fixture.service.Logout(ctx, user.ID))
}

// # Account Lifecycle

/*
TestService_VerifyEmail verifies the activation round trip.
*/
func TestService_VerifyEmail(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()

	user, err := fixture.service.Register(ctx, auth.RegisterInput{
		Username: "ana",
		Email:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	token := fixture.verifyRepo.firstToken()
	require.NotEmpty(t, token)

	// 1. Valid token activates the account
	require.NoError(t, fixture.service.VerifyEmail(ctx, token))

	stored, err := fixture.users.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsVerified)

	// 2. The token is single-use
	err = fixture.service.VerifyEmail(ctx, token)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperr.As(err).Code)
}

/*
TestService_PasswordResetFlow verifies the full forgot-password round trip.
*/
func TestService_PasswordResetFlow(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	fixture.registerVerified(t)

	// 1. Unknown email yields no token and no error (enumeration resistance)
	token, err := fixture.service.RequestPasswordReset(ctx, "ghost@example.com")
	require.NoError(t, err)
	assert.Empty(t, token)

	// 2. Known email yields a usable token
	token, err = fixture.service.RequestPasswordReset(ctx, "ana@example.com")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	require.NoError(t, fixture.service.ResetPassword(ctx, token, "a reset password"))

	// 3. The new password is live, the old one is dead
	_, err = fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "a reset password",
	})
	require.NoError(t, err)

	_, err = fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.Error(t, err)

	// 4. The reset token is single-use
	err = fixture.service.ResetPassword(ctx, token, "yet another password")
	require.Error(t, err)
}

/*
TestService_UpdateProfile verifies partial updates and cache eviction.
*/
func TestService_UpdateProfile(t *testing.T) {
	fixture := newServiceFixture(t)
	ctx := context.Background()
	user := fixture.registerVerified(t)

	session, err := fixture.service.Login(ctx, auth.LoginInput{
		Login:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	_, _, err = fixture.service.Authenticate(ctx, session.AccessToken, time.Now())
	require.NoError(t, err)

	displayName := "Ana K."
	avatarURL := "https://cdn.contactly.app/avatars/ana.png"
	updated, err := fixture.service.UpdateProfile(ctx, user.ID, auth.UpdateProfileInput{
		DisplayName: &displayName,
		AvatarURL:   &avatarURL,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana K.", updated.DisplayName)
	assert.Equal(t, avatarURL, updated.AvatarURL)

	// The next authenticated request observes the change
	resolved, _, err := fixture.service.Authenticate(ctx, session.AccessToken, time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Ana K.", resolved.DisplayName)
	assert.Equal(t, avatarURL, resolved.AvatarURL)
}

// # Side-Effect Failure Propagation

/*
TestService_MutationsSurfaceEvictionFailure verifies that no mutation flow
reports success while the cached identity could not be evicted. A swallowed
eviction failure would keep serving the pre-change snapshot until TTL.
*/
func TestService_MutationsSurfaceEvictionFailure(t *testing.T) {
	fixture := newServiceFixtureWithCache(t, &evictionFailingCache{
		inner: identity.NewMemoryCache(5 * time.Minute),
	})
	ctx := context.Background()
	user := fixture.registerVerified(t)

	// 1. ChangePassword must not report success
	err := fixture.service.ChangePassword(ctx, user.ID, "correct horse battery", "a brand new password")
	require.Error(t, err)

	// 2. UpdateProfile must not report success
	displayName := "Ana K."
	_, err = fixture.service.UpdateProfile(ctx, user.ID, auth.UpdateProfileInput{DisplayName: &displayName})
	require.Error(t, err)

	// 3. ResetPassword must not report success
	token, err := fixture.service.RequestPasswordReset(ctx, "ana@example.com")
	require.NoError(t, err)
	err = fixture.service.ResetPassword(ctx, token, "a reset password")
	require.Error(t, err)

	// 4. VerifyEmail must not report success
	_, err = fixture.service.Register(ctx, auth.RegisterInput{
		Username: "bea",
		Email:    "bea@example.com",
		Password: "another long password",
	})
	require.NoError(t, err)
	err = fixture.service.VerifyEmail(ctx, fixture.verifyRepo.firstToken())
	require.Error(t, err)
}

/*
TestService_Register_VerificationStoreFailure verifies that registration
fails loudly when the verification token cannot be parked. Unverified
accounts cannot log in, so a 201 without a verification path would brick
the account silently.
*/
func TestService_Register_VerificationStoreFailure(t *testing.T) {
	codec, err := sec.NewTokenCodec("unit-test-signing-secret", "contactly.test", 15*time.Minute, 720*time.Hour)
	require.NoError(t, err)

	users := newFakeUserRepository()
	service := auth.NewService(users, newFakeTokenRepository(), brokenTokenRepository{}, codec, identity.NewMemoryCache(5*time.Minute))

	_, err = service.Register(context.Background(), auth.RegisterInput{
		Username: "ana",
		Email:    "ana@example.com",
		Password: "correct horse battery",
	})
	require.Error(t, err)
}
