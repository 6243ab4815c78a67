// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mkravets/contactly/internal/platform/apperr"
	"github.com/mkravets/contactly/internal/platform/sec"
	"github.com/mkravets/contactly/internal/users/identity"
	"github.com/mkravets/contactly/pkg/uuid"
)

// # Service

// Service implements user authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, token
// verification, or login logic must be reviewed by the security team.
type Service struct {
	userRepository              UserRepository
	resetTokenRepository        ResetTokenRepository
	verificationTokenRepository VerificationTokenRepository
	codec                       *sec.TokenCodec
	identities                  identity.Cache
}

// NewService constructs a new auth [Service] with necessary dependencies.
func NewService(
	userRepo UserRepository,
	resetRepo ResetTokenRepository,
	verifyRepo VerificationTokenRepository,
	codec *sec.TokenCodec,
	identities identity.Cache,
) *Service {
	return &Service{
		userRepository:              userRepo,
		resetTokenRepository:        resetRepo,
		verificationTokenRepository: verifyRepo,
		codec:                       codec,
		identities:                  identities,
	}
}

// AccessTokenTTL exposes the configured access token lifetime for
// transport-layer responses.
func (service *Service) AccessTokenTTL() time.Duration {
	return service.codec.TTL(sec.TokenKindAccess)
}

// loadIdentity is the cache loader: it resolves a subject ID into its
// credential-free snapshot straight from persistent storage.
func (service *Service) loadIdentity(context context.Context, subjectID string) (*identity.Identity, error) {
	user, err := service.userRepository.FindByID(context, subjectID)
	if err != nil {
		return nil, err
	}
	return user.Snapshot(), nil
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

/*
Register validates, hashes, and persists a brand new user account.

Description: Deep-enrollment of a new member, handling password hashing and
initial verification token state.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *User: Created entity
  - error: Conflict (if identity exists) or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {

	// Verify email uniqueness. Return a client-safe Conflict error.
	_, err := service.userRepository.FindByEmail(context, input.Email)
	if err == nil {
		return nil, apperr.Conflict("Email is already registered")
	}

	// Verify username uniqueness. Return a client-safe Conflict error.
	_, err = service.userRepository.FindByUsername(context, input.Username)
	if err == nil {
		return nil, apperr.Conflict("Username is already taken")
	}

	// Prevent storing plain-text passwords. Default cost is used for balance
	// between security and CPU utilization during registration spikes.
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	// Construct the new User entity. Time-sortable ID to prevent PG index fragmentation.
	user := &User{
		ID:           uuid.New(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hashedPassword,
		DisplayName:  input.DisplayName,
		Role:         sec.RoleUser,
		IsVerified:   false,
	}

	// Persist the user to the database
	if err := service.userRepository.Create(context, user); err != nil {
		return nil, err
	}

	// Park a verification token in Redis. Unverified accounts cannot log
	// in, so an account without a verification path is not a successful
	// registration and the failure must surface.
	token, err := sec.GenerateSecureToken(OneTimeTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("auth_service_verification_token_failed: %w", err)
	}
	if err := service.verificationTokenRepository.Set(context, token, user.ID, VerificationTokenTTL); err != nil {
		return nil, fmt.Errorf("auth_service_verification_token_save_failed: %w", err)
	}
	// TODO: Trigger email service with the verification link

	return user, nil
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Login    string // Can be Username or Email
	Password string
}

// LoginSession represents a successfully established user session.
type LoginSession struct {
	AccessToken           string
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
	User                  *User
}

/*
Login validates user credentials and issues a signed token pair.

Description: Verifies identity, performs constant-time password comparison,
and issues a short-lived access token together with a long-lived refresh
token. Both tokens are self-contained; no per-session server state exists.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *LoginSession: Transport-ready session identifiers
  - error: Unauthorized or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginSession, error) {
	var user *User
	var err error
	// Flexible login: look up by Email or Username
	user, err = service.userRepository.FindByEmail(context, input.Login)
	if err != nil {
		user, err = service.userRepository.FindByUsername(context, input.Login)
	}

	// If (err != nil) the user does not exist. Generic message to prevent enumeration.
	if err != nil {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Constant-time comparison inside bcrypt prevents timing attacks
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		return nil, apperr.Unauthorized("Invalid login credentials")
	}

	// Block accounts that never confirmed their email address
	if !user.IsVerified {
		return nil, apperr.Forbidden("Email address is not verified")
	}

	// Issue the signed token pair
	now := time.Now()
	accessToken, refreshToken, err := service.codec.IssuePair(user.ID, string(user.Role), now)
	if err != nil {
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          refreshToken,
		RefreshTokenExpiresAt: now.Add(service.codec.TTL(sec.TokenKindRefresh)),
		User:                  user,
	}, nil
}

/*
Authenticate resolves a bearer access token into the caller's identity.

Description: Verifies the token signature and lifetime, then resolves the
subject through the identity cache. Cache misses fall through to storage;
a hit never touches the database.

Parameters:
  - context: context.Context
  - tokenString: string
  - now: time.Time

Returns:
  - *identity.Identity: Credential-free caller snapshot
  - *sec.Claims: Verified token claims
  - error: TokenExpired, TokenMalformed, or resolution failures
*/
func (service *Service) Authenticate(context context.Context, tokenString string, now time.Time) (*identity.Identity, *sec.Claims, error) {

	// Verify signature, lifetime, and token kind
	claims, err := service.codec.Verify(tokenString, sec.TokenKindAccess, now)
	if err != nil {
		return nil, nil, mapTokenError(err)
	}

	// Resolve the subject through the read-through cache
	resolved, err := service.identities.GetOrLoad(context, claims.SubjectID(), service.loadIdentity)
	if err != nil {
		// A valid signature over a vanished subject is still unauthorized
		if appErr := apperr.As(err); appErr != nil && appErr.Code == "NOT_FOUND" {
			return nil, nil, apperr.Unauthorized("Account no longer exists")
		}
		return nil, nil, err
	}

	return resolved, claims, nil
}

// # Session Management

/*
Refresh exchanges a valid refresh token for a brand new token pair.

Description: Verifies the refresh token and confirms the subject still
exists before reissuing. Refresh tokens are stateless and not single-use;
possession until expiry is sufficient.

Parameters:
  - context: context.Context
  - refreshToken: string
  - now: time.Time

Returns:
  - *LoginSession: New session credentials
  - error: TokenExpired, TokenMalformed, or Unauthorized
*/
func (service *Service) Refresh(context context.Context, refreshToken string, now time.Time) (*LoginSession, error) {

	// Verify the refresh token
	claims, err := service.codec.Verify(refreshToken, sec.TokenKindRefresh, now)
	if err != nil {
		return nil, mapTokenError(err)
	}

	// The subject must still resolve to a live account
	user, err := service.userRepository.FindByID(context, claims.SubjectID())
	if err != nil {
		return nil, apperr.Unauthorized("Account no longer exists")
	}

	// Issue a fresh pair; role claims are re-read from storage so a role
	// change takes effect at the next refresh
	accessToken, newRefreshToken, err := service.codec.IssuePair(user.ID, string(user.Role), now)
	if err != nil {
		return nil, fmt.Errorf("auth_service_refresh_token_generation_failed: %w", err)
	}

	return &LoginSession{
		AccessToken:           accessToken,
		RefreshToken:          newRefreshToken,
		RefreshTokenExpiresAt: now.Add(service.codec.TTL(sec.TokenKindRefresh)),
		User:                  user,
	}, nil
}

/*
Logout drops the caller's cached identity.

Description: With stateless tokens there is no session row to revoke;
logout evicts the cached snapshot so any follow-up request re-reads
storage. The operation is idempotent.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Cache eviction failures
*/
func (service *Service) Logout(context context.Context, userID string) error {
	if err := service.identities.Invalidate(context, userID); err != nil {
		return fmt.Errorf("auth_service_logout_failed: %w", err)
	}
	return nil
}

// # Password Recovery

/*
RequestPasswordReset initiates the forgot-password flow.

Description: Generates a secure token and saves it to Redis.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - string: Discovery token
  - error: Generation errors
*/
func (service *Service) RequestPasswordReset(context context.Context, email string) (string, error) {
	// Look up user.
	// NOTE: We don't return NOT_FOUND if the email doesn't exist to prevent user enumeration.
	user, err := service.userRepository.FindByEmail(context, email)
	if err != nil {
		return "", nil
	}

	// Generate reset token
	token, err := sec.GenerateSecureToken(OneTimeTokenBytes)
	if err != nil {
		return "", fmt.Errorf("auth_service_generate_reset_token_failed: %w", err)
	}

	// Save to Redis
	if err := service.resetTokenRepository.Set(context, token, user.ID, ResetTokenTTL); err != nil {
		return "", fmt.Errorf("auth_service_save_reset_token_failed: %w", err)
	}

	return token, nil
}

/*
ResetPassword completes the forgot-password flow.

Description: Verifies the token, hashes the new password, updates the DB,
and evicts the cached identity so stale snapshots cannot linger.

Parameters:
  - context: context.Context
  - token: string
  - newPassword: string

Returns:
  - error: Validation or update failures
*/
func (service *Service) ResetPassword(context context.Context, token, newPassword string) error {

	// Retrieve the userID associated with the reset token from Redis
	userID, err := service.resetTokenRepository.Get(context, token)
	if err != nil {
		return err
	}

	// Hash the new password securely
	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_reset_password_hash_failed: %w", err)
	}

	// Update the user's password in persistent storage
	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_reset_password_update_failed: %w", err)
	}

	// The hash changed; a stale cached snapshot must not survive it
	if err := service.identities.Invalidate(context, userID); err != nil {
		return fmt.Errorf("auth_service_reset_password_evict_failed: %w", err)
	}

	// Delete the used token from Redis
	_ = service.resetTokenRepository.Delete(context, token)

	return nil
}

/*
ChangePassword allows an authenticated user to update their credentials.

Description: Verifies the current password before rotating the hash, then
evicts the cached identity.

Parameters:
  - context: context.Context
  - userID: string
  - currentPassword: string
  - newPassword: string

Returns:
  - error: Unauthorized or storage failures
*/
func (service *Service) ChangePassword(context context.Context, userID, currentPassword, newPassword string) error {

	// Fetch user by ID
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return err
	}

	// Verify the current password before allowing change
	if !sec.CheckPasswordHash(currentPassword, user.PasswordHash) {
		return apperr.Unauthorized("Current password is incorrect")
	}

	// Hash the brand new password
	hashedPassword, err := sec.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("auth_service_change_password_hash_failed: %w", err)
	}

	// Update the database with the new hash
	if err := service.userRepository.UpdatePassword(context, userID, hashedPassword); err != nil {
		return fmt.Errorf("auth_service_change_password_update_failed: %w", err)
	}

	// The hash changed; a stale cached snapshot must not survive it
	if err := service.identities.Invalidate(context, userID); err != nil {
		return fmt.Errorf("auth_service_change_password_evict_failed: %w", err)
	}

	return nil
}

/*
VerifyEmail confirms a user's email address using a secure token.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Database or resolution errors
*/
func (service *Service) VerifyEmail(context context.Context, token string) error {

	// Retrieve the user ID associated with the verification token from Redis
	userID, err := service.verificationTokenRepository.Get(context, token)
	if err != nil {
		return err
	}

	// Update the user's status to verified in persistent storage
	if err := service.userRepository.MarkVerified(context, userID); err != nil {
		return fmt.Errorf("auth_service_verify_email_failed: %w", err)
	}

	// Evict any stale unverified snapshot
	if err := service.identities.Invalidate(context, userID); err != nil {
		return fmt.Errorf("auth_service_verify_email_evict_failed: %w", err)
	}

	// Cleanup the used verification token from Redis
	_ = service.verificationTokenRepository.Delete(context, token)

	return nil
}

// # Profile Mutation

// UpdateProfileInput holds mutable profile fields.
type UpdateProfileInput struct {
	DisplayName *string
	AvatarURL   *string
}

/*
UpdateProfile applies partial profile changes for an authenticated user.

Description: Only the provided fields are touched. The cached identity is
evicted afterwards so the next authenticated request observes the change.

Parameters:
  - context: context.Context
  - userID: string
  - input: UpdateProfileInput

Returns:
  - *User: Updated entity
  - error: NotFound or persistence failures
*/
func (service *Service) UpdateProfile(context context.Context, userID string, input UpdateProfileInput) (*User, error) {

	// Fetch the current state
	user, err := service.userRepository.FindByID(context, userID)
	if err != nil {
		return nil, err
	}

	// Apply partial updates
	if input.DisplayName != nil {
		user.DisplayName = *input.DisplayName
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}

	// Persist the changes
	if err := service.userRepository.UpdateProfile(context, user); err != nil {
		return nil, err
	}

	// The profile changed; a stale cached snapshot must not survive it
	if err := service.identities.Invalidate(context, userID); err != nil {
		return nil, fmt.Errorf("auth_service_update_profile_evict_failed: %w", err)
	}

	return user, nil
}

// # Error Mapping

// mapTokenError converts codec failures into transport-ready errors.
func mapTokenError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sec.ErrTokenExpired):
		return apperr.TokenExpired("Token has expired")
	default:
		return apperr.TokenMalformed("Token is invalid")
	}
}
