// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/contactly/internal/platform/sec"
)

const (
	testSecret = "unit-test-signing-secret"
	testIssuer = "contactly.test"
)

func newTestCodec(t *testing.T) *sec.TokenCodec {
	t.Helper()
	codec, err := sec.NewTokenCodec(testSecret, testIssuer, 15*time.Minute, 30*24*time.Hour)
	require.NoError(t, err)
	return codec
}

/*
TestNewTokenCodec_Config verifies the constructor rejects unusable configuration.
*/
func TestNewTokenCodec_Config(t *testing.T) {
	tests := []struct {
		name       string
		secret     string
		accessTTL  time.Duration
		refreshTTL time.Duration
		wantErr    bool
	}{
		{"valid", "s3cret", time.Hour, 24 * time.Hour, false},
		{"empty_secret", "", time.Hour, 24 * time.Hour, true},
		{"zero_access_ttl", "s3cret", 0, 24 * time.Hour, true},
		{"access_not_shorter_than_refresh", "s3cret", 24 * time.Hour, time.Hour, true},
		{"equal_ttls", "s3cret", time.Hour, time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sec.NewTokenCodec(tt.secret, testIssuer, tt.accessTTL, tt.refreshTTL)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

/*
TestTokenCodec_RoundTrip verifies that issued claims survive verification.
*/
func TestTokenCodec_RoundTrip(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	tokenString, err := codec.Issue("user-123", "user", sec.TokenKindAccess, now)
	require.NoError(t, err)

	claims, err := codec.Verify(tokenString, sec.TokenKindAccess, now)
	require.NoError(t, err)

	assert.Equal(t, "user-123", claims.SubjectID())
	assert.Equal(t, sec.TokenKindAccess, claims.Kind)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, testIssuer, claims.Issuer)
	assert.Equal(t, now.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, now.Add(15*time.Minute).Unix(), claims.ExpiresAt.Unix())
}

/*
TestTokenCodec_Expiry verifies that a token valid at issue time fails with
ErrTokenExpired once its lifetime has elapsed.
*/
func TestTokenCodec_Expiry(t *testing.T) {
	codec := newTestCodec(t)
	issuedAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	tokenString, err := codec.Issue("user-123", "user", sec.TokenKindAccess, issuedAt)
	require.NoError(t, err)

	// Still valid just before expiry
	_, err = codec.Verify(tokenString, sec.TokenKindAccess, issuedAt.Add(14*time.Minute))
	assert.NoError(t, err)

	// Expired afterwards
	_, err = codec.Verify(tokenString, sec.TokenKindAccess, issuedAt.Add(16*time.Minute))
	assert.ErrorIs(t, err, sec.ErrTokenExpired)
}

/*
TestTokenCodec_KindMismatch verifies that a refresh token presented on the
access path (and vice versa) is malformed, not expired.
*/
func TestTokenCodec_KindMismatch(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()

	access, refresh, err := codec.IssuePair("user-123", "user", now)
	require.NoError(t, err)

	_, err = codec.Verify(refresh, sec.TokenKindAccess, now)
	assert.ErrorIs(t, err, sec.ErrTokenMalformed)

	_, err = codec.Verify(access, sec.TokenKindRefresh, now)
	assert.ErrorIs(t, err, sec.ErrTokenMalformed)
}

/*
TestTokenCodec_WrongSecret verifies that a token signed with a different
secret never verifies, regardless of its claims being intact.
*/
func TestTokenCodec_WrongSecret(t *testing.T) {
	now := time.Now()

	issuingCodec, err := sec.NewTokenCodec("secret-one", testIssuer, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	verifyingCodec, err := sec.NewTokenCodec("secret-two", testIssuer, time.Hour, 24*time.Hour)
	require.NoError(t, err)

	tokenString, err := issuingCodec.Issue("user-123", "user", sec.TokenKindAccess, now)
	require.NoError(t, err)

	_, err = verifyingCodec.Verify(tokenString, sec.TokenKindAccess, now)
	assert.ErrorIs(t, err, sec.ErrTokenMalformed)
}

/*
TestTokenCodec_Garbage verifies structural failures map to ErrTokenMalformed.
*/
func TestTokenCodec_Garbage(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Now()

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not_a_jwt", "hello world"},
		{"wrong_segment_count", "aaaa.bbbb"},
		{"binary_noise", "\x00\x01\x02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Verify(tt.token, sec.TokenKindAccess, now)
			assert.ErrorIs(t, err, sec.ErrTokenMalformed)
		})
	}
}

/*
TestTokenCodec_PairIndependence verifies that refresh issues a pair whose
claims carry the original subject and whose lifetimes follow the TTL policy.
*/
func TestTokenCodec_PairIndependence(t *testing.T) {
	codec := newTestCodec(t)
	now := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)

	access, refresh, err := codec.IssuePair("user-123", "admin", now)
	require.NoError(t, err)
	require.NotEqual(t, access, refresh)

	accessClaims, err := codec.Verify(access, sec.TokenKindAccess, now)
	require.NoError(t, err)
	refreshClaims, err := codec.Verify(refresh, sec.TokenKindRefresh, now)
	require.NoError(t, err)

	assert.Equal(t, accessClaims.SubjectID(), refreshClaims.SubjectID())
	assert.True(t, accessClaims.ExpiresAt.Time.Before(refreshClaims.ExpiresAt.Time),
		"access token lifetime must be strictly shorter than refresh token lifetime")
}
