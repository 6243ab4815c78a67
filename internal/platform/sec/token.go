// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

// Package sec provides cryptographic primitives and token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer behind narrow interfaces.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// # Token Kinds

// TokenKind discriminates the two token roles in the session lifecycle.
type TokenKind string

const (
	// TokenKindAccess is the short-lived credential authorizing individual requests.
	TokenKindAccess TokenKind = "access"

	// TokenKindRefresh is the longer-lived credential used solely to obtain
	// a new access/refresh pair.
	TokenKindRefresh TokenKind = "refresh"
)

// # Token Errors

var (
	// ErrTokenExpired is returned when a structurally valid token is past its expiry.
	ErrTokenExpired = errors.New("sec: token has expired")

	// ErrTokenMalformed is returned when the signature, structure, algorithm,
	// or kind of a token does not check out.
	ErrTokenMalformed = errors.New("sec: token is malformed")
)

// # Claims

// Claims represents the payload embedded inside both access and refresh tokens.
//
// # Why custom claims?
//
// By embedding the token kind and the user's role directly inside the JWT,
// the verifier can reject a refresh token presented on the access path (and
// vice versa) without any storage lookup, and route handlers can perform
// coarse role checks straight from the request context.
type Claims struct {
	jwt.RegisteredClaims

	// Custom application claims are abbreviated to keep the JWT payload small.
	Kind TokenKind `json:"knd"`
	Role string    `json:"rol"`
}

// SubjectID returns the user ID the token asserts ownership of.
func (c *Claims) SubjectID() string {
	return c.Subject
}

// # Token Codec

// TokenCodec issues and verifies HMAC-signed (HS256) JWT tokens.
//
// # Configuration, not globals
//
// The signing secret and TTL policy are explicit constructor inputs so that
// tests can run several codecs with different secrets in the same process.
// Rotating the secret invalidates every previously issued token; hot key
// rotation is intentionally unsupported.
type TokenCodec struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenCodec creates a new TokenCodec.
//
// # Parameters
//   - secret: The process-wide HMAC signing secret.
//   - issuer: Value of the standard 'iss' claim.
//   - accessTTL: Lifetime of access tokens. Must be strictly shorter than refreshTTL.
//   - refreshTTL: Lifetime of refresh tokens.
func NewTokenCodec(secret, issuer string, accessTTL, refreshTTL time.Duration) (*TokenCodec, error) {
	if secret == "" {
		return nil, errors.New("sec: signing secret must not be empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("sec: token TTLs must be positive")
	}
	if accessTTL >= refreshTTL {
		return nil, fmt.Errorf("sec: access TTL (%s) must be shorter than refresh TTL (%s)", accessTTL, refreshTTL)
	}

	return &TokenCodec{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

// TTL returns the configured lifetime for the given token kind.
func (codec *TokenCodec) TTL(kind TokenKind) time.Duration {
	if kind == TokenKindRefresh {
		return codec.refreshTTL
	}
	return codec.accessTTL
}

/*
Issue produces a signed token for the given subject.

Description: The token is immutable once issued; refresh produces a brand-new
pair, it never mutates an existing token.

Parameters:
  - subjectID: The user ID the token asserts.
  - role: The role claim embedded for coarse authorization.
  - kind: TokenKindAccess or TokenKindRefresh (selects the TTL).
  - now: Issue instant, injected for deterministic tests.

Returns:
  - string: Compact signed JWT
  - error: Signing failures
*/
func (codec *TokenCodec) Issue(subjectID, role string, kind TokenKind, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			Issuer:    codec.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(codec.TTL(kind))),
		},
		Kind: kind,
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return "", fmt.Errorf("sec: failed to sign %s token: %w", kind, err)
	}

	return signedToken, nil
}

/*
IssuePair produces a fresh access/refresh token pair for the same subject.

Parameters:
  - subjectID: The user ID both tokens assert.
  - role: The role claim embedded in both tokens.
  - now: Issue instant for both tokens.

Returns:
  - accessToken: Short-lived request credential
  - refreshToken: Long-lived rotation credential
  - error: Signing failures
*/
func (codec *TokenCodec) IssuePair(subjectID, role string, now time.Time) (accessToken, refreshToken string, err error) {
	accessToken, err = codec.Issue(subjectID, role, TokenKindAccess, now)
	if err != nil {
		return "", "", err
	}

	refreshToken, err = codec.Issue(subjectID, role, TokenKindRefresh, now)
	if err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

/*
Verify checks the signature, expiry, and kind of a token string.

Description: Verification is deterministic and side-effect free. The caller
supplies 'now' so that expiry is evaluated against a single clock reading
per request.

Parameters:
  - tokenString: Compact signed JWT.
  - expectedKind: The kind the caller will accept.
  - now: Verification instant.

Returns:
  - *Claims: Decoded claims on success
  - error: ErrTokenExpired, or ErrTokenMalformed for every other failure
*/
func (codec *TokenCodec) Verify(tokenString string, expectedKind TokenKind, now time.Time) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("sec: unexpected signing method: %v", token.Header["alg"])
			}
			return codec.secret, nil
		},
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)

	if err != nil {
		// Expiry is the only failure worth distinguishing: it tells the
		// client that a refresh attempt can succeed.
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}

	// A refresh token on the access path (or vice versa) is a structural
	// violation, not an expiry.
	if claims.Kind != expectedKind {
		return nil, ErrTokenMalformed
	}

	if claims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	return claims, nil
}
