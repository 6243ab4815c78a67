// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package auth

import "time"

// # Credential Policy

const (
	// MinPasswordLength is the minimum accepted password size.
	MinPasswordLength = 8

	// MaxPasswordLength caps input before it reaches bcrypt, which
	// silently truncates at 72 bytes.
	MaxPasswordLength = 72
)

// # One-Time Tokens

const (
	// OneTimeTokenBytes is the entropy of verification and reset tokens.
	OneTimeTokenBytes = 32

	// VerificationTokenTTL is how long an email verification link stays valid.
	VerificationTokenTTL = 24 * time.Hour

	// ResetTokenTTL is how long a password reset link stays valid.
	ResetTokenTTL = 1 * time.Hour
)

// # Field Identifiers

const (
	FieldLogin           = "login"
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldCurrentPassword = "current_password"
	FieldNewPassword     = "new_password"
	FieldDisplayName     = "display_name"
	FieldAvatarURL       = "avatar_url"
	FieldToken           = "token"
	FieldAccessToken     = "access_token"
	FieldTokenType       = "token_type"
	FieldExpiresIn       = "expires_in"
	FieldMessage         = "message"
	FieldUser            = "user"
)
