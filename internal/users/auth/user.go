// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

/*
Package auth implements account management and the authentication flow.

It owns the user account entity, credential verification, token issuance
and refresh, and the lifecycle hooks (password change, email verification,
profile mutation) that must keep the identity cache coherent.
*/
package auth

import (
	"time"

	"github.com/mkravets/contactly/internal/platform/sec"
	"github.com/mkravets/contactly/internal/users/identity"
)

// # Entity

// User is the persisted account record. The password hash never leaves
// the auth package boundary.
type User struct {
	ID           string       `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	PasswordHash string       `json:"-"`
	DisplayName  string       `json:"display_name"`
	AvatarURL    string       `json:"avatar_url,omitempty"`
	Role         sec.UserRole `json:"role"`
	IsVerified   bool         `json:"is_verified"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Snapshot converts the account into the cacheable identity projection.
// Credential material is deliberately excluded.
func (u *User) Snapshot() *identity.Identity {
	return &identity.Identity{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		AvatarURL:   u.AvatarURL,
		Role:        u.Role,
		IsVerified:  u.IsVerified,
	}
}
