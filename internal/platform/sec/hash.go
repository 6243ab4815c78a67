// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package sec

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// # Credential Errors

var (
	// ErrEmptyPassword is returned when a caller attempts to hash an empty string.
	ErrEmptyPassword = errors.New("sec: password must not be empty")

	// ErrCorruptHash is returned when a stored credential hash cannot be parsed.
	// Callers MUST treat this as a failed verification (fail closed).
	ErrCorruptHash = errors.New("sec: stored credential hash is unreadable")
)

// HashPassword hashes a plain-text password using the bcrypt algorithm.
//
// Default cost is used for balance between security and CPU utilization
// during registration spikes. The only input rejected is the empty string.
func HashPassword(plainTextPassword string) (string, error) {
	if plainTextPassword == "" {
		return "", ErrEmptyPassword
	}

	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Join(errors.New("sec: failed to hash password"), err)
	}
	return string(hashedBytes), nil
}

// VerifyPassword compares a plain-text password against its stored hash.
//
// # Contract
//
//   - A simple mismatch returns (false, nil) — it is an expected outcome,
//     not an error.
//   - A stored hash that bcrypt cannot parse returns (false, ErrCorruptHash).
//     The credential is unusable and verification MUST be treated as failed.
func VerifyPassword(plainTextPassword, existingHash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}

	// Anything else means the stored hash itself is broken (truncated row,
	// bad migration, manual tampering). Fail closed.
	return false, ErrCorruptHash
}

// CheckPasswordHash is the fail-closed convenience form of [VerifyPassword].
// Any error, including a corrupt stored hash, reads as "no match".
func CheckPasswordHash(plainTextPassword, existingHash string) bool {
	ok, err := VerifyPassword(plainTextPassword, existingHash)
	return err == nil && ok
}
