// Copyright (c) 2026 Contactly. All rights reserved.
// Author: m.kravets.dev@gmail.com

package sec

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// # Secure Randomness

/*
GenerateSecureToken returns a URL-safe random string backed by the
operating system CSPRNG.

Parameters:
  - numBytes: int (entropy size before encoding)

Returns:
  - string: Base64 URL-encoded token without padding
  - error: Entropy source failures
*/
func GenerateSecureToken(numBytes int) (string, error) {
	buffer := make([]byte, numBytes)
	if _, err := rand.Read(buffer); err != nil {
		return "", fmt.Errorf("sec_secure_token_failed: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}
