package invites

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// tokenLength is the number of random bytes per token (256 bits)
const tokenLength = 32

// generateToken returns a fresh unguessable token as unpadded base64url
func generateToken() (string, error) {
	buf := make([]byte, tokenLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
