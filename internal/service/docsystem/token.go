package docsystem

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// shareTokenBytes is the entropy of a raw share token
const shareTokenBytes = 32

// newShareToken returns a raw url-safe token and the hash stored in its place
func newShareToken() (raw, hash string, err error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate share token: %w", err)
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, hashShareToken(raw), nil
}

// hashShareToken is the lookup key for a raw token
func hashShareToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
