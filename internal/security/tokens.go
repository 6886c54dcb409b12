// Package security holds the primitives behind one-time credentials.
package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
)

var errInvalidTokenLength = errors.New("token byte length must be positive")

// NewResetToken returns a cryptographically random token of the given byte
// length, hex-encoded, together with the one-way hash that is safe to
// persist. Only the hash is ever stored; the raw token travels to the user.
func NewResetToken(byteLength int) (raw string, hash string, err error) {
	if byteLength <= 0 {
		return "", "", errInvalidTokenLength
	}

	buffer := make([]byte, byteLength)
	if _, err := rand.Read(buffer); err != nil {
		return "", "", err
	}

	raw = hex.EncodeToString(buffer)
	return raw, HashToken(raw), nil
}

// HashToken derives the stored form of a raw reset token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
