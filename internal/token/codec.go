package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrEmptySecret is returned when an empty token is presented for hashing.
var ErrEmptySecret = errors.New("token secret is empty")

// Generate creates a new bearer secret and its storage hash. The secret is
// 32 random bytes encoded base64url (the only form ever sent to a user,
// embedded in a URL); only the hash is persisted.
func Generate() (secret, hash string, err error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", "", fmt.Errorf("generating random bytes: %w", err)
	}

	secret = base64.RawURLEncoding.EncodeToString(b)
	hash = Hash(secret)

	return secret, hash, nil
}

// Hash derives the deterministic one-way lookup hash of a bearer secret.
func Hash(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// HashPresented is the validating variant of Hash used on untrusted input.
func HashPresented(secret string) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret
	}
	return Hash(secret), nil
}
