// Package secret turns message passwords into the digests kept by the store.
//
// Digests are unsalted lowercase hex SHA-256, the format already present in
// existing spreadsheets. Identical passwords therefore share a digest, which
// is what makes lookup by password possible at all.
package secret

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
)

// ErrEmptySecret is returned when asked to digest an empty password.
// An absent password means "no guard" and must never be stored as a digest.
var ErrEmptySecret = errors.New("empty secret")

// Digest returns the stored form of a plaintext password.
func Digest(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptySecret
	}
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:]), nil
}

// Matches reports whether plaintext hashes to digest.
func Matches(digest, plaintext string) bool {
	candidate, err := Digest(plaintext)
	if err != nil || digest == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(digest)) == 1
}
