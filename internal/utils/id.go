package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// idSize is the number of random bytes behind a message identifier (128 bits).
const idSize = 16

// NewID returns a random hex identifier suitable as a public lookup key.
// Unlike a timestamp it is not guessable, so there is no fallback when
// crypto/rand fails.
func NewID() (string, error) {
	buf := make([]byte, idSize)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
