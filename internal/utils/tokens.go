package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// NewRefreshToken returns an opaque hex token; also used for one-shot
// password-reset tokens.
func NewRefreshToken(nBytes int) (string, error) {
	if nBytes <= 0 {
		nBytes = 32 // 256 bits by default
	}
	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
