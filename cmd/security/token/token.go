package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// MinBytes is the smallest accepted entropy for opaque session tokens.
const MinBytes = 48

// HashHMACSHA256Base64 returns an HMAC-SHA256 standard base64 digest of s using key.
// The output is always 44 bytes.
func HashHMACSHA256Base64(s string, key []byte) string {
	return base64.StdEncoding.EncodeToString(hmacSum(s, key))
}

func hmacSum(s string, key []byte) []byte {
	m := hmac.New(sha256.New, key)
	_, _ = m.Write([]byte(s))
	return m.Sum(nil)
}

// NewOpaqueHex returns nBytes of crypto/rand entropy, hex encoded (2*nBytes chars).
func NewOpaqueHex(nBytes int) (string, error) {
	if nBytes < MinBytes {
		return "", ErrTooShort
	}

	b := make([]byte, nBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("token: read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
