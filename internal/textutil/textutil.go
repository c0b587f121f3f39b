package textutil

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes a SHA-256 hex hash of a string.
func Hash(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// ShortHash returns the first 12 hex digits of Hash, for log lines.
func ShortHash(s string) string {
	return Hash(s)[:12]
}

// Truncate shortens a string to maxLen bytes, appending "..." if truncated.
// Cuts never split a multi-byte character.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
