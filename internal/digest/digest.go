// Package digest defines the content fingerprint shared by the draft store
// and the entry views: SHA-256 over the exact bytes, lowercase hex, two
// characters per byte.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hex returns the lowercase hex SHA-256 digest of s.
func Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether s hashes to want. The comparison is exact:
// want must be 64 lowercase hex characters.
func Matches(s, want string) bool {
	return Hex(s) == want
}
