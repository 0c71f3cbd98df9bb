package resource

import (
	"crypto/sha1"
	"encoding/hex"
)

// HashLength is the length of a rendered content hash.
const HashLength = sha1.Size * 2

// Hash returns the lowercase hex SHA-1 digest of content.
// SHA-1 keeps identifiers compatible with snapshot files written by earlier scribe releases.
func Hash(content string) string {
	sum := sha1.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

// IsHash reports whether s looks like a value returned by Hash.
func IsHash(s string) bool {
	if len(s) != HashLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
