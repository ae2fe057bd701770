package utils

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// HashString generates a SHA1 hash of a string
func HashString(s string) string {
	h := sha1.Sum([]byte(s))
	return hex.EncodeToString(h[:])
}

// HashParts joins parts with "|" and hashes the result.
func HashParts(parts ...string) string {
	return HashString(strings.Join(parts, "|"))
}

// Fingerprint returns a short blake2b digest of s, suitable for keying
// client identifiers without storing them verbatim.
func Fingerprint(s string) string {
	h := blake2b.Sum256([]byte(s))
	return hex.EncodeToString(h[:16])
}
