package password

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// DigestHexLength is the length of a Digest result (64-byte SHA-512 in hex).
const DigestHexLength = sha512.Size * 2

// Digest returns the lowercase hex SHA-512 digest of input.
func Digest(input string) string {
	sum := sha512.Sum512([]byte(input))
	return hex.EncodeToString(sum[:])
}

// Equal reports whether a and b are equal, in constant time for equal-length inputs.
func Equal(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
