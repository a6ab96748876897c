package token

import (
	"crypto/rand"
	"fmt"
	"io"
)

const (
	// Alphabet is the character set of every generated token.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// MinLength and MaxLength bound NewAlphanumeric.
	// 32 chars over 62 symbols is ~190 bits of entropy.
	MinLength = 16
	MaxLength = 256

	// Largest multiple of len(Alphabet) that fits in a byte; bytes at or above
	// it are discarded to keep the distribution uniform.
	rejectAbove = 256 - (256 % len(Alphabet))
)

// NewAlphanumeric returns a uniformly random token of n characters from Alphabet.
func NewAlphanumeric(n int) (string, error) {
	return newAlphanumeric(rand.Reader, n)
}

func newAlphanumeric(r io.Reader, n int) (string, error) {
	if n < MinLength || n > MaxLength {
		return "", fmt.Errorf("%w: %d not in [%d..%d]", ErrInvalidLength, n, MinLength, MaxLength)
	}

	out := make([]byte, 0, n)
	// Over-read a little so one Read usually suffices.
	buf := make([]byte, n+n/4+8)
	for len(out) < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", fmt.Errorf("%w: %v", ErrRandom, err)
		}
		for _, b := range buf {
			if int(b) >= rejectAbove {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == n {
				break
			}
		}
	}

	return string(out), nil
}

// IsAlphanumeric reports whether s has exactly n characters, all from Alphabet.
// A mismatch never identifies a session, so callers can skip the lookup.
func IsAlphanumeric(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}
