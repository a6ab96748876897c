package password

import (
	"crypto/sha256"
	"math/rand/v2"
)

const (
	// SaltLength is the number of characters in a derived salt.
	SaltLength = 32

	saltAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// DeriveSalt returns a 32-character salt drawn uniformly from A-Z.
//
// The SHA-256 digest of seed seeds a ChaCha8 generator, so the same seed
// (the username) always yields the same salt and distinct seeds yield
// distinct salts with overwhelming probability.
func DeriveSalt(seed string) string {
	// Sum256 returns [32]byte, which is exactly the ChaCha8 seed size.
	sum := sha256.Sum256([]byte(seed))
	rng := rand.New(rand.NewChaCha8(sum))

	b := make([]byte, SaltLength)
	for i := range b {
		b[i] = saltAlphabet[rng.IntN(len(saltAlphabet))]
	}
	return string(b)
}
