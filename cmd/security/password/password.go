package password

import (
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	argon2Version = 19 // argon2.Version is 0x13 (19)
	argon2Prefix  = "$argon2id$"
)

// Scheme selects how new password hashes are computed.
// Verification detects the scheme from the encoded hash itself.
type Scheme string

const (
	// SchemeSHA512 stores hex(SHA-512(password + salt)).
	SchemeSHA512 Scheme = "sha512"
	// SchemeArgon2id stores a PHC-like Argon2id string keyed by the same salt.
	SchemeArgon2id Scheme = "argon2id"
)

// ParseScheme maps a configuration value to a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(strings.ToLower(strings.TrimSpace(s))) {
	case SchemeSHA512:
		return SchemeSHA512, nil
	case SchemeArgon2id:
		return SchemeArgon2id, nil
	default:
		return "", ErrUnknownScheme
	}
}

// Hash validates plaintext against the policy and returns the encoded hash of
// plaintext salted with salt.
func (c Config) Hash(plaintext, salt string) (string, error) {
	if err := c.Validate(plaintext); err != nil {
		return "", err
	}

	switch c.Scheme {
	case SchemeSHA512, "":
		return Digest(plaintext + salt), nil
	case SchemeArgon2id:
		return c.hashArgon2id(plaintext, salt)
	default:
		return "", ErrUnknownScheme
	}
}

// Verify checks whether plaintext, salted with salt, matches encoded.
// Returns (true, nil) for a match, (false, nil) for mismatch,
// and (false, ErrInvalidHash) for malformed/unsupported hashes.
func (c Config) Verify(encoded, plaintext, salt string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argon2Prefix):
		return c.verifyArgon2id(encoded, plaintext, salt)
	case isDigestHex(encoded):
		return Equal(Digest(plaintext+salt), encoded), nil
	default:
		return false, ErrInvalidHash
	}
}

// isDigestHex reports whether s looks like a Digest result.
// Uppercase hex is rejected: stored digests are compared case-sensitively.
func isDigestHex(s string) bool {
	if len(s) != DigestHexLength {
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

// hashArgon2id returns:
// $argon2id$v=19$m=<mem>,t=<iter>,p=<par>$<salt_b64>$<hash_b64>
func (c Config) hashArgon2id(plaintext, salt string) (string, error) {
	if len(salt) < minArgon2SaltLen || len(salt) > maxArgon2SaltLen {
		return "", fmt.Errorf("%w: length %d out of range [%d..%d]", ErrInvalidSalt, len(salt), minArgon2SaltLen, maxArgon2SaltLen)
	}

	key := argon2.IDKey(
		[]byte(plaintext),
		[]byte(salt),
		c.Params.Iterations,
		c.Params.MemoryKiB,
		c.Params.Parallelism,
		c.Params.KeyLength,
	)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Version,
		c.Params.MemoryKiB,
		c.Params.Iterations,
		c.Params.Parallelism,
		b64.EncodeToString([]byte(salt)),
		b64.EncodeToString(key),
	), nil
}

func (c Config) verifyArgon2id(encoded, plaintext, salt string) (bool, error) {
	params, embeddedSalt, expected, err := decodeArgon2id(encoded)
	if err != nil {
		return false, err
	}

	// The record's salt and the one embedded in the hash must agree,
	// otherwise the record was assembled from mismatched parts.
	if !Equal(string(embeddedSalt), salt) {
		return false, ErrInvalidHash
	}

	// Refuse hashes whose cost parameters exceed our configured maximums by a
	// large margin; the encoded string is attacker-influenced input.
	if !withinReasonableBounds(params, c.Params) {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey(
		[]byte(plaintext),
		embeddedSalt,
		params.Iterations,
		params.MemoryKiB,
		params.Parallelism,
		params.KeyLength,
	)

	return Equal(string(key), string(expected)), nil
}

func withinReasonableBounds(got Argon2idParams, limits Argon2idParams) bool {
	// Hashes produced with older/smaller settings still verify.
	if got.MemoryKiB > limits.MemoryKiB*2 {
		return false
	}
	if got.Iterations > limits.Iterations*2 {
		return false
	}
	if got.Parallelism > limits.Parallelism*2 {
		return false
	}
	if got.KeyLength < 16 || got.KeyLength > 128 {
		return false
	}
	return true
}

// decodeArgon2id parses the encoded hash and returns params, salt and expected key.
func decodeArgon2id(encoded string) (Argon2idParams, []byte, []byte, error) {
	// $argon2id$v=19$m=65536,t=3,p=1$<salt>$<hash>
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if parts[2] != fmt.Sprintf("v=%d", argon2Version) {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	if !strings.HasPrefix(parts[3], "m=") {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	var mem, it, par uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &it, &par); err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	if mem == 0 || it == 0 || par == 0 || par > 255 {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(parts[4])
	if err != nil || len(salt) < minArgon2SaltLen || len(salt) > maxArgon2SaltLen {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}
	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return Argon2idParams{}, nil, nil, ErrInvalidHash
	}

	params := Argon2idParams{
		MemoryKiB:   mem,
		Iterations:  it,
		Parallelism: uint8(par),      // #nosec G115 -- bounded to 255 above.
		KeyLength:   uint32(len(key)), // #nosec G115 -- bounded by withinReasonableBounds before use.
	}

	return params, salt, key, nil
}

// IsEncoded reports whether encoded is a hash Verify can interpret.
// It is cheap: no key derivation runs.
func IsEncoded(encoded string) bool {
	if isDigestHex(encoded) {
		return true
	}
	if !strings.HasPrefix(encoded, argon2Prefix) {
		return false
	}
	_, _, _, err := decodeArgon2id(encoded)
	return err == nil
}

// Argon2idInfo returns the cost parameters and salt embedded in an Argon2id
// hash. ok is false for SHA-512 digests and malformed input.
func Argon2idInfo(encoded string) (params Argon2idParams, salt string, ok bool) {
	if !strings.HasPrefix(encoded, argon2Prefix) {
		return Argon2idParams{}, "", false
	}
	params, rawSalt, _, err := decodeArgon2id(encoded)
	if err != nil {
		return Argon2idParams{}, "", false
	}
	return params, string(rawSalt), true
}

// MostExpensive returns the Argon2id parameters with the highest verification
// cost among encoded, skipping hashes that Verify would refuse under c.
func (c Config) MostExpensive(encoded []string) (Argon2idParams, bool) {
	var (
		best  Argon2idParams
		found bool
	)
	for _, e := range encoded {
		p, _, ok := Argon2idInfo(e)
		if !ok || !withinReasonableBounds(p, c.Params) {
			continue
		}
		if !found || p.cost() > best.cost() || (p.cost() == best.cost() && p.Parallelism < best.Parallelism) {
			best, found = p, true
		}
	}
	return best, found
}
