package password

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
)

const (
	minArgon2SaltLen = 8
	maxArgon2SaltLen = 64
)

// Argon2idParams controls Argon2id hashing cost. MemoryKiB is in KiB as
// argon2.IDKey expects. There is no salt length: the salt is the record's
// DeriveSalt value.
type Argon2idParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	KeyLength   uint32
}

// cost orders parameter sets by the work a verification does.
func (p Argon2idParams) cost() uint64 {
	return uint64(p.MemoryKiB) * uint64(p.Iterations)
}

// Policy is checked when a password is set, never when one is verified.
type Policy struct {
	MinLength      int
	MaxLength      int // 0 disables the upper bound
	RejectVeryWeak bool
}

// Config is the single configuration surface for this package.
type Config struct {
	// Scheme is used for new hashes only; Verify accepts every known scheme.
	Scheme Scheme
	Params Argon2idParams
	Policy Policy
}

// DefaultConfig returns the salted SHA-512 scheme with a permissive policy.
// Params only matter once Argon2id is selected, and as the ceiling Verify
// applies to Argon2id hashes it finds in stored records.
func DefaultConfig() Config {
	threads := min(max(runtime.NumCPU(), 1), 4)

	return Config{
		Scheme: SchemeSHA512,
		Params: Argon2idParams{
			MemoryKiB:   64 * 1024,
			Iterations:  3,
			Parallelism: uint8(threads), // #nosec G115 -- clamped to [1..4].
			KeyLength:   32,
		},
		Policy: Policy{MinLength: 1, MaxLength: 1024},
	}
}

// envSetting binds one environment variable to the Config field it sets.
type envSetting struct {
	key   string
	apply func(c *Config, raw string) error
}

var envSettings = []envSetting{
	{"GATEHOUSE_PASSWORD_SCHEME", func(c *Config, raw string) (err error) {
		c.Scheme, err = ParseScheme(raw)
		return err
	}},
	{"GATEHOUSE_PASSWORD_MIN_LEN", func(c *Config, raw string) (err error) {
		c.Policy.MinLength, err = parseBounded[int](raw, 1, 1024)
		return err
	}},
	{"GATEHOUSE_PASSWORD_MAX_LEN", func(c *Config, raw string) (err error) {
		c.Policy.MaxLength, err = parseBounded[int](raw, 1, 4096)
		return err
	}},
	{"GATEHOUSE_PASSWORD_REJECT_VERY_WEAK", func(c *Config, raw string) (err error) {
		c.Policy.RejectVeryWeak, err = parseBool(raw)
		return err
	}},
	{"GATEHOUSE_ARGON2_MEMORY_KIB", func(c *Config, raw string) (err error) {
		c.Params.MemoryKiB, err = parseBounded[uint32](raw, 8*1024, 1024*1024) // 8 MiB .. 1 GiB
		return err
	}},
	{"GATEHOUSE_ARGON2_ITERATIONS", func(c *Config, raw string) (err error) {
		c.Params.Iterations, err = parseBounded[uint32](raw, 1, 20)
		return err
	}},
	{"GATEHOUSE_ARGON2_PARALLELISM", func(c *Config, raw string) (err error) {
		c.Params.Parallelism, err = parseBounded[uint8](raw, 1, 64)
		return err
	}},
	{"GATEHOUSE_ARGON2_KEY_LEN", func(c *Config, raw string) (err error) {
		c.Params.KeyLength, err = parseBounded[uint32](raw, 16, 64)
		return err
	}},
}

// FromEnv starts from DefaultConfig and applies every GATEHOUSE_PASSWORD_* and
// GATEHOUSE_ARGON2_* variable that is set. Any unparsable or out-of-range
// value is an error; a half-applied hashing config is never returned.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()

	for _, s := range envSettings {
		raw, ok := os.LookupEnv(s.key)
		if !ok {
			continue
		}
		if err := s.apply(&cfg, raw); err != nil {
			return Config{}, fmt.Errorf("%s: %w", s.key, err)
		}
	}

	if cfg.Policy.MinLength > cfg.Policy.MaxLength {
		return Config{}, fmt.Errorf("password policy invalid: min_len(%d) > max_len(%d)",
			cfg.Policy.MinLength, cfg.Policy.MaxLength)
	}
	return cfg, nil
}

func parseBounded[T int | uint8 | uint32](s string, lo, hi T) (T, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("not an integer")
	}
	if n < int64(lo) || n > int64(hi) {
		return 0, fmt.Errorf("out of range [%d..%d]", lo, hi)
	}
	return T(n), nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean")
	}
}
