package password

import (
	"os"
	"testing"
)

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv := []string{
		"GATEHOUSE_PASSWORD_SCHEME",
		"GATEHOUSE_PASSWORD_MIN_LEN",
		"GATEHOUSE_PASSWORD_MAX_LEN",
		"GATEHOUSE_PASSWORD_REJECT_VERY_WEAK",
		"GATEHOUSE_ARGON2_MEMORY_KIB",
		"GATEHOUSE_ARGON2_ITERATIONS",
		"GATEHOUSE_ARGON2_PARALLELISM",
		"GATEHOUSE_ARGON2_KEY_LEN",
	}
	for _, k := range clearEnv {
		_ = os.Unsetenv(k)
	}

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	def := DefaultConfig()
	if cfg.Scheme != SchemeSHA512 {
		t.Fatalf("expected sha512 default scheme, got %q", cfg.Scheme)
	}
	if cfg.Policy.MinLength != def.Policy.MinLength {
		t.Fatalf("min length mismatch")
	}
	if cfg.Params.MemoryKiB != def.Params.MemoryKiB {
		t.Fatalf("memory mismatch")
	}
}

func TestFromEnv_Override(t *testing.T) {
	t.Setenv("GATEHOUSE_PASSWORD_SCHEME", "argon2id")
	t.Setenv("GATEHOUSE_PASSWORD_MIN_LEN", "10")
	t.Setenv("GATEHOUSE_PASSWORD_MAX_LEN", "200")
	t.Setenv("GATEHOUSE_PASSWORD_REJECT_VERY_WEAK", "true")
	t.Setenv("GATEHOUSE_ARGON2_MEMORY_KIB", "32768")
	t.Setenv("GATEHOUSE_ARGON2_ITERATIONS", "4")
	t.Setenv("GATEHOUSE_ARGON2_PARALLELISM", "2")
	t.Setenv("GATEHOUSE_ARGON2_KEY_LEN", "32")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv error: %v", err)
	}

	if cfg.Scheme != SchemeArgon2id {
		t.Fatalf("scheme override failed: %q", cfg.Scheme)
	}
	if cfg.Policy.MinLength != 10 || cfg.Policy.MaxLength != 200 || !cfg.Policy.RejectVeryWeak {
		t.Fatalf("policy override failed: %+v", cfg.Policy)
	}
	if cfg.Params.MemoryKiB != 32768 || cfg.Params.Iterations != 4 || cfg.Params.Parallelism != 2 {
		t.Fatalf("argon2 override failed: %+v", cfg.Params)
	}
	if cfg.Params.KeyLength != 32 {
		t.Fatalf("key len override failed: %+v", cfg.Params)
	}
}

func TestFromEnv_InvalidMinMax(t *testing.T) {
	t.Setenv("GATEHOUSE_PASSWORD_MIN_LEN", "20")
	t.Setenv("GATEHOUSE_PASSWORD_MAX_LEN", "10")

	if _, err := FromEnv(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFromEnv_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"GATEHOUSE_PASSWORD_SCHEME":           "plaintext",
		"GATEHOUSE_PASSWORD_REJECT_VERY_WEAK": "maybe",
		"GATEHOUSE_ARGON2_MEMORY_KIB":         "1",
		"GATEHOUSE_ARGON2_ITERATIONS":         "abc",
		"GATEHOUSE_ARGON2_PARALLELISM":        "0",
		"GATEHOUSE_ARGON2_KEY_LEN":            "1000",
	}

	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := FromEnv(); err == nil {
				t.Fatalf("expected error for %s=%q", key, val)
			}
		})
	}
}
