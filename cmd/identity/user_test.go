package identity

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"gatehouse/cmd/security/password"
)

func TestNewUserRecord_Authenticate(t *testing.T) {
	t.Parallel()

	u := NewUserRecord("alice", "s3cret", NewPermissions(PermUpload))

	if u.Salt != password.DeriveSalt("alice") {
		t.Fatalf("salt must be derived from username")
	}
	if u.PasswordHash != password.Digest("s3cret"+u.Salt) {
		t.Fatalf("hash must be Digest(password+salt)")
	}
	if !u.Authenticate("s3cret") {
		t.Fatalf("expected authentication with the registered password")
	}
	if u.Authenticate("S3cret") || u.Authenticate("") {
		t.Fatalf("expected rejection for other passwords")
	}
}

func TestNewUserRecord_EmptyPassword(t *testing.T) {
	t.Parallel()

	u := NewUserRecord("bob", "", 0)
	if !u.Authenticate("") {
		t.Fatalf("an empty registered password authenticates the empty attempt")
	}
	if u.Authenticate("x") {
		t.Fatalf("expected rejection")
	}
}

func TestUserRecord_KnownVector(t *testing.T) {
	t.Parallel()

	u := UserRecord{
		Username:     "username",
		PasswordHash: "8e3955db72f80547d9f27ebaa278be711dc13993e4cf516b8a0709a772b2490c3d083f7099ee2b64966f1597fccc94cdf21cb45102ad45210e832f95ab22ceab",
		Salt:         "TOIEIDPGRCIOEHNCPDHOUEGRYPTDUTDA",
	}
	if !u.Authenticate("password") {
		t.Fatalf("expected stored record to authenticate")
	}
	if u.Authenticate("password ") {
		t.Fatalf("expected exact match only")
	}
}

func TestUserRecord_MalformedHashNeverAuthenticates(t *testing.T) {
	t.Parallel()

	u := UserRecord{Username: "x", PasswordHash: "garbage", Salt: "ABC"}
	if u.Authenticate("") || u.Authenticate("garbage") {
		t.Fatalf("malformed hash must not authenticate")
	}
}

func TestRegister_Argon2id(t *testing.T) {
	t.Parallel()

	cfg := password.DefaultConfig()
	cfg.Scheme = password.SchemeArgon2id
	cfg.Params = password.Argon2idParams{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, KeyLength: 32}

	u, err := Register(cfg, "carol", "long enough pw", NewPermissions(PermAdmin))
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if !strings.HasPrefix(u.PasswordHash, "$argon2id$") {
		t.Fatalf("expected argon2id hash, got %q", u.PasswordHash)
	}
	if !u.AuthenticateWith(cfg, "long enough pw") {
		t.Fatalf("expected authentication")
	}
	if u.AuthenticateWith(cfg, "wrong") {
		t.Fatalf("expected rejection")
	}
}

func TestRegister_Invalid(t *testing.T) {
	t.Parallel()

	cfg := password.DefaultConfig()
	cfg.Policy.MinLength = 8

	if _, err := Register(cfg, "", "long enough", 0); !IsInvalidInput(err) {
		t.Fatalf("expected invalid input for empty username, got %v", err)
	}
	_, err := Register(cfg, "dave", "short", 0)
	if !IsInvalidInput(err) {
		t.Fatalf("expected invalid input for policy failure, got %v", err)
	}
	if !errors.Is(err, password.ErrPasswordTooShort) {
		t.Fatalf("expected the policy cause to be kept, got %v", err)
	}
}

func TestUserRecord_LogValueRedacts(t *testing.T) {
	t.Parallel()

	u := NewUserRecord("erin", "topsecret", NewPermissions(PermReview))

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	log.Info("user", slog.Any("user", u))

	out := buf.String()
	if !strings.Contains(out, `"username":"erin"`) || !strings.Contains(out, `"permissions":"review"`) {
		t.Fatalf("expected username and permissions in log, got %s", out)
	}
	if strings.Contains(out, u.PasswordHash) || strings.Contains(out, u.Salt) {
		t.Fatalf("credential leaked into log: %s", out)
	}
}
