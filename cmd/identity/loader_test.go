package identity

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gatehouse/cmd/security/password"
)

const knownHash = "8e3955db72f80547d9f27ebaa278be711dc13993e4cf516b8a0709a772b2490c3d083f7099ee2b64966f1597fccc94cdf21cb45102ad45210e832f95ab22ceab"

func TestParseUsers_Valid(t *testing.T) {
	t.Parallel()

	doc := `
users:
  - username: alice
    password: s3cret
    permissions: [upload, admin]
  - username: bob
    password_hash: ` + knownHash + `
    salt: TOIEIDPGRCIOEHNCPDHOUEGRYPTDUTDA
    permissions: [review]
  - username: carol
    password_hash: ` + password.Digest("pw"+password.DeriveSalt("carol")) + `
`
	recs, err := ParseUsers(strings.NewReader(doc), password.DefaultConfig())
	if err != nil {
		t.Fatalf("ParseUsers error: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}

	if !recs[0].Authenticate("s3cret") || recs[0].Permissions != NewPermissions(PermUpload, PermAdmin) {
		t.Fatalf("alice: unexpected record %+v", recs[0])
	}
	if !recs[1].Authenticate("password") || !recs[1].Permissions.Has(PermReview) {
		t.Fatalf("bob: unexpected record %+v", recs[1])
	}
	if recs[2].Salt != password.DeriveSalt("carol") || !recs[2].Authenticate("pw") {
		t.Fatalf("carol: salt must be derived when omitted")
	}
}

func TestParseUsers_Empty(t *testing.T) {
	t.Parallel()

	recs, err := ParseUsers(strings.NewReader(""), password.DefaultConfig())
	if err != nil || len(recs) != 0 {
		t.Fatalf("expected empty result, got %v, %v", recs, err)
	}
}

func TestParseUsers_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	doc := `
users:
  - username: alice
    password: one
  - username: alice
    password: two
`
	_, err := ParseUsers(strings.NewReader(doc), password.DefaultConfig())
	if !IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	var ce ConflictError
	if !errors.As(err, &ce) || ce.Value != "alice" {
		t.Fatalf("expected conflict on alice, got %v", err)
	}
}

func TestParseUsers_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"no username":   "users:\n  - password: x\n",
		"no credential": "users:\n  - username: a\n",
		"both":          "users:\n  - username: a\n    password: x\n    password_hash: " + knownHash + "\n",
		"bad hash":      "users:\n  - username: a\n    password_hash: nothex\n",
		"salt with pw":  "users:\n  - username: a\n    password: x\n    salt: ABCDEFGH\n",
		"bad perm":      "users:\n  - username: a\n    password: x\n    permissions: [root]\n",
		"unknown field": "users:\n  - username: a\n    password: x\n    email: a@example.com\n",
		"not yaml":      "users: [",
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseUsers(strings.NewReader(doc), password.DefaultConfig())
			if !IsInvalidInput(err) {
				t.Fatalf("expected invalid input, got %v", err)
			}
		})
	}
}

func TestParseUsers_AppliesPolicy(t *testing.T) {
	t.Parallel()

	cfg := password.DefaultConfig()
	cfg.Policy.MinLength = 10

	_, err := ParseUsers(strings.NewReader("users:\n  - username: a\n    password: short\n"), cfg)
	if !IsInvalidInput(err) {
		t.Fatalf("expected policy rejection, got %v", err)
	}
}

func TestFileSource_Load(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "users.yaml")
	if err := os.WriteFile(path, []byte("users:\n  - username: dave\n    password: pw\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	recs, err := FileSource{Path: path}.Load(context.Background())
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if len(recs) != 1 || !recs[0].Authenticate("pw") {
		t.Fatalf("unexpected records %+v", recs)
	}

	_, err = FileSource{Path: filepath.Join(dir, "missing.yaml")}.Load(context.Background())
	if !IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

type staticSource struct {
	name string
	recs []UserRecord
	err  error
}

func (s staticSource) Name() string { return s.name }

func (s staticSource) Load(context.Context) ([]UserRecord, error) { return s.recs, s.err }

func TestLoadAll(t *testing.T) {
	t.Parallel()

	a := staticSource{name: "a", recs: []UserRecord{NewUserRecord("u1", "x", 0)}}
	b := staticSource{name: "b", recs: []UserRecord{NewUserRecord("u2", "x", 0)}}

	recs, err := LoadAll(context.Background(), a, nil, b)
	if err != nil {
		t.Fatalf("LoadAll error: %v", err)
	}
	if len(recs) != 2 || recs[0].Username != "u1" || recs[1].Username != "u2" {
		t.Fatalf("unexpected order %+v", recs)
	}

	dup := staticSource{name: "c", recs: []UserRecord{NewUserRecord("u1", "y", 0)}}
	if _, err := LoadAll(context.Background(), a, dup); !IsConflict(err) {
		t.Fatalf("expected cross-source conflict, got %v", err)
	}

	boom := errors.New("boom")
	if _, err := LoadAll(context.Background(), staticSource{name: "bad", err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadAll(ctx, a); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParseUsers_Argon2idHashUsesEmbeddedSalt(t *testing.T) {
	t.Parallel()

	cfg := password.DefaultConfig()
	cfg.Scheme = password.SchemeArgon2id
	cfg.Params = password.Argon2idParams{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, KeyLength: 32}

	const otherSalt = "SOMEOTHERSALTVALUE12345"
	hash, err := cfg.Hash("s3cret", otherSalt)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	doc := "users:\n  - username: dave\n    password_hash: " + hash + "\n"
	recs, err := ParseUsers(strings.NewReader(doc), password.DefaultConfig())
	if err != nil {
		t.Fatalf("ParseUsers: %v", err)
	}
	if len(recs) != 1 || recs[0].Salt != otherSalt {
		t.Fatalf("expected embedded salt %q, got %+v", otherSalt, recs)
	}
	if !recs[0].Authenticate("s3cret") {
		t.Fatalf("record loaded without salt must authenticate")
	}

	mismatch := doc + "    salt: " + password.DeriveSalt("dave") + "\n"
	_, err = ParseUsers(strings.NewReader(mismatch), password.DefaultConfig())
	if !IsInvalidInput(err) {
		t.Fatalf("expected invalid input for mismatched salt, got %v", err)
	}
}
