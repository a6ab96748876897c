package session

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gatehouse/cmd/identity"
	"gatehouse/cmd/security/password"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestRegistry(t *testing.T, clock *fakeClock, opts ...Option) *Registry {
	t.Helper()

	users := identity.NewStore(
		identity.NewUserRecord("alice", "alice-pw", identity.NewPermissions(identity.PermUpload, identity.PermAdmin)),
		identity.NewUserRecord("bob", "bob-pw", identity.NewPermissions(identity.PermReview)),
	)

	opts = append([]Option{WithClock(clock.Now)}, opts...)
	r, err := NewRegistry(DefaultConfig(), users, opts...)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	return r
}

func mustLogin(t *testing.T, r *Registry, username, pw string) Token {
	t.Helper()

	tok, err := r.Login(username, pw)
	if err != nil {
		t.Fatalf("Login(%q): %v", username, err)
	}
	return tok
}

func TestLogin_ThenLookup(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeClock())
	tok := mustLogin(t, r, "alice", "alice-pw")

	if len(tok) != 32 {
		t.Fatalf("expected 32-char token, got %d", len(tok))
	}

	u, ok := r.Lookup(tok)
	if !ok {
		t.Fatalf("expected lookup to succeed")
	}
	if u.Username != "alice" {
		t.Fatalf("username=%q", u.Username)
	}
	if !u.Permissions.Has(identity.PermAdmin) || !u.Permissions.Has(identity.PermUpload) || u.Permissions.Has(identity.PermReview) {
		t.Fatalf("permissions=%v", u.Permissions)
	}
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeClock())

	_, errUnknown := r.Login("mallory", "alice-pw")
	_, errWrong := r.Login("alice", "bob-pw")
	_, errCase := r.Login("Alice", "alice-pw")

	for _, err := range []error{errUnknown, errWrong, errCase} {
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("expected ErrInvalidCredentials, got %v", err)
		}
	}
	if errUnknown.Error() != errWrong.Error() {
		t.Fatalf("unknown user and wrong password must be indistinguishable")
	}
	if r.Len() != 0 {
		t.Fatalf("failed logins must not create sessions")
	}
}

func TestLogin_MintsIndependentTokens(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeClock())
	a := mustLogin(t, r, "alice", "alice-pw")
	b := mustLogin(t, r, "alice", "alice-pw")

	if a == b {
		t.Fatalf("expected a new token per login")
	}
	if _, ok := r.Lookup(a); !ok {
		t.Fatalf("first token must stay valid")
	}
	if _, ok := r.Lookup(b); !ok {
		t.Fatalf("second token must be valid")
	}
	if r.Len() != 2 {
		t.Fatalf("Len()=%d", r.Len())
	}
}

func TestLookup_NeverIssued(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeClock())
	_ = mustLogin(t, r, "alice", "alice-pw")

	for _, tok := range []Token{"", "short", "AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA", "not/alphanumeric/at/all/xxxxxxx"} {
		if u, ok := r.Lookup(tok); ok || u.Username != "" {
			t.Fatalf("Lookup(%q) = %+v, %v", tok, u, ok)
		}
	}
}

func TestLookup_TTLBoundary(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	r := newTestRegistry(t, clock)
	tok := mustLogin(t, r, "bob", "bob-pw")

	if _, ok := r.Lookup(tok); !ok {
		t.Fatalf("valid at T")
	}

	clock.Advance(3600 * time.Second)
	if _, ok := r.Lookup(tok); !ok {
		t.Fatalf("valid at T+TTL")
	}

	clock.Advance(time.Second)
	if _, ok := r.Lookup(tok); ok {
		t.Fatalf("invalid at T+TTL+1")
	}

	if r.Len() != 1 {
		t.Fatalf("lookup must not remove expired entries, Len()=%d", r.Len())
	}
}

func TestLookup_FutureIssueTime(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	r := newTestRegistry(t, clock)
	tok := mustLogin(t, r, "bob", "bob-pw")

	clock.Advance(-30 * time.Second)
	if _, ok := r.Lookup(tok); !ok {
		t.Fatalf("a step back within clock skew keeps the session valid")
	}

	clock.Advance(-time.Second)
	if _, ok := r.Lookup(tok); ok {
		t.Fatalf("a step back beyond clock skew invalidates the session")
	}
}

func TestLookup_IdentityIsSnapshot(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeClock())
	tok := mustLogin(t, r, "alice", "alice-pw")

	r.Users().Clear()
	r.Users().Add(identity.NewUserRecord("alice", "other", 0))

	u, ok := r.Lookup(tok)
	if !ok {
		t.Fatalf("existing session must survive store changes")
	}
	if !u.Permissions.Has(identity.PermAdmin) {
		t.Fatalf("session must keep the identity captured at login")
	}
}

func TestCleanup_RemovesOnlyExpired(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	r := newTestRegistry(t, clock)

	old := mustLogin(t, r, "alice", "alice-pw")
	clock.Advance(30 * time.Minute)
	fresh := mustLogin(t, r, "bob", "bob-pw")
	clock.Advance(30*time.Minute + time.Second)

	if removed := r.Cleanup(); removed != 1 {
		t.Fatalf("Cleanup removed %d, want 1", removed)
	}
	if r.Len() != 1 {
		t.Fatalf("Len()=%d want 1", r.Len())
	}
	if _, ok := r.Lookup(old); ok {
		t.Fatalf("expired session must be gone")
	}
	if u, ok := r.Lookup(fresh); !ok || u.Username != "bob" {
		t.Fatalf("fresh session must remain")
	}

	if removed := r.Cleanup(); removed != 0 {
		t.Fatalf("second sweep removed %d", removed)
	}
}

func TestCleanup_KeepsBoundarySession(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	r := newTestRegistry(t, clock)
	tok := mustLogin(t, r, "alice", "alice-pw")

	clock.Advance(time.Hour)
	if removed := r.Cleanup(); removed != 0 {
		t.Fatalf("session at exactly TTL must not be swept, removed %d", removed)
	}
	if _, ok := r.Lookup(tok); !ok {
		t.Fatalf("expected session to remain valid")
	}
}

func TestRevoke(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeClock())
	a := mustLogin(t, r, "alice", "alice-pw")
	b := mustLogin(t, r, "alice", "alice-pw")

	if !r.Revoke(a) {
		t.Fatalf("expected Revoke to report an existing session")
	}
	if r.Revoke(a) {
		t.Fatalf("second Revoke must report false")
	}
	if _, ok := r.Lookup(a); ok {
		t.Fatalf("revoked token must not resolve")
	}
	if _, ok := r.Lookup(b); !ok {
		t.Fatalf("other sessions must survive")
	}
}

func TestRevokeUser(t *testing.T) {
	t.Parallel()

	r := newTestRegistry(t, newFakeClock())
	_ = mustLogin(t, r, "alice", "alice-pw")
	_ = mustLogin(t, r, "alice", "alice-pw")
	bob := mustLogin(t, r, "bob", "bob-pw")

	if n := r.RevokeUser("alice"); n != 2 {
		t.Fatalf("RevokeUser removed %d, want 2", n)
	}
	if n := r.RevokeUser("alice"); n != 0 {
		t.Fatalf("second RevokeUser removed %d", n)
	}
	if _, ok := r.Lookup(bob); !ok {
		t.Fatalf("other users must keep their sessions")
	}
}

func TestSessions_SnapshotOrder(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	r := newTestRegistry(t, clock)
	_ = mustLogin(t, r, "bob", "bob-pw")
	clock.Advance(time.Minute)
	_ = mustLogin(t, r, "alice", "alice-pw")

	list := r.Sessions()
	if len(list) != 2 {
		t.Fatalf("len=%d", len(list))
	}
	if list[0].User.Username != "bob" || list[1].User.Username != "alice" {
		t.Fatalf("expected oldest first, got %s, %s", list[0].User.Username, list[1].User.Username)
	}
	if list[0].ID == "" || list[0].ID == list[1].ID {
		t.Fatalf("expected distinct session ids")
	}
	if got := list[0].ExpiresAt(time.Hour); !got.Equal(time.Unix(list[0].IssuedAt, 0).Add(time.Hour)) {
		t.Fatalf("ExpiresAt=%v", got)
	}
}

func TestNewRegistry_InvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.TokenLength = 8
	if _, err := NewRegistry(cfg, nil); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
}

func TestRegistry_LongTokens(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.TokenLength = 64
	users := identity.NewStore(identity.NewUserRecord("carol", "pw", 0))
	r, err := NewRegistry(cfg, users)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	tok := mustLogin(t, r, "carol", "pw")
	if len(tok) != 64 {
		t.Fatalf("expected 64-char token, got %d", len(tok))
	}
	if _, ok := r.Lookup(tok); !ok {
		t.Fatalf("expected lookup to succeed")
	}
}

func TestRegistry_ConcurrentUse(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	r := newTestRegistry(t, clock)

	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for i := 0; i < 8; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				tok, err := r.Login("alice", "alice-pw")
				if err != nil {
					errs <- err
					return
				}
				if _, ok := r.Lookup(tok); !ok {
					errs <- fmt.Errorf("fresh token did not resolve")
					return
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_, _ = r.Login("bob", "wrong")
				_ = r.Len()
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				_ = r.Cleanup()
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent use: %v", err)
	}
	if r.Len() != 8*25 {
		t.Fatalf("Len()=%d want %d (no session may be swept while fresh)", r.Len(), 8*25)
	}
}

func testArgon2Config() password.Config {
	cfg := password.DefaultConfig()
	cfg.Scheme = password.SchemeArgon2id
	cfg.Params = password.Argon2idParams{MemoryKiB: 8 * 1024, Iterations: 1, Parallelism: 1, KeyLength: 32}
	return cfg
}

func TestRegistry_UnknownUserCostFollowsStoredScheme(t *testing.T) {
	t.Parallel()

	argonCfg := testArgon2Config()
	alice, err := identity.Register(argonCfg, "alice", "alice-pw", 0)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	users := identity.NewStore(alice, identity.NewUserRecord("bob", "bob-pw", 0))

	// New hashes default to SHA-512; the stored Argon2id row must still drive the dummy.
	r, err := NewRegistry(DefaultConfig(), users)
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}

	dummy := r.unknownUser()
	params, _, ok := password.Argon2idInfo(dummy.PasswordHash)
	if !ok {
		t.Fatalf("dummy hash must be argon2id, got %q", dummy.PasswordHash)
	}
	if params != argonCfg.Params {
		t.Fatalf("dummy params=%+v want %+v", params, argonCfg.Params)
	}

	if _, err := r.Login("mallory", "alice-pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: err=%v", err)
	}
	if _, err := r.Login("alice", "alice-pw"); err != nil {
		t.Fatalf("argon2id user login: %v", err)
	}
}

func TestRegistry_UnknownUserDummyTracksStoreChanges(t *testing.T) {
	t.Parallel()

	users := identity.NewStore(identity.NewUserRecord("bob", "bob-pw", 0))

	// Argon2id for new hashes, but only SHA-512 rows stored: the dummy stays cheap.
	r, err := NewRegistry(DefaultConfig(), users, WithPasswordConfig(testArgon2Config()))
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, _, ok := password.Argon2idInfo(r.unknownUser().PasswordHash); ok {
		t.Fatalf("dummy must be sha512 while no argon2id rows are stored")
	}

	carol, err := identity.Register(testArgon2Config(), "carol", "carol-pw", 0)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	users.Add(carol)

	if _, _, ok := password.Argon2idInfo(r.unknownUser().PasswordHash); !ok {
		t.Fatalf("dummy must switch to argon2id after an argon2id row is added")
	}
}
