package session

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"gatehouse/cmd/identity"
	"gatehouse/cmd/identity/ids"
	"gatehouse/cmd/security/password"
	"gatehouse/cmd/security/token"
)

// Registry owns the credential store and every live session.
//
// The session map is guarded by one RWMutex: Lookup and Len share the read
// lock; Login's insert, Cleanup and the Revoke calls take the write lock.
// Password verification happens before the lock is taken.
type Registry struct {
	cfg     Config
	users   *identity.Store
	pwcfg   password.Config
	now     func() time.Time
	log     *slog.Logger
	metrics *Metrics

	// dummy is verified against when the username is unknown so both failure
	// paths do the same hashing work. It is rebuilt when the store changes.
	dummyMu      sync.Mutex
	dummy        identity.UserRecord
	dummyVersion uint64

	mu       sync.RWMutex
	sessions map[Token]Session
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// WithMetrics sets the Prometheus collectors.
func WithMetrics(m *Metrics) Option {
	return func(r *Registry) { r.metrics = m }
}

// WithPasswordConfig sets the Argon2id verification limits used at login.
func WithPasswordConfig(cfg password.Config) Option {
	return func(r *Registry) { r.pwcfg = cfg }
}

// NewRegistry returns an empty registry over users. A nil users gets a fresh store.
func NewRegistry(cfg Config, users *identity.Store, opts ...Option) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if users == nil {
		users = identity.NewStore()
	}

	r := &Registry{
		cfg:      cfg,
		users:    users,
		pwcfg:    password.DefaultConfig(),
		now:      time.Now,
		log:      slog.New(slog.DiscardHandler),
		sessions: make(map[Token]Session),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}

	r.dummyMu.Lock()
	r.refreshDummyLocked()
	r.dummyMu.Unlock()
	return r, nil
}

// unknownUser returns the record verified against for usernames not in the store.
func (r *Registry) unknownUser() identity.UserRecord {
	r.dummyMu.Lock()
	defer r.dummyMu.Unlock()

	if r.users.Version() != r.dummyVersion {
		r.refreshDummyLocked()
	}
	return r.dummy
}

func (r *Registry) refreshDummyLocked() {
	hashes, version := r.users.PasswordHashes()
	r.dummy, r.dummyVersion = dummyRecord(r.pwcfg, hashes), version
}

// dummyRecord costs as much to verify as the most expensive stored hash Verify
// accepts: Argon2id with the heaviest parameters present, otherwise SHA-512.
// The configured Scheme plays no part; it only governs new hashes.
func dummyRecord(cfg password.Config, stored []string) identity.UserRecord {
	const name, placeholder = "\x00gatehouse-unknown-user", "timing-equalizer-placeholder"

	if params, ok := cfg.MostExpensive(stored); ok {
		c := cfg
		c.Scheme = password.SchemeArgon2id
		c.Params = params
		c.Policy = password.Policy{}
		if rec, err := identity.Register(c, name, placeholder, 0); err == nil {
			return rec
		}
	}
	return identity.NewUserRecord(name, placeholder, 0)
}

// Config returns the registry configuration.
func (r *Registry) Config() Config { return r.cfg }

// Users returns the credential store the registry authenticates against.
func (r *Registry) Users() *identity.Store { return r.users }

// Login verifies username and plaintext and, on success, mints a new token.
// Every success creates an independent session; earlier ones stay valid.
func (r *Registry) Login(username, plaintext string) (Token, error) {
	user, ok := r.users.GetUser(username)
	if !ok {
		_ = r.unknownUser().AuthenticateWith(r.pwcfg, plaintext)
		r.metrics.login(resultInvalidCredentials)
		return "", ErrInvalidCredentials
	}
	if !user.AuthenticateWith(r.pwcfg, plaintext) {
		r.metrics.login(resultInvalidCredentials)
		return "", ErrInvalidCredentials
	}

	now := r.now()
	id, err := ids.NewULID(now)
	if err != nil {
		r.metrics.login(resultError)
		return "", fmt.Errorf("session id: %w", err)
	}
	s := Session{ID: id, User: user, IssuedAt: now.Unix()}

	tok, err := r.insert(s)
	if err != nil {
		r.metrics.login(resultError)
		return "", err
	}

	r.metrics.login(resultSuccess)
	r.log.Debug("session.issued", slog.Any("session", s))
	return tok, nil
}

// insert stores s under a fresh token, retrying on the (astronomically
// unlikely) event of a collision with a live token.
func (r *Registry) insert(s Session) (Token, error) {
	const attempts = 3

	for i := 0; i < attempts; i++ {
		raw, err := token.NewAlphanumeric(r.cfg.TokenLength)
		if err != nil {
			return "", fmt.Errorf("session token: %w", err)
		}
		tok := Token(raw)

		r.mu.Lock()
		if _, taken := r.sessions[tok]; !taken {
			r.sessions[tok] = s
			r.metrics.setActive(len(r.sessions))
			r.mu.Unlock()
			return tok, nil
		}
		r.mu.Unlock()
	}
	return "", fmt.Errorf("session token: %d collisions in a row", attempts)
}

// Lookup returns the identity bound to tok while its session is fresh.
// Unknown, expired and malformed tokens all yield (zero, false). Lookup never
// mutates the map: expired entries stay until Cleanup.
func (r *Registry) Lookup(tok Token) (identity.UserRecord, bool) {
	s, ok := r.LookupSession(tok)
	return s.User, ok
}

// LookupSession is Lookup returning the whole session.
func (r *Registry) LookupSession(tok Token) (Session, bool) {
	if !token.IsAlphanumeric(string(tok), r.cfg.TokenLength) {
		r.metrics.lookup(resultMalformed)
		return Session{}, false
	}

	now := r.now().Unix()

	r.mu.RLock()
	s, ok := r.sessions[tok]
	r.mu.RUnlock()

	switch {
	case !ok:
		r.metrics.lookup(resultMiss)
		return Session{}, false
	case !s.validAt(now, r.ttlSeconds(), r.skewSeconds()):
		r.metrics.lookup(resultExpired)
		return Session{}, false
	default:
		r.metrics.lookup(resultHit)
		return s, true
	}
}

// Cleanup removes every session already expired when the sweep starts and
// returns how many it removed. Logins block for the duration of the sweep.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	now := r.now().Unix()
	ttl := r.ttlSeconds()

	removed := 0
	for tok, s := range r.sessions {
		if s.expired(now, ttl) {
			delete(r.sessions, tok)
			removed++
		}
	}
	// The gauge is written under the lock so a slower writer never
	// publishes a stale count over a newer one.
	r.metrics.setActive(len(r.sessions))
	r.mu.Unlock()

	r.metrics.cleaned(removed)
	return removed
}

// Revoke deletes the session for tok. It reports whether one existed.
func (r *Registry) Revoke(tok Token) bool {
	r.mu.Lock()
	s, ok := r.sessions[tok]
	if ok {
		delete(r.sessions, tok)
		r.metrics.setActive(len(r.sessions))
	}
	r.mu.Unlock()

	if ok {
		r.metrics.revokedN(1)
		r.log.Debug("session.revoked", slog.Any("session", s))
	}
	return ok
}

// RevokeUser deletes every session of username and returns the count.
func (r *Registry) RevokeUser(username string) int {
	r.mu.Lock()
	removed := 0
	for tok, s := range r.sessions {
		if s.User.Username == username {
			delete(r.sessions, tok)
			removed++
		}
	}
	r.metrics.setActive(len(r.sessions))
	r.mu.Unlock()

	r.metrics.revokedN(removed)
	return removed
}

// Len returns the number of sessions held, expired-but-unswept included.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sessions returns a snapshot of every held session, oldest first.
func (r *Registry) Sessions() []Session {
	r.mu.RLock()
	out := make([]Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].IssuedAt != out[j].IssuedAt {
			return out[i].IssuedAt < out[j].IssuedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Expired reports whether s is past its TTL right now.
func (r *Registry) Expired(s Session) bool {
	return s.expired(r.now().Unix(), r.ttlSeconds())
}

func (r *Registry) ttlSeconds() int64  { return int64(r.cfg.TTL / time.Second) }
func (r *Registry) skewSeconds() int64 { return int64(r.cfg.ClockSkew / time.Second) }
