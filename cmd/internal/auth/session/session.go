package session

import (
	"log/slog"
	"time"

	"gatehouse/cmd/identity"
)

// Token is the opaque bearer value a client presents. It is never logged.
type Token string

// LogValue redacts the token if it ever reaches a structured log.
func (Token) LogValue() slog.Value { return slog.StringValue("[redacted]") }

// Session is one issued login.
type Session struct {
	// ID is a ULID for logs and admin views.
	ID string
	// User is a copy captured at login; later store changes do not affect it.
	User identity.UserRecord
	// IssuedAt is the issue time in Unix seconds.
	IssuedAt int64
}

// age is signed: a wall clock stepped backwards yields a negative age.
func (s Session) age(now int64) int64 { return now - s.IssuedAt }

// expired reports whether the TTL has elapsed. A session is still valid at
// exactly IssuedAt+ttl.
func (s Session) expired(now, ttl int64) bool { return s.age(now) > ttl }

// validAt reports whether the session identifies its user at now.
func (s Session) validAt(now, ttl, skew int64) bool {
	a := s.age(now)
	return a >= -skew && a <= ttl
}

// ExpiresAt returns the last instant at which the session is still valid.
func (s Session) ExpiresAt(ttl time.Duration) time.Time {
	return time.Unix(s.IssuedAt, 0).Add(ttl).UTC()
}

// LogValue keeps log lines free of credentials.
func (s Session) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", s.ID),
		slog.String("username", s.User.Username),
		slog.Int64("issued_at", s.IssuedAt),
	)
}
