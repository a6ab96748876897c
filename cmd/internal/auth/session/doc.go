// Package session implements the gatehouse session registry.
//
// A successful login mints an opaque random token and binds it to a copy of the
// user record and the issue time (whole Unix seconds). Presenting the token later
// yields that identity for as long as the session is fresh.
//
// State lives in memory only. Expired entries are invisible to lookups at once
// and are removed by Cleanup, which a janitor goroutine runs periodically.
//
// Tokens are bearer secrets: they are never logged. Each session also carries a
// ULID that log lines and admin views use instead.
package session
