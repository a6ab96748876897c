// Package token provides random token primitives for gatehouse.
//
// It is the single source of truth for session token generation.
//
// Design goals:
//   - Tokens come from crypto/rand; nothing is seeded from the clock.
//   - Characters are drawn uniformly from [A-Za-z0-9] using rejection sampling,
//     so there is no modulo bias.
//   - Callers can cheaply reject malformed presented tokens before any map lookup.
package token
