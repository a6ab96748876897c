// Package password provides salting, hashing and verification of user passwords.
//
// It implements:
// - Deterministic per-identity salt derivation (DeriveSalt)
// - The default salted SHA-512 scheme: hex(SHA-512(password + salt))
// - An optional Argon2id scheme using a PHC-like encoded string format
// - Password policy validation applied at registration time
//
// Security notes:
// - All comparisons of stored and computed hashes are constant-time.
// - Encoded hashes are treated as untrusted input during Verify and validated accordingly.
package password
