// Package identity implements the credential side of gatehouse.
//
// It holds user records (username, salted password hash, salt, permissions),
// the in-memory credential store, and loaders that populate that store at
// startup from a YAML file or a read-only Postgres table.
//
// Usernames are compared exactly: no trimming, no case folding.
package identity
