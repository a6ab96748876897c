package identity

import (
	"log/slog"

	"gatehouse/cmd/security/password"
)

// UserRecord is one known user and their stored credential.
//
// Salt is derived from Username once and never regenerated. PasswordHash is
// either a SHA-512 hex digest of password+salt or an Argon2id encoding keyed
// by the same salt.
type UserRecord struct {
	Username     string
	PasswordHash string
	Salt         string
	Permissions  Permissions
}

// NewUserRecord builds a record with the default salted SHA-512 scheme.
// It never fails and applies no password policy.
func NewUserRecord(username, plaintext string, perms Permissions) UserRecord {
	salt := password.DeriveSalt(username)
	return UserRecord{
		Username:     username,
		PasswordHash: password.Digest(plaintext + salt),
		Salt:         salt,
		Permissions:  perms,
	}
}

// Register builds a record using cfg's scheme and policy.
func Register(cfg password.Config, username, plaintext string, perms Permissions) (UserRecord, error) {
	const op = "identity.Register"

	if username == "" {
		return UserRecord{}, invalid(op, "username is required")
	}

	salt := password.DeriveSalt(username)
	h, err := cfg.Hash(plaintext, salt)
	if err != nil {
		return UserRecord{}, OpError{Op: op, Kind: ErrInvalidInput, Err: err}
	}

	return UserRecord{
		Username:     username,
		PasswordHash: h,
		Salt:         salt,
		Permissions:  perms,
	}, nil
}

// Authenticate reports whether plaintext is this user's password.
// Malformed stored hashes never authenticate.
func (u UserRecord) Authenticate(plaintext string) bool {
	return u.AuthenticateWith(password.DefaultConfig(), plaintext)
}

// AuthenticateWith is Authenticate with explicit Argon2id verification limits.
func (u UserRecord) AuthenticateWith(cfg password.Config, plaintext string) bool {
	ok, err := cfg.Verify(u.PasswordHash, plaintext, u.Salt)
	return err == nil && ok
}

// LogValue keeps credentials out of structured logs.
func (u UserRecord) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("username", u.Username),
		slog.String("permissions", u.Permissions.String()),
	)
}
