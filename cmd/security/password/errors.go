package password

import "errors"

var (
	ErrPasswordTooShort = errors.New("password too short")
	ErrPasswordTooLong  = errors.New("password too long")
	ErrWeakPassword     = errors.New("weak password")

	// ErrInvalidHash covers malformed encodings and salt/hash pairs that were
	// never produced together.
	ErrInvalidHash   = errors.New("invalid password hash")
	ErrInvalidSalt   = errors.New("invalid salt")
	ErrUnknownScheme = errors.New("unknown password scheme")
)
