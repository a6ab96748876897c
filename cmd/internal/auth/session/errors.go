package session

import "errors"

var (
	// ErrInvalidCredentials is returned by Login for an unknown username and for
	// a wrong password alike, so callers cannot enumerate users.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)
