package token

import "errors"

// Public, stable errors for callers.
var (
	ErrInvalidLength = errors.New("token length out of range")
	ErrRandom        = errors.New("token random source failed")
)
