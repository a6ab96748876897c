package identity

import (
	"errors"
	"fmt"
)

// Error kinds, matched with errors.Is. The API layer maps them to status codes.
var (
	ErrInvalidInput = errors.New("invalid_input")
	ErrConflict     = errors.New("conflict")
	ErrNotFound     = errors.New("not_found")
)

// OpError ties a failure to the identity operation that produced it.
// Kind is one of the error kinds above; Err, when set, is the underlying cause
// (a password policy error, a YAML syntax error). Both match errors.Is.
// Neither Msg nor Err ever carries a credential.
type OpError struct {
	Op   string
	Kind error
	Err  error
	Msg  string
}

func (e OpError) Error() string {
	detail := e.Msg
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	if detail == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Kind, detail)
}

func (e OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ConflictError reports a uniqueness conflict for a specific logical field.
// Value is the conflicting key (a username), never a credential.
type ConflictError struct {
	Op    string
	Field string
	Value string
}

func (e ConflictError) Error() string {
	switch {
	case e.Field == "":
		return fmt.Sprintf("%s: %v", e.Op, ErrConflict)
	case e.Value == "":
		return fmt.Sprintf("%s: %v: %s", e.Op, ErrConflict, e.Field)
	default:
		return fmt.Sprintf("%s: %v: %s %q", e.Op, ErrConflict, e.Field, e.Value)
	}
}

func (e ConflictError) Unwrap() error { return ErrConflict }

// NotFoundError reports a missing source (users file, table).
type NotFoundError struct {
	Op       string
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: %v", e.Op, ErrNotFound)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, ErrNotFound, e.Resource)
}

func (e NotFoundError) Unwrap() error { return ErrNotFound }

func invalid(op, msg string) error {
	return OpError{Op: op, Kind: ErrInvalidInput, Msg: msg}
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var ce ConflictError
	return errors.As(err, &ce)
}

// IsNotFound reports whether err represents ErrNotFound (including NotFoundError).
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsInvalidInput reports whether err represents ErrInvalidInput.
func IsInvalidInput(err error) bool { return errors.Is(err, ErrInvalidInput) }
