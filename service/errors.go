package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a referenced client, certificate, or
	// account does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAccountExists is returned when creating an account with an email
	// that is already registered.
	ErrAccountExists = errors.New("account already exists")

	// ErrInvalidCredentials is returned on bad email/password pairs.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrBlobDelete wraps a failed blob-store deletion. The single
	// certificate delete path aborts on it without touching metadata.
	ErrBlobDelete = errors.New("blob delete failed")
)

// ValidationError rejects a file before any store interaction. It is always
// user-correctable.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidation reports whether err is a pre-flight validation rejection.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func newValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
