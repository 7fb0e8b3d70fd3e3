package messages

import (
	"errors"
	"fmt"
)

// Error codes exposed to clients so UIs can branch on the failure kind.
const (
	ErrCodeValidation       = "validation_error"
	ErrCodeNotFound         = "not_found"
	ErrCodePasswordRequired = "password_required"
	ErrCodeInvalidPassword  = "invalid_password"
	ErrCodeStore            = "store_error"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when no message matches the id or password.
	ErrNotFound = errors.New("message not found")
	// ErrPasswordRequired is returned for a guarded message read without a password.
	ErrPasswordRequired = errors.New("password required")
	// ErrInvalidPassword is returned when the password does not match the guard.
	ErrInvalidPassword = errors.New("invalid password")
	// ErrStore is returned when the message store call fails or times out.
	ErrStore = errors.New("message store unavailable")
)

// ValidationError identifies the request field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) hold for any ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func storeError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}

// Code maps an error returned by Service to its client-facing code.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return ErrCodeValidation
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound
	case errors.Is(err, ErrPasswordRequired):
		return ErrCodePasswordRequired
	case errors.Is(err, ErrInvalidPassword):
		return ErrCodeInvalidPassword
	default:
		return ErrCodeStore
	}
}
