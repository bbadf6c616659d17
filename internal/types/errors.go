package types

import (
	"errors"
	"fmt"
)

// Domain error taxonomy shared across the engine. Handlers map these to HTTP
// statuses in pkg/response.
var (
	// ErrInsufficientFunds is returned when a wallet debit would take the
	// balance below zero.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOversold is returned when a share reservation exceeds the
	// remaining supply of a listing or resale offer.
	ErrOversold = errors.New("insufficient shares available")

	// ErrInsufficientShares is returned when an ownership debit or resale
	// listing exceeds the shares a user actually holds.
	ErrInsufficientShares = errors.New("insufficient shares owned")

	// ErrNotFound is returned when a referenced wallet, listing or offer
	// does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrConcurrencyConflict is transient: two writers raced on the same
	// idempotency key. Safe to retry with the identical key.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")

	// ErrForbidden is returned when the caller is not the owner of the
	// resource being mutated.
	ErrForbidden = errors.New("operation not permitted")
)

// ValidationError reports malformed input on a mutating operation.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Reason
}

// Validationf builds a ValidationError from a format string.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
