package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel kinds for the booking and ledger engine. Callers match with
// errors.Is; handler code maps kinds to HTTP responses so raw store errors
// never reach the wire.
var (
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrNotAuthorized       = errors.New("not authorized")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrBelowMinimum        = errors.New("amount below minimum")
	ErrDestinationNotFound = errors.New("destination not found")
	ErrNotFound            = errors.New("not found")
	ErrDuplicateOperation  = errors.New("duplicate operation")
	ErrStoreUnavailable    = errors.New("store unavailable")
)

// InvalidTransition names the status the record is actually in.
func InvalidTransition(current string) error {
	return fmt.Errorf("%w: current status is %s", ErrInvalidTransition, current)
}

// NotFound wraps ErrNotFound with the missing entity's name.
func NotFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

// StoreUnavailable marks a transient store failure as retryable.
func StoreUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
