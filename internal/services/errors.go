package services

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden means the caller is not allowed to act on the entity.
	ErrForbidden = errors.New("forbidden")
	// ErrQuotaExceeded means the owner is at their active-listing cap.
	// The route layer translates it into a payment-required response.
	ErrQuotaExceeded = errors.New("active listing quota exceeded")
)

// ValidationError reports malformed or out-of-range input. The caller can
// correct the input and retry.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TransientError wraps a persistence I/O failure. Surfaced as a 5xx by the
// route layer; the sweeper contains it and retries on the next tick.
type TransientError struct {
	Op  string
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
