package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks input the caller must correct.
	ErrValidation = errors.New("validation failed")
	// ErrUpstream marks a failed or malformed response from the external classifier.
	ErrUpstream = errors.New("upstream classifier failed")
	// ErrInFlight is returned when a guarded operation is already running for the same user.
	ErrInFlight = errors.New("operation already in flight")
)

// ValidationError describes a single rejected input.
type ValidationError struct {
	Field  string
	Value  any
	Reason string
}

func (e ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError.
func (e ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a ValidationError.
func Invalid(field string, value any, reason string) error {
	return ValidationError{Field: field, Value: value, Reason: reason}
}

// Upstream wraps err so errors.Is(err, ErrUpstream) holds.
func Upstream(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUpstream, err)
}
