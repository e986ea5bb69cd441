package strategy

import (
	"errors"
	"fmt"
)

var (
	// ErrTypeMismatch indicates a value could not be coerced to the
	// requested kind.
	ErrTypeMismatch = errors.New("strategy: type mismatch")

	// ErrCorruptValue indicates a stored tagged value whose payload does
	// not parse as its kind claims.
	ErrCorruptValue = errors.New("strategy: corrupt tagged value")
)

// TypeMismatchError reports a failed coercion, naming the wanted kind and
// the observed value.
type TypeMismatchError struct {
	Want  Kind
	Value any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("strategy: cannot coerce %T (%v) to %s", e.Value, e.Value, e.Want)
}

// Unwrap ties the typed error to ErrTypeMismatch for errors.Is checks.
func (e *TypeMismatchError) Unwrap() error { return ErrTypeMismatch }
