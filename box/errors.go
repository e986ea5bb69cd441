package box

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrBoxNotFound indicates the named box is not registered.
	// Raised before any I/O is attempted.
	ErrBoxNotFound = errors.New("box: box not found")

	// ErrAmbiguousKey indicates a key resolved in more than one box.
	ErrAmbiguousKey = errors.New("box: ambiguous key")

	// ErrEmptyBoxName indicates an empty box name.
	ErrEmptyBoxName = errors.New("box: box name must not be empty")

	// ErrDuplicateBox indicates a box name was registered twice.
	ErrDuplicateBox = errors.New("box: box already registered")

	// ErrCorruptRecord indicates a secure box record whose framing is
	// malformed or of an unknown version.
	ErrCorruptRecord = errors.New("box: corrupt secure record")
)

// AmbiguousKeyError reports a key present in more than one box during an
// unscoped resolve. Resolution never silently picks one of the boxes;
// the caller must retry with an explicit box name.
type AmbiguousKeyError struct {
	Key   string
	Boxes []string
}

func (e *AmbiguousKeyError) Error() string {
	return fmt.Sprintf("box: key %q is ambiguous across boxes: %s", e.Key, strings.Join(e.Boxes, ", "))
}

// Unwrap ties the typed error to ErrAmbiguousKey for errors.Is checks.
func (e *AmbiguousKeyError) Unwrap() error { return ErrAmbiguousKey }
