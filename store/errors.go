package store

import "errors"

var (
	// ErrInvalidDir indicates an empty data directory path.
	ErrInvalidDir = errors.New("store: data directory must not be empty")

	// ErrNoValue indicates a typed read found nothing under the key.
	ErrNoValue = errors.New("store: no value for key")
)
