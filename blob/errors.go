package blob

import "errors"

var (
	// ErrNotFound indicates no artifact exists at the metadata's location.
	ErrNotFound = errors.New("blob: artifact not found")

	// ErrCorruptArtifact indicates a stored artifact's framing is truncated
	// or malformed.
	ErrCorruptArtifact = errors.New("blob: corrupt artifact")

	// ErrInvalidMetadata indicates a metadata record is missing fields the
	// operation requires.
	ErrInvalidMetadata = errors.New("blob: invalid metadata")

	// ErrInvalidDir indicates the target directory path is invalid.
	ErrInvalidDir = errors.New("blob: invalid target directory")

	// ErrUnsupportedCompression indicates an unsupported compression scheme.
	ErrUnsupportedCompression = errors.New("blob: unsupported compression scheme")

	// ErrIOFailure indicates an artifact read/write error.
	ErrIOFailure = errors.New("blob: I/O failure")

	// ErrSinkClosed indicates an append to a chunk sink that was already
	// committed or closed.
	ErrSinkClosed = errors.New("blob: chunk sink closed")
)
