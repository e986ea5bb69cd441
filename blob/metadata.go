package blob

import (
	"fmt"
	"path/filepath"
	"strings"
)

// keyNamePrefix namespaces blob keys inside the credential store so they
// cannot collide with keys other subsystems write.
const keyNamePrefix = "blob-"

// KeyName returns the credential-store name holding the file's symmetric
// key.
func KeyName(fileID string) string {
	return keyNamePrefix + fileID
}

// ChunkRef describes one sealed chunk of a streamed blob.
type ChunkRef struct {
	// Index is the chunk's position in the original byte stream.
	Index int `cbor:"index" json:"index"`

	// Size is the chunk's plaintext length before compression.
	Size int `cbor:"size" json:"size"`

	Nonce []byte `cbor:"nonce" json:"nonce"`
	Tag   []byte `cbor:"tag" json:"tag"`
}

// Location points at the stored artifact. Exactly one field is set:
// Path by targets backed by a real filesystem, BucketKey by targets
// that store records in a box.
type Location struct {
	// BucketKey is the record key of a whole blob inside the bucket
	// target's box. Streamed chunk keys derive from the file ID instead.
	BucketKey string `cbor:"bucket_key,omitempty" json:"bucket_key,omitempty"`

	// Path is the artifact file name, relative to the file target's base
	// directory.
	Path string `cbor:"path,omitempty" json:"path,omitempty"`
}

// Metadata describes one stored blob. It is the handle every read and
// delete operates on; losing it orphans the artifact and its key.
type Metadata struct {
	// FileID is the generated identifier all locations derive from.
	FileID string `cbor:"file_id" json:"file_id"`

	// KeyName is the credential-store entry holding the symmetric key.
	KeyName string `cbor:"key_name" json:"key_name"`

	// Extension is the sanitized, advisory file extension.
	Extension string `cbor:"extension" json:"extension"`

	// Location is where the target persisted the artifact. Exactly one of
	// its fields is set, matching the target kind.
	Location Location `cbor:"location" json:"location"`

	// Suite names the AEAD cipher suite the blob was sealed with. Reads
	// honor this over the configured suite.
	Suite string `cbor:"suite" json:"suite"`

	// Compression names the compression scheme applied before sealing.
	Compression string `cbor:"compression,omitempty" json:"compression,omitempty"`

	// Streaming reports which save path produced the blob.
	Streaming bool `cbor:"streaming" json:"streaming"`

	// Size is the total plaintext length in bytes.
	Size int64 `cbor:"size" json:"size"`

	// Nonce and Tag seal the whole payload on the non-streaming path.
	Nonce []byte `cbor:"nonce,omitempty" json:"nonce,omitempty"`
	Tag   []byte `cbor:"tag,omitempty" json:"tag,omitempty"`

	// ChunkSize is the fixed plaintext chunk length of the streaming path.
	ChunkSize int `cbor:"chunk_size,omitempty" json:"chunk_size,omitempty"`

	// ChunkCount is the number of sealed chunks. Zero-byte inputs produce
	// zero chunks and an empty artifact.
	ChunkCount int `cbor:"chunk_count" json:"chunk_count"`

	// Chunks lists the per-chunk descriptors in index order.
	Chunks []ChunkRef `cbor:"chunks,omitempty" json:"chunks,omitempty"`
}

// Validate checks the fields the read and delete paths depend on.
func (m *Metadata) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil metadata", ErrInvalidMetadata)
	}
	if m.FileID == "" {
		return fmt.Errorf("%w: missing file id", ErrInvalidMetadata)
	}
	if m.KeyName == "" {
		return fmt.Errorf("%w: missing key name", ErrInvalidMetadata)
	}
	if m.Location.BucketKey != "" && m.Location.Path != "" {
		return fmt.Errorf("%w: location names both a bucket key and a path", ErrInvalidMetadata)
	}
	if m.Location.BucketKey == "" && m.Location.Path == "" {
		return fmt.Errorf("%w: missing location", ErrInvalidMetadata)
	}
	if p := m.Location.Path; p != "" && (p != filepath.Base(p) || p == "." || p == "..") {
		return fmt.Errorf("%w: location path %q is not a file name", ErrInvalidMetadata, p)
	}
	if m.Size < 0 {
		return fmt.Errorf("%w: negative size", ErrInvalidMetadata)
	}
	if m.Streaming {
		if m.ChunkSize <= 0 {
			return fmt.Errorf("%w: non-positive chunk size", ErrInvalidMetadata)
		}
		if m.ChunkCount < 0 {
			return fmt.Errorf("%w: negative chunk count", ErrInvalidMetadata)
		}
	} else if len(m.Nonce) == 0 || len(m.Tag) == 0 {
		return fmt.Errorf("%w: missing nonce or tag", ErrInvalidMetadata)
	}
	return nil
}

// SanitizeExtension reduces an advisory extension to characters safe in a
// file name. Dots and path separators are stripped rather than escaped;
// an extension that sanitizes to nothing becomes "bin".
func SanitizeExtension(ext string) string {
	var b strings.Builder
	for _, r := range ext {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "bin"
	}
	return b.String()
}

// ArtifactName returns the artifact file name for the raw-file target.
// Non-streaming blobs end in ".enc", streamed blobs in ".encf".
func ArtifactName(fileID, extension string, streaming bool) string {
	suffix := ".enc"
	if streaming {
		suffix = ".encf"
	}
	return fileID + "." + extension + suffix
}
