package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/lockboxorg/liblockbox-go/blob"
)

// SaveBlob seals data through the blob pipeline and records the returned
// metadata under key in the normal box. A blob already recorded under key
// is deleted after the new record lands, so the key always names exactly
// one artifact.
func (s *Store) SaveBlob(ctx context.Context, key string, data []byte, extension string) (*blob.Metadata, error) {
	meta, err := s.Blobs.Save(ctx, data, extension)
	if err != nil {
		return nil, err
	}
	if err := s.putMetadata(ctx, key, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// SaveBlobStream chunk-streams r through the blob pipeline regardless of
// size and records the metadata under key.
func (s *Store) SaveBlobStream(ctx context.Context, key string, r io.Reader, extension string) (*blob.Metadata, error) {
	meta, err := s.Blobs.SaveStream(ctx, r, extension)
	if err != nil {
		return nil, err
	}
	if err := s.putMetadata(ctx, key, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// ReadBlob loads the metadata recorded under key and returns the decrypted
// payload. A record whose artifact was removed out-of-band fails with
// blob.ErrNotFound.
func (s *Store) ReadBlob(ctx context.Context, key string) ([]byte, error) {
	meta, err := s.getMetadata(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.Blobs.Get(ctx, meta)
}

// OpenBlob loads the metadata recorded under key and returns a reader over
// the decrypted payload. The caller must Close it.
func (s *Store) OpenBlob(ctx context.Context, key string) (io.ReadCloser, error) {
	meta, err := s.getMetadata(ctx, key)
	if err != nil {
		return nil, err
	}
	return s.Blobs.Open(ctx, meta)
}

// DeleteBlob removes the artifact, its credential, and the metadata
// record. A key with no record is already deleted, so the call succeeds.
func (s *Store) DeleteBlob(ctx context.Context, key string) error {
	meta, err := s.getMetadata(ctx, key)
	if err != nil {
		if errors.Is(err, ErrNoValue) {
			return nil
		}
		return err
	}
	if err := s.Blobs.Delete(ctx, meta); err != nil {
		return err
	}
	return s.normal.Delete([]byte(key))
}

// putMetadata replaces the metadata record under key. The record is CBOR
// so it stays a Native byte value for the strategy layer. The previous
// blob under key, if any, is deleted once the new record is in place.
func (s *Store) putMetadata(ctx context.Context, key string, meta *blob.Metadata) error {
	old, oldErr := s.getMetadata(ctx, key)
	if oldErr != nil && !errors.Is(oldErr, ErrNoValue) {
		old = nil
	}

	data, err := cbor.Marshal(meta)
	if err != nil {
		return fmt.Errorf("store: encode metadata: %w", err)
	}
	encoded, err := s.Values.Encode(ctx, data)
	if err != nil {
		return err
	}
	if err := s.normal.Put([]byte(key), encoded); err != nil {
		if delErr := s.Blobs.Delete(ctx, meta); delErr != nil {
			s.log.Warn("orphaned blob after metadata write failure",
				"key", key, "file_id", meta.FileID, "error", delErr)
		}
		return fmt.Errorf("store: record metadata: %w", err)
	}

	if old != nil && old.FileID != meta.FileID {
		if err := s.Blobs.Delete(ctx, old); err != nil {
			s.log.Warn("replaced blob left behind",
				"key", key, "file_id", old.FileID, "error", err)
		}
	}
	return nil
}

// getMetadata loads and decodes the metadata record under key.
func (s *Store) getMetadata(ctx context.Context, key string) (*blob.Metadata, error) {
	raw, err := s.normal.Get([]byte(key))
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoValue, key)
	}
	decoded, err := s.Values.Decode(ctx, raw)
	if err != nil {
		return nil, err
	}
	data, ok := decoded.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: record under %q is %T, not blob metadata",
			blob.ErrInvalidMetadata, key, decoded)
	}
	var meta blob.Metadata
	if err := cbor.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: %w", blob.ErrInvalidMetadata, err)
	}
	return &meta, nil
}
