package blob

import (
	"fmt"
	"io"
	"sort"

	"github.com/lockboxorg/liblockbox-go/box"
)

// BucketTarget stores blobs in a byte-keyed box. Whole payloads live
// under the file ID; streamed chunks are independent records under
// synthetic per-chunk keys, so no binary framing is needed.
type BucketTarget struct {
	box box.Box
}

var _ Target = (*BucketTarget)(nil)

// NewBucketTarget returns a target over the given box.
func NewBucketTarget(b box.Box) *BucketTarget {
	return &BucketTarget{box: b}
}

// chunkKey is the synthetic record key for one chunk of a streamed blob.
func chunkKey(fileID string, index int) []byte {
	return []byte(fmt.Sprintf("%s:c:%d", fileID, index))
}

// wholeKey resolves the record key of a non-streamed blob. The recorded
// location wins; metadata written without one falls back to the file ID.
func wholeKey(meta *Metadata) []byte {
	if meta.Location.BucketKey != "" {
		return []byte(meta.Location.BucketKey)
	}
	return []byte(meta.FileID)
}

func (t *BucketTarget) PutWhole(meta *Metadata, ciphertext []byte) error {
	if err := t.box.Put([]byte(meta.FileID), ciphertext); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	meta.Location = Location{BucketKey: meta.FileID}
	return nil
}

func (t *BucketTarget) GetWhole(meta *Metadata) ([]byte, error) {
	value, err := t.box.Get(wholeKey(meta))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if value == nil {
		return nil, ErrNotFound
	}
	data, ok := value.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: record is %T, not bytes", ErrCorruptArtifact, value)
	}
	return data, nil
}

func (t *BucketTarget) ChunkSink(meta *Metadata) (ChunkSink, error) {
	meta.Location = Location{BucketKey: meta.FileID}
	return &bucketSink{box: t.box, fileID: meta.FileID}, nil
}

func (t *BucketTarget) ChunkSource(meta *Metadata) (ChunkSource, error) {
	if len(meta.Chunks) != meta.ChunkCount {
		return nil, fmt.Errorf("%w: %d descriptors for %d chunks",
			ErrInvalidMetadata, len(meta.Chunks), meta.ChunkCount)
	}
	// Re-sequence by stored index; descriptor order is not trusted.
	ordered := make([]ChunkRef, len(meta.Chunks))
	copy(ordered, meta.Chunks)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Index < ordered[j].Index })
	return &bucketSource{box: t.box, fileID: meta.FileID, chunks: ordered}, nil
}

// Delete removes the whole record and every chunk record. Absent records
// are not an error, so delete is idempotent.
func (t *BucketTarget) Delete(meta *Metadata) error {
	if err := t.box.Delete(wholeKey(meta)); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	for i := 0; i < meta.ChunkCount; i++ {
		if err := t.box.Delete(chunkKey(meta.FileID, i)); err != nil {
			return fmt.Errorf("%w: %w", ErrIOFailure, err)
		}
	}
	return nil
}

// bucketSink writes each chunk record as it arrives. Closing without
// Commit deletes whatever was written.
type bucketSink struct {
	box       box.Box
	fileID    string
	written   int
	committed bool
	closed    bool
}

func (s *bucketSink) Append(chunk SealedChunk) error {
	if s.closed || s.committed {
		return ErrSinkClosed
	}
	if err := s.box.Put(chunkKey(s.fileID, chunk.Index), chunk.Ciphertext); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	s.written++
	return nil
}

func (s *bucketSink) Commit() error {
	if s.closed || s.committed {
		return ErrSinkClosed
	}
	s.committed = true
	return nil
}

func (s *bucketSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.committed {
		return nil
	}
	for i := 0; i < s.written; i++ {
		if err := s.box.Delete(chunkKey(s.fileID, i)); err != nil {
			return fmt.Errorf("%w: %w", ErrIOFailure, err)
		}
	}
	return nil
}

// bucketSource walks the chunk descriptors in ascending index order, so
// reads re-sequence regardless of write order.
type bucketSource struct {
	box    box.Box
	fileID string
	chunks []ChunkRef
	next   int
}

func (s *bucketSource) Next() (SealedChunk, error) {
	if s.next >= len(s.chunks) {
		return SealedChunk{}, io.EOF
	}
	ref := s.chunks[s.next]
	s.next++

	value, err := s.box.Get(chunkKey(s.fileID, ref.Index))
	if err != nil {
		return SealedChunk{}, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if value == nil {
		return SealedChunk{}, fmt.Errorf("%w: chunk %d", ErrNotFound, ref.Index)
	}
	data, ok := value.([]byte)
	if !ok {
		return SealedChunk{}, fmt.Errorf("%w: chunk %d is %T, not bytes", ErrCorruptArtifact, ref.Index, value)
	}

	return SealedChunk{
		Index:      ref.Index,
		Size:       ref.Size,
		Nonce:      ref.Nonce,
		Tag:        ref.Tag,
		Ciphertext: data,
	}, nil
}

func (s *bucketSource) Close() error { return nil }
