package blob

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lockboxorg/liblockbox-go/box"
)

func testSealedChunk(index int) SealedChunk {
	return SealedChunk{
		Index:      index,
		Size:       4,
		Nonce:      []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
		Tag:        []byte{9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9},
		Ciphertext: []byte{0xDE, 0xAD, 0xBE, 0xEF},
	}
}

func TestFileSink_CloseWithoutCommitAborts(t *testing.T) {
	dir := t.TempDir()
	target, err := NewFileTarget(dir)
	require.NoError(t, err)

	meta := &Metadata{FileID: "abort-me", Extension: "bin", Streaming: true}
	sink, err := target.ChunkSink(meta)
	require.NoError(t, err)

	require.NoError(t, sink.Append(testSealedChunk(0)))
	require.NoError(t, sink.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "aborted sink must leave neither artifact nor temp file")
}

func TestFileSink_CommitThenClose(t *testing.T) {
	dir := t.TempDir()
	target, err := NewFileTarget(dir)
	require.NoError(t, err)

	meta := &Metadata{FileID: "keep-me", Extension: "bin", Streaming: true}
	sink, err := target.ChunkSink(meta)
	require.NoError(t, err)

	require.NoError(t, sink.Append(testSealedChunk(0)))
	require.NoError(t, sink.Commit())
	require.NoError(t, sink.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep-me.bin.encf", entries[0].Name())
}

func TestFileSink_ClosedRejectsWrites(t *testing.T) {
	target, err := NewFileTarget(t.TempDir())
	require.NoError(t, err)

	meta := &Metadata{FileID: "closed", Extension: "bin", Streaming: true}
	sink, err := target.ChunkSink(meta)
	require.NoError(t, err)

	require.NoError(t, sink.Close())
	assert.ErrorIs(t, sink.Append(testSealedChunk(0)), ErrSinkClosed)
	assert.ErrorIs(t, sink.Commit(), ErrSinkClosed)
	assert.NoError(t, sink.Close(), "repeated close is a no-op")
}

func TestFileSink_CommittedRejectsWrites(t *testing.T) {
	target, err := NewFileTarget(t.TempDir())
	require.NoError(t, err)

	meta := &Metadata{FileID: "done", Extension: "bin", Streaming: true}
	sink, err := target.ChunkSink(meta)
	require.NoError(t, err)

	require.NoError(t, sink.Commit())
	assert.ErrorIs(t, sink.Append(testSealedChunk(0)), ErrSinkClosed)
	assert.ErrorIs(t, sink.Commit(), ErrSinkClosed)
}

func TestFileTarget_EmptyDir(t *testing.T) {
	_, err := NewFileTarget("")
	assert.ErrorIs(t, err, ErrInvalidDir)
}

func TestBucketSink_CloseWithoutCommitAborts(t *testing.T) {
	bucket, err := box.NewMemoryEngine(nil).Box("blobs")
	require.NoError(t, err)
	target := NewBucketTarget(bucket)

	meta := &Metadata{FileID: "abort-me", Streaming: true}
	sink, err := target.ChunkSink(meta)
	require.NoError(t, err)

	require.NoError(t, sink.Append(testSealedChunk(0)))
	require.NoError(t, sink.Append(testSealedChunk(1)))
	require.NoError(t, sink.Close())

	for i := 0; i < 2; i++ {
		ok, err := bucket.Has(chunkKey("abort-me", i))
		require.NoError(t, err)
		assert.False(t, ok, "chunk %d should have been rolled back", i)
	}
}

func TestBucketSink_CommitKeepsRecords(t *testing.T) {
	bucket, err := box.NewMemoryEngine(nil).Box("blobs")
	require.NoError(t, err)
	target := NewBucketTarget(bucket)

	meta := &Metadata{FileID: "keep-me", Streaming: true}
	sink, err := target.ChunkSink(meta)
	require.NoError(t, err)

	require.NoError(t, sink.Append(testSealedChunk(0)))
	require.NoError(t, sink.Commit())
	require.NoError(t, sink.Close())

	ok, err := bucket.Has(chunkKey("keep-me", 0))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestBucketTarget_GetWholeWrongType(t *testing.T) {
	bucket, err := box.NewMemoryEngine(nil).Box("blobs")
	require.NoError(t, err)
	target := NewBucketTarget(bucket)

	meta := &Metadata{FileID: "oops"}
	require.NoError(t, bucket.Put([]byte("oops"), "a string, not ciphertext"))

	_, err = target.GetWhole(meta)
	assert.ErrorIs(t, err, ErrCorruptArtifact)
}

func TestBucketTarget_ChunkSourceDescriptorMismatch(t *testing.T) {
	bucket, err := box.NewMemoryEngine(nil).Box("blobs")
	require.NoError(t, err)
	target := NewBucketTarget(bucket)

	meta := &Metadata{
		FileID:     "short",
		Streaming:  true,
		ChunkCount: 2,
		Chunks:     []ChunkRef{{Index: 0}},
	}
	_, err = target.ChunkSource(meta)
	assert.ErrorIs(t, err, ErrInvalidMetadata)
}
