package blob

// Target persists sealed artifacts. The pipeline logic is identical for
// every target; only addressing and framing differ, so the choice is made
// once at construction.
type Target interface {
	// PutWhole stores a single-call sealed payload and records the
	// artifact location on meta.
	PutWhole(meta *Metadata, ciphertext []byte) error

	// GetWhole returns the ciphertext stored by PutWhole, or ErrNotFound.
	GetWhole(meta *Metadata) ([]byte, error)

	// ChunkSink opens a writer for streamed chunks and records the
	// artifact location on meta. Appends must arrive in index order.
	ChunkSink(meta *Metadata) (ChunkSink, error)

	// ChunkSource opens a reader over the stored chunks of meta, yielding
	// them in index order.
	ChunkSource(meta *Metadata) (ChunkSource, error)

	// Delete removes the artifact. Deleting an absent artifact succeeds.
	Delete(meta *Metadata) error
}

// ChunkSink receives sealed chunks in index order. A sink that is closed
// without Commit discards whatever was appended, as far as the target can
// undo it.
type ChunkSink interface {
	// Append persists one sealed chunk.
	Append(chunk SealedChunk) error

	// Commit finalizes the artifact. No appends may follow.
	Commit() error

	// Close releases the sink. Closing before Commit aborts the write.
	// Close after Commit is a no-op, so it can be deferred.
	Close() error
}

// ChunkSource yields stored chunks in index order.
type ChunkSource interface {
	// Next returns the next chunk, or io.EOF after the last one.
	Next() (SealedChunk, error)

	// Close releases the source.
	Close() error
}
