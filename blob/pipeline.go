// Package blob seals payloads with per-file symmetric keys and persists
// them on a pluggable target, either whole or as a stream of fixed-size
// chunks. Keys live in an external credential store; every read and
// delete operates on the metadata record a save returns.
package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/lockboxorg/liblockbox-go/config"
	"github.com/lockboxorg/liblockbox-go/crypt"
	"github.com/lockboxorg/liblockbox-go/keyring"
	"github.com/lockboxorg/liblockbox-go/offload"
)

// Pipeline drives the save, read, and delete paths over one target.
type Pipeline struct {
	target Target
	keys   keyring.Store
	codec  crypt.Codec

	chunkSize          int
	streamingThreshold int
	compression        string
	workers            int

	policy *offload.Policy
	ids    IDGenerator
	log    Logger
}

// Option tunes a Pipeline beyond its configuration.
type Option func(*Pipeline)

// WithLogger sets the pipeline logger. The default discards output.
func WithLogger(log Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// WithIDGenerator sets the file ID source. The default is random UUIDs.
func WithIDGenerator(ids IDGenerator) Option {
	return func(p *Pipeline) { p.ids = ids }
}

// WithPool shares an offload pool with other components instead of the
// pipeline owning one.
func WithPool(pool *offload.Pool, threshold int) Option {
	return func(p *Pipeline) { p.policy = offload.NewPolicy(threshold, pool) }
}

// NewPipeline validates cfg before any I/O and returns a pipeline sealing
// with the configured suite.
func NewPipeline(target Target, keys keyring.Store, cfg config.Config, opts ...Option) (*Pipeline, error) {
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	suite, err := crypt.ParseSuite(cfg.Suite)
	if err != nil {
		return nil, err
	}
	codec, err := crypt.New(suite)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		target:             target,
		keys:               keys,
		codec:              codec,
		chunkSize:          cfg.ChunkSize,
		streamingThreshold: cfg.StreamingThreshold,
		compression:        cfg.Compression,
		workers:            cfg.Workers,
		policy:             offload.NewPolicy(cfg.BinaryOffloadThreshold, offload.NewPool(cfg.Workers)),
		ids:                UUIDGenerator{},
		log:                NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Save stores data, picking the path by size: payloads under the
// streaming threshold are sealed in one call, larger ones are chunked.
func (p *Pipeline) Save(ctx context.Context, data []byte, extension string) (*Metadata, error) {
	if len(data) < p.streamingThreshold {
		return p.SaveBytes(ctx, data, extension)
	}
	return p.SaveStream(ctx, bytes.NewReader(data), extension)
}

// SaveBytes seals the whole payload in one AEAD call and persists it at
// the target, then the key in the credential store.
func (p *Pipeline) SaveBytes(ctx context.Context, data []byte, extension string) (*Metadata, error) {
	fileID := p.ids.New()
	key, err := crypt.NewKey()
	if err != nil {
		return nil, err
	}

	meta := &Metadata{
		FileID:      fileID,
		KeyName:     KeyName(fileID),
		Extension:   SanitizeExtension(extension),
		Suite:       p.codec.Suite().String(),
		Compression: p.compression,
		Size:        int64(len(data)),
	}

	compressed, err := compress(data, p.compression)
	if err != nil {
		return nil, err
	}

	var sealed crypt.Sealed
	err = p.policy.Do(ctx, len(compressed), func() error {
		var serr error
		sealed, serr = p.codec.SealAAD(compressed, key, wholeAAD(fileID))
		return serr
	})
	if err != nil {
		return nil, err
	}
	meta.Nonce = sealed.Nonce
	meta.Tag = sealed.Tag

	if err := p.target.PutWhole(meta, sealed.Ciphertext); err != nil {
		return nil, err
	}
	if err := p.persistKey(meta, key); err != nil {
		return nil, err
	}

	p.log.Debug("sealed blob", "file_id", fileID, "bytes", len(data))
	return meta, nil
}

// SaveStream consumes r in fixed-size chunks, sealing each with a fresh
// nonce under one file key. Every chunk except possibly the last has
// exactly the configured plaintext size; a zero-byte input produces zero
// chunks. Chunks are sealed in parallel but emitted strictly in index
// order, since raw-file frames identify chunks only by position.
func (p *Pipeline) SaveStream(ctx context.Context, r io.Reader, extension string) (*Metadata, error) {
	fileID := p.ids.New()
	key, err := crypt.NewKey()
	if err != nil {
		return nil, err
	}

	meta := &Metadata{
		FileID:      fileID,
		KeyName:     KeyName(fileID),
		Extension:   SanitizeExtension(extension),
		Suite:       p.codec.Suite().String(),
		Compression: p.compression,
		Streaming:   true,
		ChunkSize:   p.chunkSize,
	}

	sink, err := p.target.ChunkSink(meta)
	if err != nil {
		return nil, err
	}
	defer sink.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	type job struct {
		index int
		data  []byte
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan job, p.workers)
	results := make(chan SealedChunk, p.workers)

	// Reader: slice exact chunk-size pieces off the stream, then a final
	// undersized piece if anything remains.
	g.Go(func() error {
		defer close(jobs)
		var (
			buf   []byte
			tmp   = make([]byte, 32*1024)
			index int
		)
		emit := func(data []byte) error {
			select {
			case jobs <- job{index: index, data: data}:
				index++
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		for {
			n, rerr := r.Read(tmp)
			if n > 0 {
				buf = append(buf, tmp[:n]...)
				for len(buf) >= p.chunkSize {
					data := make([]byte, p.chunkSize)
					copy(data, buf)
					buf = append(buf[:0], buf[p.chunkSize:]...)
					if err := emit(data); err != nil {
						return err
					}
				}
			}
			if rerr == io.EOF {
				if len(buf) > 0 {
					final := make([]byte, len(buf))
					copy(final, buf)
					return emit(final)
				}
				return nil
			}
			if rerr != nil {
				return fmt.Errorf("blob: read input: %w", rerr)
			}
		}
	})

	// Sealers: compress and seal in parallel, one goroutine per worker.
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for jb := range jobs {
				compressed, cerr := compress(jb.data, p.compression)
				if cerr != nil {
					return cerr
				}
				var sc crypt.Sealed
				err := p.policy.Do(gctx, len(compressed), func() error {
					var serr error
					sc, serr = p.codec.SealAAD(compressed, key, chunkAAD(fileID, jb.index))
					return serr
				})
				if err != nil {
					return err
				}
				out := SealedChunk{
					Index:      jb.index,
					Size:       len(jb.data),
					Nonce:      sc.Nonce,
					Tag:        sc.Tag,
					Ciphertext: sc.Ciphertext,
				}
				select {
				case results <- out:
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	go func() {
		g.Wait()
		close(results)
	}()

	// Emitter: restore index order before the sink sees anything. At most
	// one result per in-flight worker waits here.
	var (
		emitErr error
		pending = make(map[int]SealedChunk)
		next    int
		total   int64
	)
	for sc := range results {
		if emitErr != nil {
			continue
		}
		pending[sc.Index] = sc
		for {
			cur, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			if err := sink.Append(cur); err != nil {
				emitErr = err
				cancel()
				break
			}
			meta.Chunks = append(meta.Chunks, ChunkRef{
				Index: cur.Index,
				Size:  cur.Size,
				Nonce: cur.Nonce,
				Tag:   cur.Tag,
			})
			total += int64(cur.Size)
			next++
		}
	}
	if emitErr != nil {
		return nil, emitErr
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	meta.ChunkCount = next
	meta.Size = total

	if err := sink.Commit(); err != nil {
		return nil, err
	}
	if err := p.persistKey(meta, key); err != nil {
		return nil, err
	}

	p.log.Debug("sealed stream", "file_id", fileID, "chunks", next, "bytes", total)
	return meta, nil
}

// Get returns the whole plaintext for meta. A failure on any chunk
// aborts the read; partial plaintext is never returned.
func (p *Pipeline) Get(ctx context.Context, meta *Metadata) ([]byte, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	key, codec, err := p.readKey(meta)
	if err != nil {
		return nil, err
	}

	if !meta.Streaming {
		ciphertext, err := p.target.GetWhole(meta)
		if err != nil {
			return nil, err
		}
		var plain []byte
		err = p.policy.Do(ctx, len(ciphertext), func() error {
			var oerr error
			plain, oerr = codec.OpenAAD(ciphertext, key, meta.Nonce, meta.Tag, wholeAAD(meta.FileID))
			return oerr
		})
		if err != nil {
			return nil, err
		}
		return decompress(plain, meta.Compression)
	}

	src, err := p.target.ChunkSource(meta)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	out := make([]byte, 0, meta.Size)
	count := 0
	for {
		chunk, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		plain, err := p.openChunk(ctx, codec, key, meta, chunk)
		if err != nil {
			return nil, err
		}
		out = append(out, plain...)
		count++
	}
	if count != meta.ChunkCount {
		return nil, fmt.Errorf("%w: artifact holds %d chunks, metadata records %d",
			ErrCorruptArtifact, count, meta.ChunkCount)
	}
	return out, nil
}

// Open returns a reader over the plaintext. Streamed blobs decrypt chunk
// by chunk as the reader advances; non-streaming blobs are materialized
// up front. ctx governs offloaded work for the whole read.
func (p *Pipeline) Open(ctx context.Context, meta *Metadata) (io.ReadCloser, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	if !meta.Streaming {
		data, err := p.Get(ctx, meta)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	}

	key, codec, err := p.readKey(meta)
	if err != nil {
		return nil, err
	}
	src, err := p.target.ChunkSource(meta)
	if err != nil {
		return nil, err
	}
	return &blobReader{ctx: ctx, pipeline: p, codec: codec, key: key, meta: meta, src: src}, nil
}

// Delete removes the artifact, then the external key entry. Deleting an
// already-absent artifact succeeds; a credential-store failure still
// propagates.
func (p *Pipeline) Delete(ctx context.Context, meta *Metadata) error {
	if err := meta.Validate(); err != nil {
		return err
	}
	if err := p.target.Delete(meta); err != nil {
		return err
	}
	if err := p.keys.Delete(meta.KeyName); err != nil {
		return fmt.Errorf("blob: delete key: %w", err)
	}
	p.log.Debug("deleted blob", "file_id", meta.FileID)
	return nil
}

// persistKey stores the file key once the artifact is safely written. On
// failure the artifact is removed so no unreadable orphan remains.
func (p *Pipeline) persistKey(meta *Metadata, key []byte) error {
	if err := p.keys.Write(meta.KeyName, key); err != nil {
		if derr := p.target.Delete(meta); derr != nil {
			p.log.Warn("orphaned artifact after key write failure",
				"file_id", meta.FileID, "error", derr)
		}
		return fmt.Errorf("blob: persist key: %w", err)
	}
	return nil
}

// readKey fetches the file key and builds a codec for the suite the blob
// was sealed with, which wins over the configured suite.
func (p *Pipeline) readKey(meta *Metadata) ([]byte, crypt.Codec, error) {
	key, err := p.keys.Read(meta.KeyName)
	if err != nil {
		return nil, crypt.Codec{}, err
	}
	suite, err := crypt.ParseSuite(meta.Suite)
	if err != nil {
		return nil, crypt.Codec{}, err
	}
	codec, err := crypt.New(suite)
	if err != nil {
		return nil, crypt.Codec{}, err
	}
	return key, codec, nil
}

func (p *Pipeline) openChunk(ctx context.Context, codec crypt.Codec, key []byte, meta *Metadata, chunk SealedChunk) ([]byte, error) {
	var plain []byte
	err := p.policy.Do(ctx, len(chunk.Ciphertext), func() error {
		var oerr error
		plain, oerr = codec.OpenAAD(chunk.Ciphertext, key, chunk.Nonce, chunk.Tag,
			chunkAAD(meta.FileID, chunk.Index))
		return oerr
	})
	if err != nil {
		return nil, err
	}
	return decompress(plain, meta.Compression)
}

// wholeAAD binds a single-call seal to its file ID.
func wholeAAD(fileID string) []byte {
	return []byte(fileID)
}

// chunkAAD binds a chunk to its file ID and position, so sealed records
// cannot be swapped between files or reordered within one.
func chunkAAD(fileID string, index int) []byte {
	return []byte(fileID + ":" + strconv.Itoa(index))
}

// blobReader serves decrypted chunks as a stream.
type blobReader struct {
	ctx      context.Context
	pipeline *Pipeline
	codec    crypt.Codec
	key      []byte
	meta     *Metadata
	src      ChunkSource
	buf      []byte
	count    int
	done     bool
	err      error
}

var _ io.ReadCloser = (*blobReader)(nil)

func (r *blobReader) Read(out []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	for len(r.buf) == 0 {
		if r.done {
			r.err = io.EOF
			return 0, io.EOF
		}
		chunk, err := r.src.Next()
		if err == io.EOF {
			if r.count != r.meta.ChunkCount {
				r.err = fmt.Errorf("%w: artifact holds %d chunks, metadata records %d",
					ErrCorruptArtifact, r.count, r.meta.ChunkCount)
				return 0, r.err
			}
			r.done = true
			continue
		}
		if err != nil {
			r.err = err
			return 0, err
		}
		if r.count >= r.meta.ChunkCount {
			r.err = fmt.Errorf("%w: more chunks than metadata records", ErrCorruptArtifact)
			return 0, r.err
		}
		plain, err := r.pipeline.openChunk(r.ctx, r.codec, r.key, r.meta, chunk)
		if err != nil {
			r.err = err
			return 0, err
		}
		r.buf = plain
		r.count++
	}
	n := copy(out, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

func (r *blobReader) Close() error {
	return r.src.Close()
}
