package blob

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileTarget stores each blob as one artifact file under a base
// directory. Non-streaming blobs hold raw ciphertext; streamed blobs hold
// length-prefixed frames in write order. The target does no locking of
// its own; callers serialize concurrent access to the same file ID.
type FileTarget struct {
	dir string
}

var _ Target = (*FileTarget)(nil)

// NewFileTarget creates the base directory if needed and returns a target
// over it.
func NewFileTarget(dir string) (*FileTarget, error) {
	if dir == "" {
		return nil, ErrInvalidDir
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return &FileTarget{dir: dir}, nil
}

// path resolves the artifact for a metadata record. The recorded
// location wins; metadata written without one falls back to the
// deterministic artifact name.
func (t *FileTarget) path(meta *Metadata) string {
	name := meta.Location.Path
	if name == "" {
		name = ArtifactName(meta.FileID, meta.Extension, meta.Streaming)
	}
	return filepath.Join(t.dir, name)
}

// PutWhole writes the ciphertext with a temp-file rename so readers never
// observe a partial artifact.
func (t *FileTarget) PutWhole(meta *Metadata, ciphertext []byte) error {
	name := ArtifactName(meta.FileID, meta.Extension, false)
	if err := t.writeAtomic(name, ciphertext); err != nil {
		return err
	}
	meta.Location = Location{Path: name}
	return nil
}

func (t *FileTarget) GetWhole(meta *Metadata) ([]byte, error) {
	data, err := os.ReadFile(t.path(meta))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return data, nil
}

// ChunkSink appends frames to a temp file; Commit renames it into place.
func (t *FileTarget) ChunkSink(meta *Metadata) (ChunkSink, error) {
	name := ArtifactName(meta.FileID, meta.Extension, true)
	tmp, err := os.CreateTemp(t.dir, ".tmp-"+meta.FileID+"-*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	meta.Location = Location{Path: name}
	return &fileSink{
		file: tmp,
		w:    bufio.NewWriter(tmp),
		dest: filepath.Join(t.dir, name),
	}, nil
}

func (t *FileTarget) ChunkSource(meta *Metadata) (ChunkSource, error) {
	f, err := os.Open(t.path(meta))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return &fileSource{file: f, r: bufio.NewReader(f)}, nil
}

// Delete removes the artifact file. A missing artifact is success.
func (t *FileTarget) Delete(meta *Metadata) error {
	err := os.Remove(t.path(meta))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

func (t *FileTarget) writeAtomic(name string, data []byte) error {
	tmp, err := os.CreateTemp(t.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	tmpName := tmp.Name()
	ok := false
	defer func() {
		if !ok {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := tmp.Chmod(0600); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := os.Rename(tmpName, filepath.Join(t.dir, name)); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	ok = true
	return nil
}

// fileSink writes frames to a temp file and renames it on Commit.
type fileSink struct {
	file      *os.File
	w         *bufio.Writer
	dest      string
	committed bool
	closed    bool
}

func (s *fileSink) Append(chunk SealedChunk) error {
	if s.closed || s.committed {
		return ErrSinkClosed
	}
	return writeFrame(s.w, chunk)
}

func (s *fileSink) Commit() error {
	if s.closed || s.committed {
		return ErrSinkClosed
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := s.file.Chmod(0600); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	if err := os.Rename(s.file.Name(), s.dest); err != nil {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	s.committed = true
	return nil
}

func (s *fileSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.committed {
		return nil
	}
	s.file.Close()
	if err := os.Remove(s.file.Name()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %w", ErrIOFailure, err)
	}
	return nil
}

// fileSource re-parses frames sequentially; position is the chunk index.
type fileSource struct {
	file  *os.File
	r     *bufio.Reader
	index int
}

func (s *fileSource) Next() (SealedChunk, error) {
	chunk, err := readFrame(s.r)
	if err != nil {
		if err == io.EOF {
			return SealedChunk{}, io.EOF
		}
		return SealedChunk{}, err
	}
	chunk.Index = s.index
	s.index++
	return chunk, nil
}

func (s *fileSource) Close() error {
	return s.file.Close()
}
