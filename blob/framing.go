package blob

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Frame layout, append-only and read back in write order:
//
//	[chunkLen:4 big-endian][nonceLen:1][nonce][tagLen:1][tag][ciphertext]
//
// chunkLen counts ciphertext bytes only. Frames carry no index; position
// in the artifact is the chunk index.

// maxFrameLen caps a single frame's ciphertext so a corrupted length
// prefix cannot become a giant allocation.
const maxFrameLen = 1 << 30

// SealedChunk is one encrypted chunk together with its AEAD envelope.
// Size is the plaintext length before compression; readers recovering
// chunks from raw frames leave it zero since frames do not record it.
type SealedChunk struct {
	Index      int
	Size       int
	Nonce      []byte
	Tag        []byte
	Ciphertext []byte
}

// writeFrame appends one frame to w.
func writeFrame(w io.Writer, c SealedChunk) error {
	if len(c.Nonce) > 255 || len(c.Tag) > 255 {
		return fmt.Errorf("%w: envelope field too long", ErrInvalidMetadata)
	}
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(c.Ciphertext)))
	for _, part := range [][]byte{
		header[:],
		{byte(len(c.Nonce))},
		c.Nonce,
		{byte(len(c.Tag))},
		c.Tag,
		c.Ciphertext,
	} {
		if _, err := w.Write(part); err != nil {
			return fmt.Errorf("%w: %w", ErrIOFailure, err)
		}
	}
	return nil
}

// readFrame reads the next frame from r. End-of-input exactly at a frame
// boundary returns io.EOF; truncation anywhere inside a frame is
// ErrCorruptArtifact.
func readFrame(r io.Reader) (SealedChunk, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return SealedChunk{}, io.EOF
		}
		return SealedChunk{}, fmt.Errorf("%w: truncated frame header: %w", ErrCorruptArtifact, err)
	}

	chunkLen := binary.BigEndian.Uint32(header[:])
	if chunkLen > maxFrameLen {
		return SealedChunk{}, fmt.Errorf("%w: frame length %d exceeds limit", ErrCorruptArtifact, chunkLen)
	}

	nonce, err := readSized(r, "nonce")
	if err != nil {
		return SealedChunk{}, err
	}
	tag, err := readSized(r, "tag")
	if err != nil {
		return SealedChunk{}, err
	}

	ciphertext := make([]byte, chunkLen)
	if _, err := io.ReadFull(r, ciphertext); err != nil {
		return SealedChunk{}, fmt.Errorf("%w: truncated ciphertext: %w", ErrCorruptArtifact, err)
	}

	return SealedChunk{Nonce: nonce, Tag: tag, Ciphertext: ciphertext}, nil
}

// readSized reads a 1-byte length followed by that many bytes.
func readSized(r io.Reader, field string) ([]byte, error) {
	var size [1]byte
	if _, err := io.ReadFull(r, size[:]); err != nil {
		return nil, fmt.Errorf("%w: truncated %s length: %w", ErrCorruptArtifact, field, err)
	}
	buf := make([]byte, size[0])
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("%w: truncated %s: %w", ErrCorruptArtifact, field, err)
	}
	return buf, nil
}
