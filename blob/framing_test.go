package blob

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFraming_RoundTrip(t *testing.T) {
	chunks := []SealedChunk{
		{Nonce: bytes.Repeat([]byte{0x01}, 12), Tag: bytes.Repeat([]byte{0x02}, 16), Ciphertext: []byte("first chunk")},
		{Nonce: bytes.Repeat([]byte{0x03}, 24), Tag: bytes.Repeat([]byte{0x04}, 16), Ciphertext: []byte("second")},
		{Nonce: bytes.Repeat([]byte{0x05}, 12), Tag: bytes.Repeat([]byte{0x06}, 16), Ciphertext: []byte{}},
	}

	var buf bytes.Buffer
	for _, c := range chunks {
		require.NoError(t, writeFrame(&buf, c))
	}

	for _, want := range chunks {
		got, err := readFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, want.Nonce, got.Nonce)
		assert.Equal(t, want.Tag, got.Tag)
		assert.Equal(t, want.Ciphertext, got.Ciphertext)
	}

	// End-of-input exactly at a frame boundary is a clean stop.
	_, err := readFrame(&buf)
	assert.Equal(t, io.EOF, err)
}

func TestFraming_EmptyInput(t *testing.T) {
	_, err := readFrame(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)
}

func TestFraming_Truncation(t *testing.T) {
	chunk := SealedChunk{
		Nonce:      bytes.Repeat([]byte{0x01}, 12),
		Tag:        bytes.Repeat([]byte{0x02}, 16),
		Ciphertext: []byte("some ciphertext bytes"),
	}
	var buf bytes.Buffer
	require.NoError(t, writeFrame(&buf, chunk))
	whole := buf.Bytes()

	// Any cut other than a frame boundary is corruption, not EOF.
	cuts := []struct {
		name string
		at   int
	}{
		{"inside length prefix", 2},
		{"inside nonce length", 4},
		{"inside nonce", 10},
		{"inside tag", 4 + 1 + 12 + 1 + 8},
		{"inside ciphertext", len(whole) - 3},
	}
	for _, tt := range cuts {
		t.Run(tt.name, func(t *testing.T) {
			_, err := readFrame(bytes.NewReader(whole[:tt.at]))
			assert.ErrorIs(t, err, ErrCorruptArtifact)
		})
	}
}

func TestFraming_OversizedLength(t *testing.T) {
	// A corrupted length prefix must not become a giant allocation.
	raw := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0x00, 0x00}
	_, err := readFrame(bytes.NewReader(raw))
	assert.ErrorIs(t, err, ErrCorruptArtifact)
}

func TestFraming_EnvelopeTooLong(t *testing.T) {
	var buf bytes.Buffer
	err := writeFrame(&buf, SealedChunk{Nonce: make([]byte, 300)})
	assert.ErrorIs(t, err, ErrInvalidMetadata)
}
