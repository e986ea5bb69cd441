package blob

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_Validate(t *testing.T) {
	valid := Metadata{
		FileID:   "f1",
		KeyName:  KeyName("f1"),
		Location: Location{Path: "f1.txt.enc"},
		Nonce:    make([]byte, 12),
		Tag:      make([]byte, 16),
	}

	tests := []struct {
		name   string
		mutate func(*Metadata)
		ok     bool
	}{
		{"whole", func(*Metadata) {}, true},
		{"streaming", func(m *Metadata) {
			m.Streaming = true
			m.ChunkSize = 1024
			m.Nonce, m.Tag = nil, nil
		}, true},
		{"bucket location", func(m *Metadata) {
			m.Location = Location{BucketKey: "f1"}
		}, true},
		{"missing file id", func(m *Metadata) { m.FileID = "" }, false},
		{"missing key name", func(m *Metadata) { m.KeyName = "" }, false},
		{"missing location", func(m *Metadata) { m.Location = Location{} }, false},
		{"location with both fields", func(m *Metadata) {
			m.Location = Location{BucketKey: "f1", Path: "f1.txt.enc"}
		}, false},
		{"location path escapes dir", func(m *Metadata) {
			m.Location = Location{Path: "../f1.txt.enc"}
		}, false},
		{"negative size", func(m *Metadata) { m.Size = -1 }, false},
		{"whole without nonce", func(m *Metadata) { m.Nonce = nil }, false},
		{"whole without tag", func(m *Metadata) { m.Tag = nil }, false},
		{"streaming without chunk size", func(m *Metadata) {
			m.Streaming = true
			m.ChunkSize = 0
		}, false},
		{"streaming negative chunk count", func(m *Metadata) {
			m.Streaming = true
			m.ChunkSize = 1024
			m.ChunkCount = -1
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := valid
			tt.mutate(&m)
			err := m.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidMetadata)
			}
		})
	}

	var nilMeta *Metadata
	assert.ErrorIs(t, nilMeta.Validate(), ErrInvalidMetadata)
}

func TestSanitizeExtension(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"txt", "txt"},
		{"tar.gz", "targz"},
		{"MP4", "MP4"},
		{"../../etc", "etc"},
		{"a/b\\c", "abc"},
		{"", "bin"},
		{"...", "bin"},
		{"名前", "bin"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeExtension(tt.in), "input %q", tt.in)
	}
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "f1.txt.enc", ArtifactName("f1", "txt", false))
	assert.Equal(t, "f1.txt.encf", ArtifactName("f1", "txt", true))
}

func TestKeyName(t *testing.T) {
	assert.Equal(t, "blob-f1", KeyName("f1"))
}
