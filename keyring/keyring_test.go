package keyring

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestFile returns a file store with a cheap scrypt work factor.
func newTestFile(t *testing.T, dir string) *File {
	t.Helper()
	fs, err := NewFile(dir, "correct horse battery staple")
	require.NoError(t, err)
	fs.SetWorkFactor(10)
	return fs
}

// testStores builds one of each Store implementation for conformance tests.
func testStores(t *testing.T) map[string]Store {
	t.Helper()
	return map[string]Store{
		"memory": NewMemory(),
		"file":   newTestFile(t, t.TempDir()),
	}
}

// --- Store conformance tests ---

func TestStore_WriteReadRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			key := []byte("0123456789abcdef0123456789abcdef")
			require.NoError(t, store.Write("blob-a", key))

			got, err := store.Read("blob-a")
			require.NoError(t, err)
			assert.Equal(t, key, got)
		})
	}
}

func TestStore_ReadMissing(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Read("never-written")
			assert.ErrorIs(t, err, ErrKeyNotFound)
		})
	}
}

func TestStore_DeleteIdempotent(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Write("blob-b", []byte("material")))

			require.NoError(t, store.Delete("blob-b"))
			require.NoError(t, store.Delete("blob-b"), "second delete should succeed")

			_, err := store.Read("blob-b")
			assert.ErrorIs(t, err, ErrKeyNotFound)
		})
	}
}

func TestStore_Overwrite(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Write("blob-c", []byte("first")))
			require.NoError(t, store.Write("blob-c", []byte("second")))

			got, err := store.Read("blob-c")
			require.NoError(t, err)
			assert.Equal(t, []byte("second"), got)
		})
	}
}

func TestStore_RejectsEmptyNameAndKey(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, store.Write("", []byte("x")), ErrEmptyName)
			assert.ErrorIs(t, store.Write("blob-d", nil), ErrEmptyKey)

			_, err := store.Read("")
			assert.ErrorIs(t, err, ErrEmptyName)
			assert.ErrorIs(t, store.Delete(""), ErrEmptyName)
		})
	}
}

// --- Memory tests ---

func TestMemory_CopiesMaterial(t *testing.T) {
	store := NewMemory()
	key := []byte("aaaabbbbccccdddd")
	require.NoError(t, store.Write("blob-e", key))

	// Mutating the caller's slice must not reach the store.
	key[0] = 'z'
	got, err := store.Read("blob-e")
	require.NoError(t, err)
	assert.Equal(t, byte('a'), got[0])

	// Mutating a read result must not reach the store either.
	got[1] = 'z'
	again, err := store.Read("blob-e")
	require.NoError(t, err)
	assert.Equal(t, byte('a'), again[1])
}

// --- File tests ---

func TestNewFile_EmptyPassphrase(t *testing.T) {
	_, err := NewFile(t.TempDir(), "")
	assert.ErrorIs(t, err, ErrEmptyPassphrase)
}

func TestFile_Reopen(t *testing.T) {
	dir := t.TempDir()

	first := newTestFile(t, dir)
	require.NoError(t, first.Write("blob-f", []byte("persistent material")))

	second := newTestFile(t, dir)
	got, err := second.Read("blob-f")
	require.NoError(t, err)
	assert.Equal(t, []byte("persistent material"), got)
}

func TestFile_WrongPassphrase(t *testing.T) {
	dir := t.TempDir()

	correct := newTestFile(t, dir)
	require.NoError(t, correct.Write("blob-g", []byte("material")))

	wrong, err := NewFile(dir, "not the passphrase")
	require.NoError(t, err)
	wrong.SetWorkFactor(10)

	// File names are derived from the passphrase, so the wrong passphrase
	// cannot even locate the key file.
	_, err = wrong.Read("blob-g")
	assert.Error(t, err)
}

func TestFile_CorruptedKeyFile(t *testing.T) {
	dir := t.TempDir()
	store := newTestFile(t, dir)
	require.NoError(t, store.Write("blob-h", []byte("material")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	path := dir + "/" + entries[0].Name()
	require.NoError(t, os.WriteFile(path, []byte("not an age file"), 0o600))

	_, err = store.Read("blob-h")
	assert.ErrorIs(t, err, ErrPassphrase)
}

func TestFile_NamesDoNotLeak(t *testing.T) {
	dir := t.TempDir()
	store := newTestFile(t, dir)
	require.NoError(t, store.Write("blob-secret-report", []byte("material")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].Name(), "secret")
	assert.True(t, strings.HasSuffix(entries[0].Name(), ".age"))
}
