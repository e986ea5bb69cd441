package box

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestResolver registers a normal and a secure box on a memory engine.
func newTestResolver(t *testing.T) (*Resolver, Box, Box) {
	t.Helper()
	engine := NewMemoryEngine(nil)

	normal, err := engine.Box("normal")
	require.NoError(t, err)
	secure, err := engine.Box("secure")
	require.NoError(t, err)

	r := NewResolver()
	require.NoError(t, r.Register(normal, false))
	require.NoError(t, r.Register(secure, true))
	return r, normal, secure
}

func TestResolver_RegisterDuplicate(t *testing.T) {
	r, normal, _ := newTestResolver(t)
	err := r.Register(normal, false)
	assert.ErrorIs(t, err, ErrDuplicateBox)
}

func TestResolver_BoxNotFound(t *testing.T) {
	r, _, _ := newTestResolver(t)

	_, err := r.Box("custom")
	assert.ErrorIs(t, err, ErrBoxNotFound)

	_, err = r.ResolveIn("custom", "any-key")
	assert.ErrorIs(t, err, ErrBoxNotFound)
}

func TestResolver_Names(t *testing.T) {
	r, _, _ := newTestResolver(t)
	assert.Equal(t, []string{"normal", "secure"}, r.Names())
}

func TestResolver_ResolveNoHit(t *testing.T) {
	r, _, _ := newTestResolver(t)

	value, boxName, err := r.Resolve("absent", FilterAll)
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.Empty(t, boxName)
}

func TestResolver_ResolveSingleHit(t *testing.T) {
	r, normal, _ := newTestResolver(t)
	require.NoError(t, normal.Put([]byte("greeting"), "hello"))

	value, boxName, err := r.Resolve("greeting", FilterAll)
	require.NoError(t, err)
	assert.Equal(t, "hello", value)
	assert.Equal(t, "normal", boxName)
}

func TestResolver_ResolveIn(t *testing.T) {
	r, _, secure := newTestResolver(t)
	require.NoError(t, secure.Put([]byte("token"), "scoped"))

	value, err := r.ResolveIn("secure", "token")
	require.NoError(t, err)
	assert.Equal(t, "scoped", value)

	// Scoped resolution ignores other boxes entirely.
	value, err = r.ResolveIn("normal", "token")
	require.NoError(t, err)
	assert.Nil(t, value)
}

func TestResolver_AmbiguousKey(t *testing.T) {
	r, normal, secure := newTestResolver(t)
	require.NoError(t, normal.Put([]byte("shared"), "from normal"))
	require.NoError(t, secure.Put([]byte("shared"), "from secure"))

	_, _, err := r.Resolve("shared", FilterAll)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousKey)

	var ambiguous *AmbiguousKeyError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, "shared", ambiguous.Key)
	assert.Equal(t, []string{"normal", "secure"}, ambiguous.Boxes)
}

func TestResolver_AmbiguousKeyScopedEscape(t *testing.T) {
	// An explicit box name resolves a key that is ambiguous unscoped.
	r, normal, secure := newTestResolver(t)
	require.NoError(t, normal.Put([]byte("shared"), "from normal"))
	require.NoError(t, secure.Put([]byte("shared"), "from secure"))

	value, err := r.ResolveIn("secure", "shared")
	require.NoError(t, err)
	assert.Equal(t, "from secure", value)
}

func TestResolver_Filters(t *testing.T) {
	r, normal, secure := newTestResolver(t)
	require.NoError(t, normal.Put([]byte("shared"), "from normal"))
	require.NoError(t, secure.Put([]byte("shared"), "from secure"))

	value, boxName, err := r.Resolve("shared", FilterNormal)
	require.NoError(t, err)
	assert.Equal(t, "from normal", value)
	assert.Equal(t, "normal", boxName)

	value, boxName, err = r.Resolve("shared", FilterSecure)
	require.NoError(t, err)
	assert.Equal(t, "from secure", value)
	assert.Equal(t, "secure", boxName)
}

func TestResolver_StoredNilIsAHit(t *testing.T) {
	// A key holding an explicit nil still counts as present.
	r, normal, _ := newTestResolver(t)
	require.NoError(t, normal.Put([]byte("null-value"), nil))

	value, boxName, err := r.Resolve("null-value", FilterAll)
	require.NoError(t, err)
	assert.Nil(t, value)
	assert.Equal(t, "normal", boxName)
}
