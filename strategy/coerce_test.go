package strategy

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceInt64(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  int64
		ok    bool
	}{
		{"int", 7, 7, true},
		{"int8", int8(-3), -3, true},
		{"int64", int64(math.MaxInt64), math.MaxInt64, true},
		{"uint32", uint32(9), 9, true},
		{"uint64 in range", uint64(5), 5, true},
		{"uint64 overflow", uint64(math.MaxUint64), 0, false},
		{"integral float64", float64(3), 3, true},
		{"integral float32", float32(2), 2, true},
		{"fractional float", 3.5, 0, false},
		{"float beyond exact range", 1e300, 0, false},
		{"decimal text", "123", 123, true},
		{"negative text", "-45", -45, true},
		{"fractional text", "12.5", 0, false},
		{"word text", "abc", 0, false},
		{"bool", true, 0, false},
		{"nil", nil, 0, false},
		{"bytes", []byte("1"), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceInt64(tt.value)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrTypeMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceFloat64(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  float64
		ok    bool
	}{
		{"float64", 3.5, 3.5, true},
		{"float32", float32(1.5), 1.5, true},
		{"int", 2, 2, true},
		{"int64", int64(-8), -8, true},
		{"uint64", uint64(12), 12, true},
		{"decimal text", "2.5", 2.5, true},
		{"integer text", "7", 7, true},
		{"word text", "abc", 0, false},
		{"bool", false, 0, false},
		{"nil", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceFloat64(tt.value)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrTypeMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  bool
		ok    bool
	}{
		{"true", true, true, true},
		{"false", false, false, true},
		{"true text", "true", true, true},
		{"false text", "false", false, true},
		{"numeric text", "1", true, true},
		{"word text", "maybe", false, false},
		{"int", 1, false, false},
		{"nil", nil, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceBool(tt.value)
			if !tt.ok {
				assert.ErrorIs(t, err, ErrTypeMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceString(t *testing.T) {
	got, err := CoerceString("hello")
	require.NoError(t, err)
	assert.Equal(t, "hello", got)

	// Numbers are not rendered to text.
	_, err = CoerceString(42)
	assert.ErrorIs(t, err, ErrTypeMismatch)
	_, err = CoerceString([]byte("hello"))
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestCoerceBytes(t *testing.T) {
	got, err := CoerceBytes([]byte{0x01, 0x02})
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, got)

	_, err = CoerceBytes("text")
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestCoerce_ErrorDetails(t *testing.T) {
	_, err := CoerceInt64("abc")
	require.Error(t, err)

	var mismatch *TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, KindInt, mismatch.Want)
	assert.Equal(t, "abc", mismatch.Value)
	assert.Contains(t, err.Error(), "abc")
}

func TestCoerce_LegacyTextNumbers(t *testing.T) {
	// Older format revisions stored numbers and bools as bare strings.
	// Decoding leaves them as text and the typed read coerces.
	c := NewCodec(0, nil)
	decoded, err := c.Decode(context.Background(), "123")
	require.NoError(t, err)

	n, err := CoerceInt64(decoded)
	require.NoError(t, err)
	assert.Equal(t, int64(123), n)
}
