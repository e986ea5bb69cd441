package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Primitives(t *testing.T) {
	tests := []struct {
		name  string
		value any
	}{
		{"nil", nil},
		{"bool", true},
		{"int", 42},
		{"int64", int64(-7)},
		{"uint64", uint64(9)},
		{"float64", 3.14},
		{"float32", float32(1.5)},
		{"string", "hello"},
		{"empty string", ""},
		{"bytes", []byte{0x01, 0x02}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, Native, Classify(tt.value))
		})
	}
}

func TestClassify_Sequences(t *testing.T) {
	assert.Equal(t, Native, Classify([]int{1, 2, 3}))
	assert.Equal(t, Native, Classify([]any{1, "two", 3.0, nil, true}))
	assert.Equal(t, Native, Classify([3]string{"a", "b", "c"}))
	assert.Equal(t, Native, Classify([]any{[]any{1, 2}, []string{"x"}}))

	// One non-native element routes the whole sequence to JSON.
	assert.Equal(t, JSON, Classify([]any{1, struct{ N int }{1}}))
}

func TestClassify_Mappings(t *testing.T) {
	assert.Equal(t, Native, Classify(map[string]any{"a": 1, "b": "two"}))
	assert.Equal(t, Native, Classify(map[string]int{"a": 1}))
	assert.Equal(t, Native, Classify(map[string]any{"nested": map[string]any{"x": 1}}))

	// Non-string keys have no native representation. A set modelled as
	// a struct-valued map falls out the same way.
	assert.Equal(t, JSON, Classify(map[int]struct{}{1: {}, 2: {}}))
	assert.Equal(t, JSON, Classify(map[string]any{"bad": map[int]int{1: 1}}))
	assert.Equal(t, JSON, Classify(map[string]any{"s": struct{ N int }{1}}))
}

func TestClassify_Other(t *testing.T) {
	n := 7
	tests := []struct {
		name  string
		value any
	}{
		{"struct", struct{ N int }{1}},
		{"pointer", &n},
		{"time", time.Now()},
		{"func", func() {}},
		{"channel", make(chan int)},
		{"named int", time.Duration(5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, JSON, Classify(tt.value))
		})
	}
}

func TestClassify_ByteSlices(t *testing.T) {
	type blob []byte
	assert.Equal(t, Native, Classify([]byte("raw")))
	assert.Equal(t, Native, Classify(blob("named")))
	assert.Equal(t, Native, Classify([4]byte{1, 2, 3, 4}))
}

func TestClassify_DeepNesting(t *testing.T) {
	// The walk must not recurse, or this depth would overflow the stack.
	var v any = 1
	for i := 0; i < 10000; i++ {
		v = []any{v}
	}
	assert.Equal(t, Native, Classify(v))
}

func TestClassify_Cycles(t *testing.T) {
	s := make([]any, 1)
	s[0] = s
	assert.Equal(t, JSON, Classify(s))

	m := map[string]any{}
	m["self"] = m
	assert.Equal(t, JSON, Classify(m))
}

func TestClassify_SharedReference(t *testing.T) {
	// A container reached twice cannot be told apart from a cycle
	// without path tracking, so it is handed to the JSON encoder.
	inner := []any{1}
	assert.Equal(t, JSON, Classify([]any{inner, inner}))
}
