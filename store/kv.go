package store

import (
	"context"
	"fmt"

	"github.com/lockboxorg/liblockbox-go/box"
	"github.com/lockboxorg/liblockbox-go/strategy"
)

// KVOption adjusts a single key-value operation.
type KVOption func(*kvOptions)

type kvOptions struct {
	boxName string
	filter  box.Filter
}

// InBox routes the operation to exactly one registered box. Unregistered
// names fail with ErrBoxNotFound before any I/O.
func InBox(name string) KVOption {
	return func(o *kvOptions) { o.boxName = name }
}

// Secure routes writes to the default secure box and narrows reads to
// boxes registered as secure.
func Secure() KVOption {
	return func(o *kvOptions) { o.filter = box.FilterSecure }
}

// Normal narrows reads to boxes registered as not secure. Writes already
// go to the normal box by default.
func Normal() KVOption {
	return func(o *kvOptions) { o.filter = box.FilterNormal }
}

func applyKV(opts []KVOption) kvOptions {
	var o kvOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// writeBox picks the box a Put or Delete lands in.
func (s *Store) writeBox(o kvOptions) (box.Box, error) {
	if o.boxName != "" {
		return s.Resolver.Box(o.boxName)
	}
	if o.filter == box.FilterSecure {
		return s.secure, nil
	}
	return s.normal, nil
}

// Put encodes v with the storage strategy layer and writes it under key.
// Writes land in the normal box unless InBox or Secure selects another.
func (s *Store) Put(ctx context.Context, key string, v any, opts ...KVOption) error {
	o := applyKV(opts)
	b, err := s.writeBox(o)
	if err != nil {
		return err
	}
	encoded, err := s.Values.Encode(ctx, v)
	if err != nil {
		return err
	}
	return b.Put([]byte(key), encoded)
}

// Get resolves key across the registered boxes and decodes the stored
// value. Absent keys return (nil, nil). A key present in more than one
// applicable box fails with AmbiguousKeyError; InBox queries exactly one
// box and cannot be ambiguous.
func (s *Store) Get(ctx context.Context, key string, opts ...KVOption) (any, error) {
	o := applyKV(opts)
	var raw any
	var err error
	if o.boxName != "" {
		raw, err = s.Resolver.ResolveIn(o.boxName, key)
	} else {
		raw, _, err = s.Resolver.Resolve(key, o.filter)
	}
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}
	return s.Values.Decode(ctx, raw)
}

// Delete removes key from the selected box (the normal box by default).
// Deleting an absent key is not an error.
func (s *Store) Delete(key string, opts ...KVOption) error {
	o := applyKV(opts)
	b, err := s.writeBox(o)
	if err != nil {
		return err
	}
	return b.Delete([]byte(key))
}

// GetInt64 resolves key and coerces the value to int64. Absent keys fail
// with ErrNoValue rather than returning a zero that could be a real value.
func (s *Store) GetInt64(ctx context.Context, key string, opts ...KVOption) (int64, error) {
	v, err := s.value(ctx, key, opts)
	if err != nil {
		return 0, err
	}
	return strategy.CoerceInt64(v)
}

// GetFloat64 resolves key and coerces the value to float64.
func (s *Store) GetFloat64(ctx context.Context, key string, opts ...KVOption) (float64, error) {
	v, err := s.value(ctx, key, opts)
	if err != nil {
		return 0, err
	}
	return strategy.CoerceFloat64(v)
}

// GetBool resolves key and coerces the value to bool.
func (s *Store) GetBool(ctx context.Context, key string, opts ...KVOption) (bool, error) {
	v, err := s.value(ctx, key, opts)
	if err != nil {
		return false, err
	}
	return strategy.CoerceBool(v)
}

// GetString resolves key and coerces the value to string.
func (s *Store) GetString(ctx context.Context, key string, opts ...KVOption) (string, error) {
	v, err := s.value(ctx, key, opts)
	if err != nil {
		return "", err
	}
	return strategy.CoerceString(v)
}

// GetBytes resolves key and coerces the value to a byte slice.
func (s *Store) GetBytes(ctx context.Context, key string, opts ...KVOption) ([]byte, error) {
	v, err := s.value(ctx, key, opts)
	if err != nil {
		return nil, err
	}
	return strategy.CoerceBytes(v)
}

func (s *Store) value(ctx context.Context, key string, opts []KVOption) (any, error) {
	v, err := s.Get(ctx, key, opts...)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %q", ErrNoValue, key)
	}
	return v, nil
}
