// Package keyring stores the symmetric keys the engine encrypts with.
// Key material never travels inside blob metadata or box records; it lives
// only behind a Store.
package keyring

import "sync"

// Store is the credential store boundary.
//
// Implementations must treat names as opaque identifiers and must never
// return key material for a name that was not written: a missing name is
// always ErrKeyNotFound, never an empty key.
type Store interface {
	// Write persists key material under name, replacing any previous value.
	Write(name string, key []byte) error

	// Read returns the key material stored under name.
	// Returns ErrKeyNotFound if the name has never been written or was deleted.
	Read(name string) ([]byte, error)

	// Delete removes the key stored under name.
	// Deleting an absent name is not an error.
	Delete(name string) error
}

// Memory is an in-process Store backed by a map. It copies key material on
// the way in and out, so callers cannot alias the stored bytes.
type Memory struct {
	mu   sync.RWMutex
	keys map[string][]byte
}

var _ Store = (*Memory)(nil)

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{keys: make(map[string][]byte)}
}

// Write stores a copy of key under name.
func (m *Memory) Write(name string, key []byte) error {
	if name == "" {
		return ErrEmptyName
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[name] = append([]byte(nil), key...)
	return nil
}

// Read returns a copy of the key stored under name.
func (m *Memory) Read(name string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	key, ok := m.keys[name]
	if !ok {
		return nil, ErrKeyNotFound
	}
	return append([]byte(nil), key...), nil
}

// Delete removes the key stored under name, if any.
func (m *Memory) Delete(name string) error {
	if name == "" {
		return ErrEmptyName
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, name)
	return nil
}
