package box

import "sync"

// MemoryEngine is an Engine held entirely in process memory, for tests and
// ephemeral stores. Values still round-trip through the codec, so observed
// semantics match BoltEngine exactly.
type MemoryEngine struct {
	mu    sync.Mutex
	boxes map[string]*MemoryBox
	codec Codec
}

var _ Engine = (*MemoryEngine)(nil)

// NewMemoryEngine returns an empty in-memory Engine.
// A nil codec selects CBORCodec.
func NewMemoryEngine(codec Codec) *MemoryEngine {
	if codec == nil {
		codec = CBORCodec{}
	}
	return &MemoryEngine{boxes: make(map[string]*MemoryBox), codec: codec}
}

// Box opens the named box, creating it if it does not exist.
func (e *MemoryEngine) Box(name string) (Box, error) {
	if name == "" {
		return nil, ErrEmptyBoxName
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.boxes[name]
	if !ok {
		b = &MemoryBox{name: name, codec: e.codec, data: make(map[string][]byte)}
		e.boxes[name] = b
	}
	return b, nil
}

// Close releases nothing; it exists to satisfy Engine.
func (e *MemoryEngine) Close() error { return nil }

// MemoryBox is a Box over an in-process map.
type MemoryBox struct {
	mu    sync.RWMutex
	name  string
	codec Codec
	data  map[string][]byte
}

var _ Box = (*MemoryBox)(nil)

// Name returns the box name.
func (b *MemoryBox) Name() string { return b.name }

// Get returns the decoded value stored under key, or (nil, nil) if absent.
func (b *MemoryBox) Get(key []byte) (any, error) {
	b.mu.RLock()
	data, ok := b.data[string(key)]
	b.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return b.codec.Unmarshal(data)
}

// Put stores value under key, overwriting any previous value.
func (b *MemoryBox) Put(key []byte, value any) error {
	data, err := b.codec.Marshal(value)
	if err != nil {
		return err
	}
	b.mu.Lock()
	b.data[string(key)] = data
	b.mu.Unlock()
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (b *MemoryBox) Delete(key []byte) error {
	b.mu.Lock()
	delete(b.data, string(key))
	b.mu.Unlock()
	return nil
}

// Has reports whether key holds a value.
func (b *MemoryBox) Has(key []byte) (bool, error) {
	b.mu.RLock()
	_, ok := b.data[string(key)]
	b.mu.RUnlock()
	return ok, nil
}

// Clear removes every key in the box.
func (b *MemoryBox) Clear() error {
	b.mu.Lock()
	b.data = make(map[string][]byte)
	b.mu.Unlock()
	return nil
}
