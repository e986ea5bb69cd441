// Package box provides the byte-keyed bucket engine the key-value layer
// stores into, plus resolution of logical keys across registered boxes.
package box

// Box is a named key-value namespace over byte keys.
//
// Get returns (nil, nil) for a key that was never put: absence is not an
// error at this layer, it is a resolution outcome. Delete of an absent key
// succeeds.
type Box interface {
	// Name returns the box name it was opened under.
	Name() string

	// Get returns the value stored under key, or (nil, nil) if absent.
	Get(key []byte) (any, error)

	// Put stores value under key, overwriting any previous value.
	Put(key []byte, value any) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key []byte) error

	// Has reports whether key holds a value.
	Has(key []byte) (bool, error)

	// Clear removes every key in the box.
	Clear() error
}

// Engine owns a database of named boxes.
type Engine interface {
	// Box opens the named box, creating it if it does not exist.
	Box(name string) (Box, error)

	// Close releases the underlying database.
	Close() error
}
