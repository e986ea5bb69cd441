package box

import (
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
)

// BoltEngine is an Engine over a bbolt database file.
type BoltEngine struct {
	db    *bbolt.DB
	codec Codec
}

var _ Engine = (*BoltEngine)(nil)

// OpenBolt opens or creates the bbolt database at dbPath.
// The parent directory is created if it does not exist.
// A nil codec selects CBORCodec.
func OpenBolt(dbPath string, codec Codec) (*BoltEngine, error) {
	if codec == nil {
		codec = CBORCodec{}
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("box: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("box: open bolt db: %w", err)
	}
	return &BoltEngine{db: db, codec: codec}, nil
}

// Box opens the named bucket, creating it if it does not exist.
func (e *BoltEngine) Box(name string) (Box, error) {
	if name == "" {
		return nil, ErrEmptyBoxName
	}
	err := e.db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
			return fmt.Errorf("box: create bucket %q: %w", name, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &BoltBox{db: e.db, name: name, codec: e.codec}, nil
}

// Close closes the underlying database.
func (e *BoltEngine) Close() error { return e.db.Close() }

// BoltBox is a Box over one bbolt bucket.
type BoltBox struct {
	db    *bbolt.DB
	name  string
	codec Codec
}

var _ Box = (*BoltBox)(nil)

// Name returns the bucket name.
func (b *BoltBox) Name() string { return b.name }

// Get returns the decoded value stored under key, or (nil, nil) if absent.
func (b *BoltBox) Get(key []byte) (any, error) {
	var value any
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(b.name))
		if bkt == nil {
			return nil
		}
		data := bkt.Get(key)
		if data == nil {
			return nil
		}
		v, err := b.codec.Unmarshal(data)
		if err != nil {
			return fmt.Errorf("box: decode %s/%q: %w", b.name, key, err)
		}
		value = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put stores value under key, overwriting any previous value.
func (b *BoltBox) Put(key []byte, value any) error {
	data, err := b.codec.Marshal(value)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(b.name))
		if bkt == nil {
			return fmt.Errorf("%w: %s", ErrBoxNotFound, b.name)
		}
		if err := bkt.Put(key, data); err != nil {
			return fmt.Errorf("box: put %s/%q: %w", b.name, key, err)
		}
		return nil
	})
}

// Delete removes key. Deleting an absent key is not an error.
func (b *BoltBox) Delete(key []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(b.name))
		if bkt == nil {
			return nil
		}
		if err := bkt.Delete(key); err != nil {
			return fmt.Errorf("box: delete %s/%q: %w", b.name, key, err)
		}
		return nil
	})
}

// Has reports whether key holds a value.
func (b *BoltBox) Has(key []byte) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(b.name))
		if bkt == nil {
			return nil
		}
		found = bkt.Get(key) != nil
		return nil
	})
	return found, err
}

// Clear removes every key in the box by dropping and recreating the bucket.
func (b *BoltBox) Clear() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		name := []byte(b.name)
		if tx.Bucket(name) != nil {
			if err := tx.DeleteBucket(name); err != nil {
				return fmt.Errorf("box: clear %s: %w", b.name, err)
			}
		}
		if _, err := tx.CreateBucketIfNotExists(name); err != nil {
			return fmt.Errorf("box: recreate %s: %w", b.name, err)
		}
		return nil
	})
}
