package box

import (
	"fmt"
	"sync"
)

// Filter narrows an unscoped Resolve to a subset of the registered boxes.
type Filter int

const (
	// FilterAll scans every registered box.
	FilterAll Filter = 0

	// FilterSecure scans only boxes registered as secure.
	FilterSecure Filter = 1

	// FilterNormal scans only boxes registered as not secure.
	FilterNormal Filter = 2
)

type registration struct {
	box    Box
	secure bool
}

// Resolver tracks the registered boxes of a store and resolves logical
// keys across them. Scans run in registration order, so reported box
// lists are deterministic.
type Resolver struct {
	mu    sync.RWMutex
	boxes map[string]registration
	order []string
}

// NewResolver returns an empty Resolver.
func NewResolver() *Resolver {
	return &Resolver{boxes: make(map[string]registration)}
}

// Register adds a box under its own name. Secure boxes are only scanned
// by FilterAll and FilterSecure resolves.
func (r *Resolver) Register(b Box, secure bool) error {
	name := b.Name()
	if name == "" {
		return ErrEmptyBoxName
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.boxes[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBox, name)
	}
	r.boxes[name] = registration{box: b, secure: secure}
	r.order = append(r.order, name)
	return nil
}

// Box returns the registered box with the given name.
// Unregistered names fail with ErrBoxNotFound before any I/O.
func (r *Resolver) Box(name string) (Box, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, ok := r.boxes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBoxNotFound, name)
	}
	return reg.box, nil
}

// Names returns the registered box names in registration order.
func (r *Resolver) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// ResolveIn queries exactly one registered box for key.
func (r *Resolver) ResolveIn(name, key string) (any, error) {
	b, err := r.Box(name)
	if err != nil {
		return nil, err
	}
	return b.Get([]byte(key))
}

// Resolve queries the applicable boxes for key. A single hit returns the
// value and the holding box's name; no hit returns (nil, "", nil). A key
// present in more than one applicable box fails with AmbiguousKeyError
// rather than silently picking one, since pick order would depend on
// registration order and make reads non-deterministic.
func (r *Resolver) Resolve(key string, filter Filter) (any, string, error) {
	r.mu.RLock()
	scan := make([]Box, 0, len(r.order))
	for _, name := range r.order {
		reg := r.boxes[name]
		switch filter {
		case FilterSecure:
			if !reg.secure {
				continue
			}
		case FilterNormal:
			if reg.secure {
				continue
			}
		}
		scan = append(scan, reg.box)
	}
	r.mu.RUnlock()

	bk := []byte(key)
	var hits []Box
	var hitNames []string
	for _, b := range scan {
		ok, err := b.Has(bk)
		if err != nil {
			return nil, "", fmt.Errorf("box: probe %s for %q: %w", b.Name(), key, err)
		}
		if ok {
			hits = append(hits, b)
			hitNames = append(hitNames, b.Name())
		}
	}

	switch len(hits) {
	case 0:
		return nil, "", nil
	case 1:
		value, err := hits[0].Get(bk)
		if err != nil {
			return nil, "", err
		}
		return value, hitNames[0], nil
	default:
		return nil, "", &AmbiguousKeyError{Key: key, Boxes: hitNames}
	}
}
