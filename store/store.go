// Package store assembles the engine packages into one embedded store:
// bolt-backed boxes with key resolution, strategy-encoded values, a
// passphrase-protected keyring, and the chunked blob pipeline. CLI
// adapters and embedding applications call Store methods rather than
// wiring the packages directly.
package store

import (
	"fmt"
	"path/filepath"

	"github.com/lockboxorg/liblockbox-go/blob"
	"github.com/lockboxorg/liblockbox-go/box"
	"github.com/lockboxorg/liblockbox-go/config"
	"github.com/lockboxorg/liblockbox-go/crypt"
	"github.com/lockboxorg/liblockbox-go/keyring"
	"github.com/lockboxorg/liblockbox-go/offload"
	"github.com/lockboxorg/liblockbox-go/strategy"
)

// Default box names. Both exist after Open; custom boxes are added with
// RegisterBox.
const (
	NormalBoxName = "normal"
	SecureBoxName = "secure"
)

// Store is the assembled engine. The exported fields give adapters direct
// access to the underlying components; most callers only need the Store
// methods.
type Store struct {
	Engine   box.Engine
	Keys     keyring.Store
	Resolver *box.Resolver
	Values   *strategy.Codec
	Blobs    *blob.Pipeline

	cfg        config.Config
	aead       crypt.Codec
	normal     box.Box
	secure     box.Box
	log        blob.Logger
	ownsEngine bool
}

type options struct {
	engine box.Engine
	keys   keyring.Store
	target blob.Target
	logger blob.Logger
}

// Option adjusts how Open assembles the store.
type Option func(*options)

// WithEngine substitutes the bucket engine. The caller keeps ownership;
// Close will not close an injected engine.
func WithEngine(e box.Engine) Option {
	return func(o *options) { o.engine = e }
}

// WithKeyring substitutes the credential store. The passphrase argument
// of Open is ignored when a keyring is injected.
func WithKeyring(k keyring.Store) Option {
	return func(o *options) { o.keys = k }
}

// WithTarget substitutes the blob artifact target.
func WithTarget(t blob.Target) Option {
	return func(o *options) { o.target = t }
}

// WithLogger sets the logger for the store and its blob pipeline.
func WithLogger(l blob.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Open assembles a store rooted at dir. By default it opens a bolt engine
// at dir/lockbox.db, a file keyring under dir/keys protected by
// passphrase, and a file blob target under dir/blobs; the With options
// substitute any of them. The configuration is validated before anything
// touches disk.
func Open(dir, passphrase string, cfg config.Config, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, ErrInvalidDir
	}
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	log := o.logger
	if log == nil {
		log = blob.NewNopLogger()
	}

	keys := o.keys
	if keys == nil {
		fk, err := keyring.NewFile(filepath.Join(dir, "keys"), passphrase)
		if err != nil {
			return nil, fmt.Errorf("store: open keyring: %w", err)
		}
		keys = fk
	}

	engine := o.engine
	ownsEngine := false
	if engine == nil {
		eng, err := box.OpenBolt(filepath.Join(dir, "lockbox.db"), nil)
		if err != nil {
			return nil, fmt.Errorf("store: open engine: %w", err)
		}
		engine = eng
		ownsEngine = true
	}
	ok := false
	defer func() {
		if !ok && ownsEngine {
			engine.Close()
		}
	}()

	suite, err := crypt.ParseSuite(cfg.Suite)
	if err != nil {
		return nil, err
	}
	aead, err := crypt.New(suite)
	if err != nil {
		return nil, err
	}

	normal, err := engine.Box(NormalBoxName)
	if err != nil {
		return nil, fmt.Errorf("store: open box %q: %w", NormalBoxName, err)
	}
	secureInner, err := engine.Box(SecureBoxName)
	if err != nil {
		return nil, fmt.Errorf("store: open box %q: %w", SecureBoxName, err)
	}
	secure := box.NewSecureBox(secureInner, nil, aead, keys, secureKeyName(SecureBoxName))

	resolver := box.NewResolver()
	if err := resolver.Register(normal, false); err != nil {
		return nil, err
	}
	if err := resolver.Register(secure, true); err != nil {
		return nil, err
	}

	// One worker pool serves both the value codec and the blob pipeline,
	// so a store never runs more than cfg.Workers offloaded jobs at once.
	pool := offload.NewPool(cfg.Workers)
	values := strategy.NewCodec(cfg.InlineLimit, offload.NewPolicy(cfg.JSONOffloadThreshold, pool))

	target := o.target
	if target == nil {
		ft, err := blob.NewFileTarget(filepath.Join(dir, "blobs"))
		if err != nil {
			return nil, fmt.Errorf("store: open blob target: %w", err)
		}
		target = ft
	}
	blobs, err := blob.NewPipeline(target, keys, cfg,
		blob.WithPool(pool, cfg.BinaryOffloadThreshold),
		blob.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}

	ok = true
	return &Store{
		Engine:     engine,
		Keys:       keys,
		Resolver:   resolver,
		Values:     values,
		Blobs:      blobs,
		cfg:        cfg,
		aead:       aead,
		normal:     normal,
		secure:     secure,
		log:        log,
		ownsEngine: ownsEngine,
	}, nil
}

// Close releases the store's resources. The bucket engine is closed only
// when Open created it; injected engines stay open for their owner.
func (s *Store) Close() error {
	if !s.ownsEngine {
		return nil
	}
	if err := s.Engine.Close(); err != nil {
		return fmt.Errorf("store: close engine: %w", err)
	}
	return nil
}

// RegisterBox opens (or creates) the named bucket and adds it to key
// resolution. Secure boxes are sealed at rest under their own keyring
// key. Registering the same name twice fails with ErrDuplicateBox.
func (s *Store) RegisterBox(name string, secure bool) (box.Box, error) {
	b, err := s.Engine.Box(name)
	if err != nil {
		return nil, fmt.Errorf("store: open box %q: %w", name, err)
	}
	if secure {
		b = box.NewSecureBox(b, nil, s.aead, s.Keys, secureKeyName(name))
	}
	if err := s.Resolver.Register(b, secure); err != nil {
		return nil, err
	}
	return b, nil
}

// ClearBox removes every record in the named registered box.
func (s *Store) ClearBox(name string) error {
	b, err := s.Resolver.Box(name)
	if err != nil {
		return err
	}
	return b.Clear()
}

// Boxes returns the registered box names in registration order.
func (s *Store) Boxes() []string {
	return s.Resolver.Names()
}

// secureKeyName is the keyring name holding a secure box's sealing key.
func secureKeyName(boxName string) string {
	return "box-" + boxName
}
