package box

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lockboxorg/liblockbox-go/crypt"
	"github.com/lockboxorg/liblockbox-go/keyring"
)

// secureRecordVersion is the framing version byte of sealed records.
const secureRecordVersion = 0x01

// SecureBox wraps a Box so every value is sealed before it reaches the
// underlying engine. Records are framed as
//
//	[version:1][nonce][tag:16][ciphertext]
//
// with the box name and record key bound into the tag as additional
// authenticated data, so a sealed record copied to another key or box
// fails to open. The box key lives in the keyring and is created on
// first write.
type SecureBox struct {
	inner   Box
	codec   Codec
	aead    crypt.Codec
	keys    keyring.Store
	keyName string

	keyMu sync.Mutex
}

var _ Box = (*SecureBox)(nil)

// NewSecureBox wraps inner with at-rest encryption. keyName names the box
// key inside keys. A nil codec selects CBORCodec.
func NewSecureBox(inner Box, codec Codec, aead crypt.Codec, keys keyring.Store, keyName string) *SecureBox {
	if codec == nil {
		codec = CBORCodec{}
	}
	return &SecureBox{
		inner:   inner,
		codec:   codec,
		aead:    aead,
		keys:    keys,
		keyName: keyName,
	}
}

// Name returns the underlying box name.
func (s *SecureBox) Name() string { return s.inner.Name() }

// Get opens and decodes the sealed record stored under key.
func (s *SecureBox) Get(key []byte) (any, error) {
	raw, err := s.inner.Get(key)
	if err != nil || raw == nil {
		return nil, err
	}

	frame, ok := raw.([]byte)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected record type %T", ErrCorruptRecord, raw)
	}

	ns := s.aead.NonceSize()
	if len(frame) < 1+ns+crypt.TagLen {
		return nil, fmt.Errorf("%w: record too short (%d bytes)", ErrCorruptRecord, len(frame))
	}
	if frame[0] != secureRecordVersion {
		return nil, fmt.Errorf("%w: unknown version 0x%02x", ErrCorruptRecord, frame[0])
	}
	nonce := frame[1 : 1+ns]
	tag := frame[1+ns : 1+ns+crypt.TagLen]
	ciphertext := frame[1+ns+crypt.TagLen:]

	boxKey, err := s.keys.Read(s.keyName)
	if err != nil {
		return nil, fmt.Errorf("box: reading key for secure box %s: %w", s.Name(), err)
	}

	plaintext, err := s.aead.OpenAAD(ciphertext, boxKey, nonce, tag, s.aad(key))
	if err != nil {
		return nil, err
	}
	return s.codec.Unmarshal(plaintext)
}

// Put encodes and seals value, then stores the framed record under key.
func (s *SecureBox) Put(key []byte, value any) error {
	plaintext, err := s.codec.Marshal(value)
	if err != nil {
		return err
	}

	boxKey, err := s.key()
	if err != nil {
		return err
	}

	sealed, err := s.aead.SealAAD(plaintext, boxKey, s.aad(key))
	if err != nil {
		return err
	}

	frame := make([]byte, 0, 1+len(sealed.Nonce)+len(sealed.Tag)+len(sealed.Ciphertext))
	frame = append(frame, secureRecordVersion)
	frame = append(frame, sealed.Nonce...)
	frame = append(frame, sealed.Tag...)
	frame = append(frame, sealed.Ciphertext...)

	return s.inner.Put(key, frame)
}

// Delete removes key from the underlying box.
func (s *SecureBox) Delete(key []byte) error { return s.inner.Delete(key) }

// Has reports whether key holds a sealed record.
func (s *SecureBox) Has(key []byte) (bool, error) { return s.inner.Has(key) }

// Clear removes every record in the underlying box.
func (s *SecureBox) Clear() error { return s.inner.Clear() }

// key returns the box key, creating and persisting it on first use.
func (s *SecureBox) key() ([]byte, error) {
	s.keyMu.Lock()
	defer s.keyMu.Unlock()

	boxKey, err := s.keys.Read(s.keyName)
	if err == nil {
		return boxKey, nil
	}
	if !errors.Is(err, keyring.ErrKeyNotFound) {
		return nil, fmt.Errorf("box: reading key for secure box %s: %w", s.Name(), err)
	}

	boxKey, err = crypt.NewKey()
	if err != nil {
		return nil, err
	}
	if err := s.keys.Write(s.keyName, boxKey); err != nil {
		return nil, fmt.Errorf("box: storing key for secure box %s: %w", s.Name(), err)
	}
	return boxKey, nil
}

// aad binds a record to its box and key.
func (s *SecureBox) aad(key []byte) []byte {
	name := s.inner.Name()
	aad := make([]byte, 0, 1+len(name)+1+len(key))
	aad = append(aad, secureRecordVersion)
	aad = append(aad, name...)
	aad = append(aad, 0x00)
	aad = append(aad, key...)
	return aad
}
