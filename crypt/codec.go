// Package crypt implements the AEAD codec used for every encrypted payload:
// whole blobs, stream chunks, and secure box records. Output is detached
// form, with ciphertext, nonce, and authentication tag held separately so
// callers control their placement on disk or inside records.
package crypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

const (
	// KeyLen is the symmetric key length in bytes, for every suite.
	KeyLen = 32

	// TagLen is the AEAD authentication tag length in bytes.
	TagLen = 16

	// GCMNonceLen is the AES-GCM nonce length in bytes.
	GCMNonceLen = 12

	// XChaChaNonceLen is the XChaCha20-Poly1305 nonce length in bytes.
	XChaChaNonceLen = chacha20poly1305.NonceSizeX
)

// Suite identifies an AEAD cipher suite.
type Suite int

const (
	// SuiteAESGCM is AES-256-GCM with a 12-byte random nonce.
	SuiteAESGCM Suite = 0

	// SuiteXChaCha20 is XChaCha20-Poly1305 with a 24-byte random nonce.
	// The larger nonce space makes random nonces safe at any volume.
	SuiteXChaCha20 Suite = 1
)

// String returns the configuration name of the suite.
func (s Suite) String() string {
	switch s {
	case SuiteAESGCM:
		return "aes-gcm"
	case SuiteXChaCha20:
		return "xchacha20-poly1305"
	default:
		return "unknown"
	}
}

// ParseSuite maps a configuration name to a Suite.
// The empty string selects the default, AES-256-GCM.
func ParseSuite(name string) (Suite, error) {
	switch name {
	case "", "aes-gcm":
		return SuiteAESGCM, nil
	case "xchacha20-poly1305":
		return SuiteXChaCha20, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSuite, name)
	}
}

// Sealed holds the detached output of a single encryption.
type Sealed struct {
	// Ciphertext has exactly the length of the plaintext.
	Ciphertext []byte

	// Nonce is the one-time random nonce used for this seal.
	Nonce []byte

	// Tag is the 16-byte authentication tag.
	Tag []byte
}

// Codec seals and opens byte payloads under a fixed cipher suite.
// The zero value uses AES-256-GCM. Codec is stateless and safe for
// concurrent use.
type Codec struct {
	suite Suite
}

// New returns a Codec for the given suite.
func New(suite Suite) (Codec, error) {
	switch suite {
	case SuiteAESGCM, SuiteXChaCha20:
		return Codec{suite: suite}, nil
	default:
		return Codec{}, fmt.Errorf("%w: %d", ErrUnknownSuite, int(suite))
	}
}

// Suite returns the codec's cipher suite.
func (c Codec) Suite() Suite { return c.suite }

// NonceSize returns the nonce length in bytes for the codec's suite.
func (c Codec) NonceSize() int {
	if c.suite == SuiteXChaCha20 {
		return XChaChaNonceLen
	}
	return GCMNonceLen
}

// NewKey generates a fresh random 32-byte key.
func NewKey() ([]byte, error) {
	key := make([]byte, KeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("crypt: key generation failed: %w", err)
	}
	return key, nil
}

// Seal encrypts plaintext under key with a fresh random nonce.
// Every call draws a new nonce; nonces are never reused under a key.
func (c Codec) Seal(plaintext, key []byte) (Sealed, error) {
	return c.SealAAD(plaintext, key, nil)
}

// SealAAD is Seal with additional authenticated data bound into the tag.
// The same aad must be presented to OpenAAD.
func (c Codec) SealAAD(plaintext, key, aad []byte) (Sealed, error) {
	aead, err := c.aead(key)
	if err != nil {
		return Sealed{}, err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return Sealed{}, fmt.Errorf("crypt: random nonce generation failed: %w", err)
	}

	// Seal appends ciphertext || tag; split the tag back off.
	out := aead.Seal(nil, nonce, plaintext, aad)
	n := len(out) - TagLen
	return Sealed{
		Ciphertext: out[:n:n],
		Nonce:      nonce,
		Tag:        out[n:],
	}, nil
}

// Open decrypts ciphertext sealed under key with the given nonce and tag.
// Any modification of ciphertext, nonce, or tag fails with ErrAuthentication.
func (c Codec) Open(ciphertext, key, nonce, tag []byte) ([]byte, error) {
	return c.OpenAAD(ciphertext, key, nonce, tag, nil)
}

// OpenAAD is Open for payloads sealed with additional authenticated data.
func (c Codec) OpenAAD(ciphertext, key, nonce, tag, aad []byte) ([]byte, error) {
	aead, err := c.aead(key)
	if err != nil {
		return nil, err
	}

	if len(nonce) != aead.NonceSize() {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidNonceSize, len(nonce), aead.NonceSize())
	}
	if len(tag) != TagLen {
		return nil, fmt.Errorf("%w: tag length %d", ErrAuthentication, len(tag))
	}

	sealed := make([]byte, 0, len(ciphertext)+TagLen)
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, nonce, sealed, aad)
	if err != nil {
		return nil, ErrAuthentication
	}

	// Normalize nil to empty slice for consistency.
	if plaintext == nil {
		plaintext = []byte{}
	}
	return plaintext, nil
}

func (c Codec) aead(key []byte) (cipher.AEAD, error) {
	if len(key) != KeyLen {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrInvalidKeySize, len(key), KeyLen)
	}
	switch c.suite {
	case SuiteXChaCha20:
		return chacha20poly1305.NewX(key)
	default:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, fmt.Errorf("crypt: AES cipher creation failed: %w", err)
		}
		return cipher.NewGCM(block)
	}
}
