package crypt

import "errors"

var (
	// ErrUnknownSuite indicates an unrecognized cipher suite value or name.
	ErrUnknownSuite = errors.New("crypt: unknown cipher suite")

	// ErrInvalidKeySize indicates the key is not KeyLen bytes.
	ErrInvalidKeySize = errors.New("crypt: invalid key size")

	// ErrInvalidNonceSize indicates the nonce length does not match the suite.
	ErrInvalidNonceSize = errors.New("crypt: invalid nonce size")

	// ErrAuthentication indicates AEAD authentication failed during open.
	// Raised for tag mismatches and for corrupted or truncated ciphertext.
	ErrAuthentication = errors.New("crypt: authentication failed")
)
