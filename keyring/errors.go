package keyring

import "errors"

var (
	// ErrKeyNotFound indicates no key material exists under the requested name.
	ErrKeyNotFound = errors.New("keyring: key not found")

	// ErrEmptyName indicates an empty key name was provided.
	ErrEmptyName = errors.New("keyring: key name must not be empty")

	// ErrEmptyKey indicates empty key material was provided on write.
	ErrEmptyKey = errors.New("keyring: key material must not be empty")

	// ErrEmptyPassphrase indicates an empty passphrase for a file store.
	ErrEmptyPassphrase = errors.New("keyring: passphrase must not be empty")

	// ErrPassphrase indicates a key file could not be opened with the
	// store's passphrase. Raised for wrong passphrases and corrupted files.
	ErrPassphrase = errors.New("keyring: cannot open key file")
)
