package keyring

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"filippo.io/age"
	"golang.org/x/crypto/hkdf"
)

const (
	// nameSalt is the fixed HKDF salt prefix for key file name derivation.
	nameSalt = "lockbox-keyring-v1"

	// nameInfo is the HKDF info string for key file name derivation.
	nameInfo = "lockbox-key-name"

	// nameLen is the derived file name length in bytes before hex encoding.
	nameLen = 16
)

// File is a Store backed by a directory holding one age-encrypted file per
// key. Key material is sealed with age's scrypt-based passphrase encryption
// (the same scheme bt uses for private keys), and file names are derived
// from the logical name with HKDF-SHA256 keyed by the passphrase, so paths
// on disk reveal neither logical names nor contents.
type File struct {
	dir        string
	passphrase string
	workFactor int
}

var _ Store = (*File)(nil)

// NewFile opens a file-backed Store rooted at dir, creating the directory
// if needed. The passphrase protects every key file at rest.
func NewFile(dir, passphrase string) (*File, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("keyring: creating key directory: %w", err)
	}
	return &File{dir: dir, passphrase: passphrase}, nil
}

// SetWorkFactor overrides the scrypt work factor (log2 N) used when sealing
// key files. Zero keeps age's default. Lower values weaken the at-rest
// protection and are meant for tests.
func (f *File) SetWorkFactor(logN int) {
	f.workFactor = logN
}

// Write seals key material under name and stores it atomically.
func (f *File) Write(name string, key []byte) error {
	if name == "" {
		return ErrEmptyName
	}
	if len(key) == 0 {
		return ErrEmptyKey
	}

	path, err := f.path(name)
	if err != nil {
		return err
	}

	recipient, err := age.NewScryptRecipient(f.passphrase)
	if err != nil {
		return fmt.Errorf("keyring: creating scrypt recipient: %w", err)
	}
	if f.workFactor > 0 {
		recipient.SetWorkFactor(f.workFactor)
	}

	var buf bytes.Buffer
	w, err := age.Encrypt(&buf, recipient)
	if err != nil {
		return fmt.Errorf("keyring: creating encrypted writer: %w", err)
	}
	if _, err := w.Write(key); err != nil {
		return fmt.Errorf("keyring: encrypting key material: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("keyring: finalizing encrypted key: %w", err)
	}

	return writeFileAtomic(path, buf.Bytes())
}

// Read opens the key file stored under name and returns its key material.
func (f *File) Read(name string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	path, err := f.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("keyring: reading key file: %w", err)
	}

	identity, err := age.NewScryptIdentity(f.passphrase)
	if err != nil {
		return nil, fmt.Errorf("keyring: creating scrypt identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPassphrase, err)
	}

	key, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPassphrase, err)
	}
	return key, nil
}

// Delete removes the key file stored under name. Absent files are fine.
func (f *File) Delete(name string) error {
	if name == "" {
		return ErrEmptyName
	}

	path, err := f.path(name)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("keyring: removing key file: %w", err)
	}
	return nil
}

// path derives the on-disk path for a logical key name.
// HKDF-SHA256 with the passphrase as keying material keeps logical names
// unrecoverable from directory listings.
func (f *File) path(name string) (string, error) {
	salt := []byte(nameSalt + ":" + name)
	r := hkdf.New(sha256.New, []byte(f.passphrase), salt, []byte(nameInfo))

	digest := make([]byte, nameLen)
	if _, err := io.ReadFull(r, digest); err != nil {
		return "", fmt.Errorf("keyring: name derivation failed: %w", err)
	}
	return filepath.Join(f.dir, hex.EncodeToString(digest)+".age"), nil
}

// writeFileAtomic writes data to path via a temp file and rename, so a
// crash mid-write never leaves a partial key file behind.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("keyring: creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("keyring: writing key file: %w", err)
	}
	if err := tmpFile.Chmod(0o600); err != nil {
		tmpFile.Close()
		return fmt.Errorf("keyring: setting key file mode: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("keyring: closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("keyring: renaming temp file: %w", err)
	}

	success = true
	return nil
}
