// Copyright (c) 2025 The Lockbox developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package config

import (
	"fmt"

	"github.com/lockboxorg/liblockbox-go/crypt"
)

// validCompression lists the accepted compression names.
var validCompression = map[string]bool{
	"":     true,
	"zstd": true,
}

// ValidateConfig checks that all configuration values are within acceptable
// ranges and returns the first error encountered, or nil if valid.
// Validation happens before any store I/O.
func ValidateConfig(cfg Config) error {
	if cfg.ChunkSize <= 0 {
		return ErrInvalidChunkSize
	}

	if cfg.StreamingThreshold <= 0 || cfg.JSONOffloadThreshold <= 0 || cfg.BinaryOffloadThreshold <= 0 {
		return ErrInvalidThreshold
	}

	if cfg.InlineLimit <= 0 {
		return ErrInvalidInlineLimit
	}

	if cfg.Workers < 1 {
		return ErrInvalidWorkerCount
	}

	if _, err := crypt.ParseSuite(cfg.Suite); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSuite, err)
	}

	if !validCompression[cfg.Compression] {
		return ErrInvalidCompression
	}

	return nil
}
