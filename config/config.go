// Copyright (c) 2025 The Lockbox developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package config holds the engine tuning parameters and their validation.
// A Config is an explicit value handed to constructors; packages never read
// configuration ambiently.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Config carries the size thresholds and algorithm choices for a store.
type Config struct {
	// ChunkSize is the fixed plaintext chunk size in bytes for streamed
	// blobs. Every chunk except possibly the last has exactly this size.
	ChunkSize int `toml:"chunk_size"`

	// StreamingThreshold selects the save path: payloads of this size or
	// larger are chunk-streamed, smaller ones are sealed whole.
	StreamingThreshold int `toml:"streaming_threshold"`

	// JSONOffloadThreshold routes structured encode and decode work at or
	// above this byte size to the worker pool.
	JSONOffloadThreshold int `toml:"json_offload_threshold"`

	// BinaryOffloadThreshold routes seal and open work at or above this
	// byte size to the worker pool.
	BinaryOffloadThreshold int `toml:"binary_offload_threshold"`

	// InlineLimit is the maximum textual length of a primitive value
	// stored in the tagged inline form.
	InlineLimit int `toml:"inline_limit"`

	// Workers is the offload worker pool size.
	Workers int `toml:"workers"`

	// Suite names the AEAD cipher suite: "aes-gcm" or "xchacha20-poly1305".
	Suite string `toml:"cipher_suite"`

	// Compression names the blob compression stage: "" (none) or "zstd".
	Compression string `toml:"compression"`
}

// DefaultConfig returns the configuration used when the caller supplies none.
func DefaultConfig() Config {
	return Config{
		ChunkSize:              64 * 1024,
		StreamingThreshold:     256 * 1024,
		JSONOffloadThreshold:   32 * 1024,
		BinaryOffloadThreshold: 64 * 1024,
		InlineLimit:            128,
		Workers:                2,
		Suite:                  "aes-gcm",
		Compression:            "",
	}
}

// ReadConfig decodes a Config from the provided reader and validates it.
func ReadConfig(r io.Reader) (Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode failed: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and validates a Config from a TOML file.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	cfg, err := ReadConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// SaveConfig writes a Config to a TOML file.
func SaveConfig(path string, cfg Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("config: create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode failed: %w", err)
	}
	return nil
}
