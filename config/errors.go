// Copyright (c) 2025 The Lockbox developers
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package config

import "errors"

var (
	// ErrInvalidChunkSize indicates the chunk size is not positive.
	ErrInvalidChunkSize = errors.New("config: chunk size must be positive")

	// ErrInvalidThreshold indicates a size threshold is not positive.
	ErrInvalidThreshold = errors.New("config: thresholds must be positive")

	// ErrInvalidInlineLimit indicates the inline limit is not positive.
	ErrInvalidInlineLimit = errors.New("config: inline limit must be positive")

	// ErrInvalidWorkerCount indicates the worker count is below one.
	ErrInvalidWorkerCount = errors.New("config: worker count must be at least 1")

	// ErrInvalidSuite indicates the cipher suite name is not recognized.
	ErrInvalidSuite = errors.New("config: invalid cipher suite")

	// ErrInvalidCompression indicates the compression name is not recognized.
	ErrInvalidCompression = errors.New("config: invalid compression (must be \"\" or \"zstd\")")

	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = errors.New("config: configuration file not found")
)
