// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// maxBatchConcurrency caps parallel file jobs.
const maxBatchConcurrency = 64

// validate checks that the final merged [StructuredConfig] satisfies all
// invariants before it is used.
//
// Returns nil if the configuration is valid, or a descriptive error
// wrapping one of the ErrInvalid*Configs sentinels otherwise.
func (cfg *StructuredConfig) validate() error {
	if err := cfg.Crypto.KDFParams().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidCryptoConfigs, err)
	}
	if !cfg.Crypto.CompressionMode.Valid() {
		return fmt.Errorf("%w: unknown compression mode %q", ErrInvalidCryptoConfigs, cfg.Crypto.CompressionMode)
	}

	if strings.TrimSpace(cfg.Storage.KeychainPath) == "" {
		return fmt.Errorf("%w: keychain path is empty", ErrInvalidStorageConfigs)
	}

	if cfg.Workers.BatchConcurrency < 1 || cfg.Workers.BatchConcurrency > maxBatchConcurrency {
		return fmt.Errorf("%w: batch concurrency %d out of range [1, %d]", ErrInvalidWorkerConfigs, cfg.Workers.BatchConcurrency, maxBatchConcurrency)
	}
	if cfg.Workers.OperationTimeout < 0 {
		return fmt.Errorf("%w: negative operation timeout", ErrInvalidWorkerConfigs)
	}

	if _, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level)); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidLogConfigs, err)
	}

	return nil
}
