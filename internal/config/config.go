// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"time"

	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/models"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "QRE_"

// Defaults applied when no source sets a value.
const (
	DefaultKeychainPath     = "keychain.json"
	DefaultCompressionMode  = models.CompressionAuto
	DefaultBatchConcurrency = 1
	DefaultLogLevel         = "info"
)

// StructuredConfig is the top-level configuration container for the qre
// tooling. It aggregates all sub-configurations and is populated by merging
// values from command-line flags, environment variables, an optional JSON
// file and built-in defaults.
//
// Struct tags:
//   - envPrefix: prefix applied to all nested env tag lookups (caarlos0/env).
//   - env      : direct environment variable name for scalar fields.
//
// Every variable additionally carries the global [EnvPrefix].
type StructuredConfig struct {
	// Crypto holds the cost parameters used for new vaults and the default
	// compression mode.
	Crypto Crypto `envPrefix:"CRYPTO_"`

	// Storage holds the location of the keychain file.
	Storage Storage `envPrefix:"STORAGE_"`

	// Workers holds batch processing limits.
	Workers Workers `envPrefix:"WORKERS_"`

	// Log holds logging settings.
	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged below the values
	// already loaded from flags and environment variables.
	// Populated via the QRE_CONFIG environment variable or the -c / --config flag.
	JSONFilePath string `env:"CONFIG"`
}

// Crypto holds key-derivation and compression settings.
//
// The KDF parameters only apply when a vault is created. An existing vault
// is always unlocked with the parameters recorded in its keychain.
type Crypto struct {
	// KDFMemory is the Argon2id memory cost in KiB.
	// Env: QRE_CRYPTO_KDF_MEMORY
	KDFMemory uint32 `env:"KDF_MEMORY"`

	// KDFIterations is the Argon2id time cost.
	// Env: QRE_CRYPTO_KDF_ITERATIONS
	KDFIterations uint32 `env:"KDF_ITERATIONS"`

	// KDFParallelism is the Argon2id lane count.
	// Env: QRE_CRYPTO_KDF_PARALLELISM
	KDFParallelism uint32 `env:"KDF_PARALLELISM"`

	// CompressionMode is one of "auto", "store" or "extreme".
	// Env: QRE_CRYPTO_COMPRESSION_MODE
	CompressionMode models.CompressionMode `env:"COMPRESSION_MODE"`
}

// Storage holds persistence settings.
type Storage struct {
	// KeychainPath is the path of the vault keychain file.
	// Env: QRE_STORAGE_KEYCHAIN_PATH
	KeychainPath string `env:"KEYCHAIN_PATH"`
}

// Workers holds batch processing settings.
type Workers struct {
	// BatchConcurrency is the number of files of one batch processed in
	// parallel.
	// Env: QRE_WORKERS_BATCH_CONCURRENCY
	BatchConcurrency int `env:"BATCH_CONCURRENCY"`

	// OperationTimeout cancels a whole batch after this long (e.g. "10m").
	// Zero means no timeout.
	// Env: QRE_WORKERS_OPERATION_TIMEOUT
	OperationTimeout time.Duration `env:"OPERATION_TIMEOUT"`
}

// Log holds logging settings.
type Log struct {
	// Level is a zerolog level name.
	// Env: QRE_LOG_LEVEL
	Level string `env:"LEVEL"`
}

// KDFParams returns the configured Argon2id parameters.
func (c Crypto) KDFParams() crypto.KDFParams {
	return crypto.KDFParams{
		Memory:      c.KDFMemory,
		Iterations:  c.KDFIterations,
		Parallelism: c.KDFParallelism,
	}
}

// defaults returns the lowest-priority configuration source.
func defaults() *StructuredConfig {
	kdf := crypto.DefaultKDFParams()
	return &StructuredConfig{
		Crypto: Crypto{
			KDFMemory:       kdf.Memory,
			KDFIterations:   kdf.Iterations,
			KDFParallelism:  kdf.Parallelism,
			CompressionMode: DefaultCompressionMode,
		},
		Storage: Storage{KeychainPath: DefaultKeychainPath},
		Workers: Workers{BatchConcurrency: DefaultBatchConcurrency},
		Log:     Log{Level: DefaultLogLevel},
	}
}

// GetStructuredConfig loads, merges, and validates the configuration from
// all available sources in the following priority order (the first source
// that sets a field wins):
//  1. Command-line flags (flags may be nil)
//  2. Environment variables
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *StructuredConfig or an error if any source
// fails to load or the final config fails validation.
func GetStructuredConfig(flags *StructuredConfig) (*StructuredConfig, error) {
	return newConfigBuilder().
		withFlags(flags).
		withEnv().
		withJSON().
		withDefaults().
		build()
}
