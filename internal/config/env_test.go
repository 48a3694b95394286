// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/qre-core/models"
)

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestParseEnv_AllFields(t *testing.T) {
	// Arrange
	setEnvVars(t, map[string]string{
		"QRE_CONFIG": "/path/to/config.json",

		"QRE_CRYPTO_KDF_MEMORY":       "65536",
		"QRE_CRYPTO_KDF_ITERATIONS":   "3",
		"QRE_CRYPTO_KDF_PARALLELISM":  "4",
		"QRE_CRYPTO_COMPRESSION_MODE": "extreme",

		"QRE_STORAGE_KEYCHAIN_PATH": "/home/user/.qre/keychain.json",

		"QRE_WORKERS_BATCH_CONCURRENCY": "8",
		"QRE_WORKERS_OPERATION_TIMEOUT": "10m",

		"QRE_LOG_LEVEL": "debug",
	})

	// Act
	cfg := &StructuredConfig{}
	err := parseEnv(cfg)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/path/to/config.json", cfg.JSONFilePath)
	assert.Equal(t, uint32(65536), cfg.Crypto.KDFMemory)
	assert.Equal(t, uint32(3), cfg.Crypto.KDFIterations)
	assert.Equal(t, uint32(4), cfg.Crypto.KDFParallelism)
	assert.Equal(t, models.CompressionExtreme, cfg.Crypto.CompressionMode)
	assert.Equal(t, "/home/user/.qre/keychain.json", cfg.Storage.KeychainPath)
	assert.Equal(t, 8, cfg.Workers.BatchConcurrency)
	assert.Equal(t, 10*time.Minute, cfg.Workers.OperationTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestParseEnv_UnprefixedIgnored(t *testing.T) {
	setEnvVars(t, map[string]string{
		"STORAGE_KEYCHAIN_PATH": "/should/not/be/read",
		"LOG_LEVEL":             "debug",
	})

	cfg := &StructuredConfig{}
	require.NoError(t, parseEnv(cfg))

	assert.Empty(t, cfg.Storage.KeychainPath)
	assert.Empty(t, cfg.Log.Level)
}

func TestParseEnv_InvalidNumber(t *testing.T) {
	setEnvVars(t, map[string]string{"QRE_CRYPTO_KDF_MEMORY": "lots"})

	err := parseEnv(&StructuredConfig{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error getting env configs")
}

func TestParseEnv_InvalidDuration(t *testing.T) {
	setEnvVars(t, map[string]string{"QRE_WORKERS_OPERATION_TIMEOUT": "soon"})

	require.Error(t, parseEnv(&StructuredConfig{}))
}
