package config

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/qre-core/models"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_DefaultsOnly verifies that the defaults alone form a valid config.
func TestBuild_DefaultsOnly(t *testing.T) {
	cfg, err := newConfigBuilder().withDefaults().build()
	require.NoError(t, err)

	assert.Equal(t, uint32(19456), cfg.Crypto.KDFMemory)
	assert.Equal(t, uint32(2), cfg.Crypto.KDFIterations)
	assert.Equal(t, uint32(1), cfg.Crypto.KDFParallelism)
	assert.Equal(t, models.CompressionAuto, cfg.Crypto.CompressionMode)
	assert.Equal(t, DefaultKeychainPath, cfg.Storage.KeychainPath)
	assert.Equal(t, 1, cfg.Workers.BatchConcurrency)
	assert.Equal(t, "info", cfg.Log.Level)
}

// TestBuild_EmptyBuilderIsInvalid verifies that a config with nothing set
// fails validation.
func TestBuild_EmptyBuilderIsInvalid(t *testing.T) {
	cfg, err := newConfigBuilder().build()
	assert.Nil(t, cfg)
	require.ErrorIs(t, err, ErrInvalidCryptoConfigs)
}

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_EarlierSourceWins verifies merge priority: the first config that
// sets a field keeps it, later configs only fill gaps.
func TestBuild_EarlierSourceWins(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{Storage: Storage{KeychainPath: "from-flags.json"}},
		&StructuredConfig{Storage: Storage{KeychainPath: "from-env.json"}, Log: Log{Level: "debug"}},
	)
	b.withDefaults()

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "from-flags.json", cfg.Storage.KeychainPath)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, uint32(19456), cfg.Crypto.KDFMemory)
}

// ── withFlags / withJSON ─────────────────────────────────────────────────────

// TestWithFlags_Nil verifies that a nil flag source is skipped.
func TestWithFlags_Nil(t *testing.T) {
	b := newConfigBuilder().withFlags(nil)
	assert.Empty(t, b.configs)
}

// TestWithJSON_LoadsPathFromEarlierSource verifies that the JSON file named
// by the flag source is loaded and merged below it.
func TestWithJSON_LoadsPathFromEarlierSource(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"storage": map[string]any{"keychain_path": "from-json.json"},
		"workers": map[string]any{"batch_concurrency": 6},
	})

	b := newConfigBuilder().
		withFlags(&StructuredConfig{JSONFilePath: path, Workers: Workers{BatchConcurrency: 2}}).
		withJSON().
		withDefaults()

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "from-json.json", cfg.Storage.KeychainPath)
	assert.Equal(t, 2, cfg.Workers.BatchConcurrency)
}

// TestWithJSON_MissingFile verifies that a missing JSON file is reported.
func TestWithJSON_MissingFile(t *testing.T) {
	b := newConfigBuilder().
		withFlags(&StructuredConfig{JSONFilePath: "/definitely/not/here.json"}).
		withJSON()

	require.Error(t, b.err)
	_, err := b.build()
	require.Error(t, err)
}

// TestWithJSON_NoPath verifies that nothing is loaded when no source names a
// JSON file.
func TestWithJSON_NoPath(t *testing.T) {
	b := newConfigBuilder().withFlags(&StructuredConfig{}).withJSON()
	assert.Len(t, b.configs, 1)
	assert.NoError(t, b.err)
}

// ── GetStructuredConfig ──────────────────────────────────────────────────────

// TestGetStructuredConfig_Priority verifies flags > env > defaults.
func TestGetStructuredConfig_Priority(t *testing.T) {
	setEnvVars(t, map[string]string{
		"QRE_STORAGE_KEYCHAIN_PATH":     "/env/keychain.json",
		"QRE_WORKERS_BATCH_CONCURRENCY": "5",
	})

	cfg, err := GetStructuredConfig(&StructuredConfig{Storage: Storage{KeychainPath: "/flag/keychain.json"}})
	require.NoError(t, err)

	assert.Equal(t, "/flag/keychain.json", cfg.Storage.KeychainPath)
	assert.Equal(t, 5, cfg.Workers.BatchConcurrency)
	assert.Equal(t, "info", cfg.Log.Level)
}

// ── validate ─────────────────────────────────────────────────────────────────

// TestValidate verifies each rule against an otherwise valid config.
func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *StructuredConfig)
		wantErr error
	}{
		{"valid", func(c *StructuredConfig) {}, nil},
		{"zero memory", func(c *StructuredConfig) { c.Crypto.KDFMemory = 0 }, ErrInvalidCryptoConfigs},
		{"unknown mode", func(c *StructuredConfig) { c.Crypto.CompressionMode = "turbo" }, ErrInvalidCryptoConfigs},
		{"blank keychain", func(c *StructuredConfig) { c.Storage.KeychainPath = "  " }, ErrInvalidStorageConfigs},
		{"too many jobs", func(c *StructuredConfig) { c.Workers.BatchConcurrency = 1000 }, ErrInvalidWorkerConfigs},
		{"negative timeout", func(c *StructuredConfig) { c.Workers.OperationTimeout = -1 }, ErrInvalidWorkerConfigs},
		{"bad level", func(c *StructuredConfig) { c.Log.Level = "chatty" }, ErrInvalidLogConfigs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := cfg.validate()
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// TestCrypto_KDFParams verifies the mapping to crypto parameters.
func TestCrypto_KDFParams(t *testing.T) {
	p := Crypto{KDFMemory: 1024, KDFIterations: 3, KDFParallelism: 2}.KDFParams()
	assert.Equal(t, uint32(1024), p.Memory)
	assert.Equal(t, uint32(3), p.Iterations)
	assert.Equal(t, uint32(2), p.Parallelism)
}
