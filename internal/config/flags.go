package config

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/MKhiriev/qre-core/models"
)

// compressionModeValue holds a compression mode flag.
// It implements the pflag.Value interface.
type compressionModeValue struct {
	mode *models.CompressionMode
}

// String returns the current mode, or "" when unset.
func (v compressionModeValue) String() string {
	if v.mode == nil {
		return ""
	}
	return string(*v.mode)
}

// Set validates and stores a mode.
func (v compressionModeValue) Set(s string) error {
	m := models.CompressionMode(s)
	if !m.Valid() {
		return fmt.Errorf("unknown compression mode %q (want auto, store or extreme)", s)
	}
	*v.mode = m
	return nil
}

// Type names the flag value in help output.
func (v compressionModeValue) Type() string {
	return "mode"
}

// BindFlags registers every configuration flag on fs and returns the config
// the flags are parsed into. Flags left unset stay zero and therefore fall
// through to lower-priority sources.
//
// Flags:
//
//	-k/--keychain keychain file path
//	--kdf-memory Argon2id memory cost in KiB (new vaults only)
//	--kdf-iterations Argon2id time cost (new vaults only)
//	--kdf-parallelism Argon2id lanes (new vaults only)
//	--compression auto|store|extreme
//	-j/--jobs files processed in parallel
//	--timeout batch timeout (e.g., "10m")
//	--log-level zerolog level
//	-c/--config json file path with configs
func BindFlags(fs *pflag.FlagSet) *StructuredConfig {
	cfg := &StructuredConfig{}

	fs.StringVarP(&cfg.Storage.KeychainPath, "keychain", "k", "", "Keychain file path")
	fs.Uint32Var(&cfg.Crypto.KDFMemory, "kdf-memory", 0, "Argon2id memory cost in KiB for new vaults")
	fs.Uint32Var(&cfg.Crypto.KDFIterations, "kdf-iterations", 0, "Argon2id iterations for new vaults")
	fs.Uint32Var(&cfg.Crypto.KDFParallelism, "kdf-parallelism", 0, "Argon2id parallelism for new vaults")
	fs.Var(compressionModeValue{mode: &cfg.Crypto.CompressionMode}, "compression", "Compression mode: auto, store or extreme")
	fs.IntVarP(&cfg.Workers.BatchConcurrency, "jobs", "j", 0, "Files processed in parallel")
	fs.DurationVar(&cfg.Workers.OperationTimeout, "timeout", 0, "Batch timeout (e.g., 10m)")
	fs.StringVar(&cfg.Log.Level, "log-level", "", "Log level: debug, info, warn, error, disabled")
	fs.StringVarP(&cfg.JSONFilePath, "config", "c", "", "JSON config file path")

	return cfg
}
