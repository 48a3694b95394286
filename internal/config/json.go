package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/MKhiriev/qre-core/models"
)

// StructuredJSONConfig is the on-disk layout of the JSON config file.
type StructuredJSONConfig struct {
	Crypto struct {
		KDFMemory       uint32 `json:"kdf_memory"`
		KDFIterations   uint32 `json:"kdf_iterations"`
		KDFParallelism  uint32 `json:"kdf_parallelism"`
		CompressionMode string `json:"compression_mode"`
	} `json:"crypto,omitempty"`

	Storage struct {
		KeychainPath string `json:"keychain_path"`
	} `json:"storage,omitempty"`

	Workers struct {
		BatchConcurrency int      `json:"batch_concurrency"`
		OperationTimeout Duration `json:"operation_timeout"`
	} `json:"workers,omitempty"`

	Log struct {
		Level string `json:"level"`
	} `json:"log,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	dec := json.NewDecoder(jsonFile)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		Crypto: Crypto{
			KDFMemory:       jsonCfg.Crypto.KDFMemory,
			KDFIterations:   jsonCfg.Crypto.KDFIterations,
			KDFParallelism:  jsonCfg.Crypto.KDFParallelism,
			CompressionMode: models.CompressionMode(jsonCfg.Crypto.CompressionMode),
		},
		Storage: Storage{
			KeychainPath: jsonCfg.Storage.KeychainPath,
		},
		Workers: Workers{
			BatchConcurrency: jsonCfg.Workers.BatchConcurrency,
			OperationTimeout: time.Duration(jsonCfg.Workers.OperationTimeout),
		},
		Log: Log{
			Level: jsonCfg.Log.Level,
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
