package service

import (
	"github.com/MKhiriev/qre-core/internal/config"
	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/internal/logger"
	"github.com/MKhiriev/qre-core/internal/store"
	"github.com/MKhiriev/qre-core/internal/workers"
)

type Services struct {
	KeychainService KeychainService
	StreamService   StreamService
	LegacyService   LegacyService
	FileService     FileService
}

func NewServices(storages *store.Storages, cfg *config.StructuredConfig, logger *logger.Logger) *Services {
	streams := newStreamService(logger.GetChildLogger())
	legacy := newLegacyService(logger.GetChildLogger())

	return &Services{
		KeychainService: NewKeychainService(storages.KeychainStorage, crypto.NewKDF(), cfg.Crypto, logger.GetChildLogger()),
		StreamService:   streams,
		LegacyService:   legacy,
		FileService:     newFileService(streams, legacy, workers.NewWorkers(cfg.Workers.BatchConcurrency), cfg.Crypto.CompressionMode, logger.GetChildLogger()),
	}
}
