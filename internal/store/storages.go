package store

import "github.com/MKhiriev/qre-core/internal/logger"

// Storages groups the persistence backends used by the service layer.
type Storages struct {
	// KeychainStorage persists vault keychains as JSON files.
	KeychainStorage KeychainStorage
}

// NewStorages wires the default file-backed storages.
func NewStorages(log *logger.Logger) *Storages {
	log.Debug().Msg("creating storages")
	return &Storages{
		KeychainStorage: NewKeychainFileStorage(log.GetChildLogger()),
	}
}
