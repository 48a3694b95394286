// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"

	"github.com/MKhiriev/qre-core/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// KeychainStorage persists [models.KeychainStore] records. Every write
// replaces the whole record; there are no partial updates.
type KeychainStorage interface {
	// Exists reports whether a keychain is present at path.
	Exists(ctx context.Context, path string) (bool, error)

	// Load reads and structurally validates the keychain at path.
	Load(ctx context.Context, path string) (*models.KeychainStore, error)

	// Create writes a new keychain and fails with [ErrKeychainExists] if one
	// is already present.
	Create(ctx context.Context, path string, keychain *models.KeychainStore) error

	// Save atomically replaces the keychain at path.
	Save(ctx context.Context, path string, keychain *models.KeychainStore) error
}
