// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"io"

	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/models"
)

// KeychainService manages the lifecycle of the vault Master Key.
type KeychainService interface {
	Exists(ctx context.Context, path string) (bool, error)

	// Init creates a vault at path. The recovery code is returned exactly
	// once and never persisted in recoverable form.
	Init(ctx context.Context, path, password string) (recoveryCode string, masterKey *crypto.MasterKey, err error)
	Unlock(ctx context.Context, path, password string) (*crypto.MasterKey, error)

	// Recover opens the recovery slot and resets the password slot to
	// newPassword. The recovery code keeps working.
	Recover(ctx context.Context, path, recoveryCode, newPassword string) (*crypto.MasterKey, error)

	// ChangePassword reseals the password slot around masterKey, which must
	// be the key returned by Unlock, Recover or Init for this vault. A key
	// that fails the store's key check is refused with ErrForeignMasterKey.
	ChangePassword(ctx context.Context, path string, masterKey *crypto.MasterKey, newPassword string) error
	// RegenerateRecoveryCode replaces the recovery slot and returns the new
	// code. masterKey is checked like in ChangePassword.
	RegenerateRecoveryCode(ctx context.Context, path string, masterKey *crypto.MasterKey) (string, error)
}

// StreamService encrypts and decrypts chunked (version 5) containers.
type StreamService interface {
	Encrypt(ctx context.Context, dst io.Writer, src io.Reader, filename string, masterKey *crypto.MasterKey, opts StreamOptions) error
	// Decrypt writes the plaintext to dst and returns the filename recorded
	// in the container.
	Decrypt(ctx context.Context, dst io.Writer, src io.Reader, masterKey *crypto.MasterKey, opts StreamOptions) (string, error)

	// EncryptFile writes the container to outputPath, or to a free
	// "name (n).ext" variant of it, and returns the path written.
	EncryptFile(ctx context.Context, inputPath, outputPath string, masterKey *crypto.MasterKey, opts StreamOptions) (string, error)
	// DecryptFile restores the original file into outputDir and returns the
	// full path written. Its base name is the filename recorded in the
	// container, with a " (n)" suffix only when that name was taken.
	DecryptFile(ctx context.Context, inputPath, outputDir string, masterKey *crypto.MasterKey, opts StreamOptions) (string, error)
}

// LegacyService handles whole-file (versions 2 to 4) containers. New data
// is written as version 4; version 3 is available for compatibility.
type LegacyService interface {
	Encrypt(masterKey *crypto.MasterKey, keyfile []byte, payload *models.InnerPayload) ([]byte, error)
	EncryptHybrid(masterKey *crypto.MasterKey, keyfile []byte, payload *models.InnerPayload) ([]byte, error)

	Decrypt(masterKey *crypto.MasterKey, keyfile []byte, data []byte) (*models.InnerPayload, error)
	DecryptContainer(masterKey *crypto.MasterKey, keyfile []byte, c *models.LegacyContainer) (*models.InnerPayload, error)
}

// FileService locks and unlocks batches of files on disk.
type FileService interface {
	// LockFiles encrypts every path into a sibling "<name>.qre" container.
	// A directory is archived into a stored zip first, so unlocking it
	// restores "<name>.zip". One result is returned per path, in order.
	LockFiles(ctx context.Context, paths []string, masterKey *crypto.MasterKey, opts BatchOptions) ([]models.BatchItemResult, error)
	// UnlockFiles decrypts every container of any supported version.
	UnlockFiles(ctx context.Context, paths []string, masterKey *crypto.MasterKey, opts BatchOptions) ([]models.BatchItemResult, error)

	// DecryptFile dispatches on the container version and returns the path
	// of the restored file.
	DecryptFile(ctx context.Context, inputPath, outputDir string, masterKey *crypto.MasterKey, keyfile []byte) (string, error)
}
