// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/internal/logger"
	"github.com/MKhiriev/qre-core/models"
)

// maxKeychainSize bounds how much of a keychain file is read.
const maxKeychainSize = 1 << 20

// keychainFileStorage keeps each keychain as an indented JSON file.
type keychainFileStorage struct {
	logger *logger.Logger
}

// NewKeychainFileStorage constructs the JSON file [KeychainStorage].
func NewKeychainFileStorage(log *logger.Logger) KeychainStorage {
	return &keychainFileStorage{logger: log}
}

func (s *keychainFileStorage) Exists(ctx context.Context, path string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("stat keychain: %w", err)
	case info.IsDir():
		return false, fmt.Errorf("%w: keychain path %q is a directory", crypto.ErrCorrupted, path)
	}
	return true, nil
}

func (s *keychainFileStorage) Load(ctx context.Context, path string) (*models.KeychainStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrKeychainNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open keychain: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxKeychainSize+1))
	if err != nil {
		return nil, fmt.Errorf("read keychain: %w", err)
	}
	if len(data) > maxKeychainSize {
		return nil, fmt.Errorf("%w: keychain exceeds %d bytes", crypto.ErrCorrupted, maxKeychainSize)
	}

	var keychain models.KeychainStore
	if err := json.Unmarshal(data, &keychain); err != nil {
		return nil, fmt.Errorf("%w: parse keychain: %v", crypto.ErrCorrupted, err)
	}
	if err := validateKeychain(&keychain); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("path", path).Str("vault_id", keychain.VaultID).Msg("keychain loaded")
	return &keychain, nil
}

func (s *keychainFileStorage) Create(ctx context.Context, path string, keychain *models.KeychainStore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := marshalKeychain(keychain)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create keychain directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return ErrKeychainExists
	}
	if err != nil {
		return fmt.Errorf("create keychain: %w", err)
	}

	if err := writeAndSync(f, data); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("write keychain: %w", err)
	}

	s.logger.Debug().Str("path", path).Str("vault_id", keychain.VaultID).Msg("keychain created")
	return nil
}

func (s *keychainFileStorage) Save(ctx context.Context, path string, keychain *models.KeychainStore) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := marshalKeychain(keychain)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp keychain: %w", err)
	}
	tmpPath := tmp.Name()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp keychain: %w", err)
	}
	if err := writeAndSync(tmp, data); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp keychain: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace keychain: %w", err)
	}

	s.logger.Debug().Str("path", path).Str("vault_id", keychain.VaultID).Msg("keychain saved")
	return nil
}

func marshalKeychain(keychain *models.KeychainStore) ([]byte, error) {
	if err := validateKeychain(keychain); err != nil {
		return nil, fmt.Errorf("refusing to write invalid keychain: %w", err)
	}
	data, err := json.MarshalIndent(keychain, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal keychain: %w", err)
	}
	return data, nil
}

// writeAndSync writes data, flushes it to stable storage and closes f.
func writeAndSync(f *os.File, data []byte) error {
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// validateKeychain checks the structure of a keychain. It cannot tell a
// tampered ciphertext from a valid one; that is the AEAD's job.
func validateKeychain(k *models.KeychainStore) error {
	if v := k.EffectiveVersion(); v > models.KeychainStoreVersion || v < 1 {
		return &crypto.VersionError{Version: uint32(v), Max: models.KeychainStoreVersion}
	}
	if k.VaultID == "" {
		return fmt.Errorf("%w: keychain has no vault id", crypto.ErrCorrupted)
	}
	for name, slot := range map[string]models.Slot{"password": k.PasswordSlot(), "recovery": k.RecoverySlot()} {
		if slot.Salt == "" {
			return fmt.Errorf("%w: %s slot has no salt", crypto.ErrCorrupted, name)
		}
		if len(slot.Nonce) != crypto.NonceSize {
			return fmt.Errorf("%w: %s slot nonce is %d bytes, want %d", crypto.ErrCorrupted, name, len(slot.Nonce), crypto.NonceSize)
		}
		if len(slot.Ciphertext) < crypto.TagSize {
			return fmt.Errorf("%w: %s slot ciphertext too short", crypto.ErrCorrupted, name)
		}
	}
	if k.HasKeyCheck() && (len(k.KeyCheckNonce) != crypto.NonceSize || len(k.KeyCheckTag) < crypto.TagSize) {
		return fmt.Errorf("%w: malformed key check", crypto.ErrCorrupted)
	}
	return nil
}
