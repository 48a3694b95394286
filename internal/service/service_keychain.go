// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"github.com/awnumar/memguard"

	"github.com/MKhiriev/qre-core/internal/config"
	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/internal/logger"
	"github.com/MKhiriev/qre-core/internal/store"
	"github.com/MKhiriev/qre-core/internal/utils"
	"github.com/MKhiriev/qre-core/models"
)

type keychainService struct {
	storage store.KeychainStorage
	kdf     crypto.KeyDeriver
	params  crypto.KDFParams

	rng   io.Reader
	ids   *utils.UUIDGenerator
	locks pathLocks

	logger *logger.Logger
}

// NewKeychainService builds a KeychainService. cfg only affects vaults
// created by Init; existing vaults use the parameters stored with them.
func NewKeychainService(storage store.KeychainStorage, kdf crypto.KeyDeriver, cfg config.Crypto, logger *logger.Logger) KeychainService {
	return &keychainService{
		storage: storage,
		kdf:     kdf,
		params:  cfg.KDFParams(),
		rng:     rand.Reader,
		ids:     utils.NewUUIDGenerator(),
		logger:  logger,
	}
}

func (k *keychainService) Exists(ctx context.Context, path string) (bool, error) {
	return k.storage.Exists(ctx, path)
}

func (k *keychainService) Init(ctx context.Context, path, password string) (string, *crypto.MasterKey, error) {
	if password == "" {
		return "", nil, ErrEmptyPassword
	}
	if err := k.params.Validate(); err != nil {
		return "", nil, err
	}

	unlock := k.locks.lock(path)
	defer unlock()

	exists, err := k.storage.Exists(ctx, path)
	if err != nil {
		return "", nil, fmt.Errorf("check keychain: %w", err)
	}
	if exists {
		return "", nil, fmt.Errorf("%w: %s", ErrVaultExists, path)
	}

	raw, err := crypto.RandomBytes(k.rng, crypto.MasterKeySize)
	if err != nil {
		return "", nil, fmt.Errorf("generate master key: %w", err)
	}
	masterKey, err := crypto.NewMasterKey(raw)
	if err != nil {
		return "", nil, err
	}

	code, err := crypto.GenerateRecoveryCode(k.rng)
	if err != nil {
		masterKey.Destroy()
		return "", nil, err
	}

	passwordSlot, err := k.sealSlot(masterKey, []byte(password), k.params)
	if err != nil {
		masterKey.Destroy()
		return "", nil, fmt.Errorf("seal password slot: %w", err)
	}
	recoverySlot, err := k.sealSlot(masterKey, []byte(code), k.params)
	if err != nil {
		masterKey.Destroy()
		return "", nil, fmt.Errorf("seal recovery slot: %w", err)
	}

	keychain := &models.KeychainStore{
		Version: models.KeychainStoreVersion,
		VaultID: k.ids.Generate(),
	}
	setParams(keychain, k.params)
	keychain.SetPasswordSlot(passwordSlot)
	keychain.SetRecoverySlot(recoverySlot)
	if err = k.sealKeyCheck(keychain, masterKey); err != nil {
		masterKey.Destroy()
		return "", nil, err
	}

	if err = k.storage.Create(ctx, path, keychain); err != nil {
		masterKey.Destroy()
		if errors.Is(err, store.ErrKeychainExists) {
			return "", nil, fmt.Errorf("%w: %s", ErrVaultExists, path)
		}
		return "", nil, fmt.Errorf("write keychain: %w", err)
	}

	k.logger.Info().Str("vault_id", keychain.VaultID).Str("path", path).Msg("vault initialized")
	return code, masterKey, nil
}

func (k *keychainService) Unlock(ctx context.Context, path, password string) (*crypto.MasterKey, error) {
	keychain, err := k.load(ctx, path)
	if err != nil {
		return nil, err
	}

	masterKey, err := k.openSlot(keychain.PasswordSlot(), []byte(password), storedParams(keychain))
	if err != nil {
		if errors.Is(err, crypto.ErrIncorrectCredentials) {
			k.logger.Warn().Str("vault_id", keychain.VaultID).Msg("unlock rejected")
			return nil, ErrIncorrectPassword
		}
		return nil, err
	}

	k.logger.Info().Str("vault_id", keychain.VaultID).Msg("vault unlocked")
	return masterKey, nil
}

func (k *keychainService) Recover(ctx context.Context, path, recoveryCode, newPassword string) (*crypto.MasterKey, error) {
	code, err := crypto.NormalizeRecoveryCode(recoveryCode)
	if err != nil {
		return nil, ErrInvalidRecoveryCode
	}
	if newPassword == "" {
		return nil, ErrEmptyPassword
	}

	unlock := k.locks.lock(path)
	defer unlock()

	keychain, err := k.load(ctx, path)
	if err != nil {
		return nil, err
	}
	params := storedParams(keychain)

	masterKey, err := k.openSlot(keychain.RecoverySlot(), []byte(code), params)
	if err != nil {
		if errors.Is(err, crypto.ErrIncorrectCredentials) {
			k.logger.Warn().Str("vault_id", keychain.VaultID).Msg("recovery rejected")
			return nil, ErrInvalidRecoveryCode
		}
		return nil, err
	}

	slot, err := k.sealSlot(masterKey, []byte(newPassword), params)
	if err != nil {
		masterKey.Destroy()
		return nil, fmt.Errorf("seal password slot: %w", err)
	}
	keychain.SetPasswordSlot(slot)
	setParams(keychain, params)
	if !keychain.HasKeyCheck() {
		if err = k.sealKeyCheck(keychain, masterKey); err != nil {
			masterKey.Destroy()
			return nil, err
		}
	}

	if err = k.storage.Save(ctx, path, keychain); err != nil {
		masterKey.Destroy()
		return nil, fmt.Errorf("write keychain: %w", err)
	}

	k.logger.Info().Str("vault_id", keychain.VaultID).Msg("password reset with recovery code")
	return masterKey, nil
}

func (k *keychainService) ChangePassword(ctx context.Context, path string, masterKey *crypto.MasterKey, newPassword string) error {
	if newPassword == "" {
		return ErrEmptyPassword
	}

	return k.rotate(ctx, path, masterKey, func(keychain *models.KeychainStore, params crypto.KDFParams) error {
		slot, err := k.sealSlot(masterKey, []byte(newPassword), params)
		if err != nil {
			return fmt.Errorf("seal password slot: %w", err)
		}
		keychain.SetPasswordSlot(slot)
		k.logger.Info().Str("vault_id", keychain.VaultID).Msg("password changed")
		return nil
	})
}

func (k *keychainService) RegenerateRecoveryCode(ctx context.Context, path string, masterKey *crypto.MasterKey) (string, error) {
	var code string
	err := k.rotate(ctx, path, masterKey, func(keychain *models.KeychainStore, params crypto.KDFParams) error {
		var err error
		code, err = crypto.GenerateRecoveryCode(k.rng)
		if err != nil {
			return err
		}
		slot, err := k.sealSlot(masterKey, []byte(code), params)
		if err != nil {
			return fmt.Errorf("seal recovery slot: %w", err)
		}
		keychain.SetRecoverySlot(slot)
		k.logger.Info().Str("vault_id", keychain.VaultID).Msg("recovery code regenerated")
		return nil
	})
	if err != nil {
		return "", err
	}
	return code, nil
}

// rotate runs a load-modify-save cycle under the path lock. masterKey is
// checked against the store's key check first, so a stale or foreign key
// can never be sealed into a slot.
func (k *keychainService) rotate(ctx context.Context, path string, masterKey *crypto.MasterKey, modify func(*models.KeychainStore, crypto.KDFParams) error) error {
	if len(masterKey.Bytes()) != crypto.MasterKeySize {
		return ErrNoMasterKey
	}

	unlock := k.locks.lock(path)
	defer unlock()

	keychain, err := k.load(ctx, path)
	if err != nil {
		return err
	}
	if err = verifyKeyCheck(keychain, masterKey); err != nil {
		k.logger.Warn().Str("vault_id", keychain.VaultID).Msg("rotation refused: master key mismatch")
		return err
	}

	params := storedParams(keychain)
	if err = modify(keychain, params); err != nil {
		return err
	}
	setParams(keychain, params)
	if err = k.storage.Save(ctx, path, keychain); err != nil {
		return fmt.Errorf("write keychain: %w", err)
	}
	return nil
}

func (k *keychainService) load(ctx context.Context, path string) (*models.KeychainStore, error) {
	keychain, err := k.storage.Load(ctx, path)
	if err != nil {
		if errors.Is(err, store.ErrKeychainNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrVaultNotFound, path)
		}
		return nil, err
	}
	return keychain, nil
}

// sealSlot encrypts the Master Key under a key derived from secret with a
// fresh salt. secret is wiped.
func (k *keychainService) sealSlot(masterKey *crypto.MasterKey, secret []byte, params crypto.KDFParams) (models.Slot, error) {
	defer memguard.WipeBytes(secret)

	salt, err := k.kdf.GenerateSalt()
	if err != nil {
		return models.Slot{}, err
	}
	kek, err := k.kdf.Derive(secret, salt, params)
	if err != nil {
		return models.Slot{}, err
	}
	defer kek.Destroy()

	aead, err := crypto.NewAEAD(kek.Bytes())
	if err != nil {
		return models.Slot{}, err
	}
	nonce, ciphertext, err := aead.SealRandom(k.rng, masterKey.Bytes(), nil)
	if err != nil {
		return models.Slot{}, err
	}
	return models.Slot{Salt: salt, Nonce: nonce, Ciphertext: ciphertext}, nil
}

// openSlot decrypts a slot. Any authentication failure is reported as
// crypto.ErrIncorrectCredentials; a plaintext of the wrong length means the
// store is corrupted. secret is wiped.
func (k *keychainService) openSlot(slot models.Slot, secret []byte, params crypto.KDFParams) (*crypto.MasterKey, error) {
	defer memguard.WipeBytes(secret)

	kek, err := k.kdf.Derive(secret, slot.Salt, params)
	if err != nil {
		return nil, err
	}
	defer kek.Destroy()

	aead, err := crypto.NewAEAD(kek.Bytes())
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(slot.Nonce, slot.Ciphertext, nil)
	if err != nil {
		if crypto.IsAuthFailure(err) {
			return nil, crypto.ErrIncorrectCredentials
		}
		return nil, err
	}
	if len(plain) != crypto.MasterKeySize {
		memguard.WipeBytes(plain)
		return nil, fmt.Errorf("%w: decrypted master key is %d bytes", crypto.ErrCorrupted, len(plain))
	}
	return crypto.NewMasterKey(plain)
}

// sealKeyCheck records a validation tag under a key derived from
// masterKey. Only call it with a key proven by one of the slots.
func (k *keychainService) sealKeyCheck(keychain *models.KeychainStore, masterKey *crypto.MasterKey) error {
	wrap, err := newWrapCipher(masterKey, nil)
	if err != nil {
		return err
	}
	nonce, tag, err := crypto.NewValidationTag(wrap, k.rng)
	if err != nil {
		return fmt.Errorf("seal key check: %w", err)
	}
	keychain.KeyCheckNonce = nonce
	keychain.KeyCheckTag = tag
	return nil
}

// verifyKeyCheck fails with ErrForeignMasterKey when the store's key check
// does not open under masterKey. Stores without a key check pass.
func verifyKeyCheck(keychain *models.KeychainStore, masterKey *crypto.MasterKey) error {
	if !keychain.HasKeyCheck() {
		return nil
	}
	wrap, err := newWrapCipher(masterKey, nil)
	if err != nil {
		return err
	}
	err = crypto.VerifyValidationTag(wrap, keychain.KeyCheckNonce, keychain.KeyCheckTag)
	if errors.Is(err, crypto.ErrIncorrectCredentials) {
		return ErrForeignMasterKey
	}
	return err
}

// storedParams returns the KDF parameters recorded in keychain. A store that
// predates the parameter fields has all three at zero and was written with
// the defaults; any other zero is rejected later by Validate.
func storedParams(keychain *models.KeychainStore) crypto.KDFParams {
	if keychain.KDFMemory == 0 && keychain.KDFIterations == 0 && keychain.KDFParallelism == 0 {
		return crypto.DefaultKDFParams()
	}
	return crypto.KDFParams{
		Memory:      keychain.KDFMemory,
		Iterations:  keychain.KDFIterations,
		Parallelism: keychain.KDFParallelism,
	}
}

func setParams(keychain *models.KeychainStore, params crypto.KDFParams) {
	keychain.KDFMemory = params.Memory
	keychain.KDFIterations = params.Iterations
	keychain.KDFParallelism = params.Parallelism
}

// pathLocks serializes mutations of the same keychain file.
type pathLocks struct {
	m sync.Map
}

func (l *pathLocks) lock(path string) func() {
	key := filepath.Clean(path)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}
	v, _ := l.m.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
