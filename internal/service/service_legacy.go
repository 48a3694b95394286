// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"
	"path/filepath"

	"github.com/awnumar/memguard"

	"github.com/MKhiriev/qre-core/internal/container"
	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/internal/logger"
	"github.com/MKhiriev/qre-core/internal/utils"
	"github.com/MKhiriev/qre-core/models"
)

// maxDecodedPayload bounds the decompressed body of a whole-file container:
// the largest content plus its framing and filename.
const maxDecodedPayload = container.MaxLegacyBody + 8*1024

type legacyService struct {
	kem *crypto.KEM
	rng io.Reader

	logger *logger.Logger
}

func NewLegacyService(logger *logger.Logger) LegacyService {
	return newLegacyService(logger)
}

func newLegacyService(logger *logger.Logger) *legacyService {
	return &legacyService{
		kem:    crypto.NewKEM(),
		rng:    rand.Reader,
		logger: logger,
	}
}

// Encrypt writes a version 4 container: a random File Key wrapped directly
// under the wrapping key protects the whole compressed payload.
func (l *legacyService) Encrypt(masterKey *crypto.MasterKey, keyfile []byte, payload *models.InnerPayload) ([]byte, error) {
	return l.seal(container.VersionDirect, masterKey, keyfile, payload)
}

// EncryptHybrid writes a version 3 container: the body key is a Kyber-1024
// shared secret and the wrapping key protects the ephemeral private key.
func (l *legacyService) EncryptHybrid(masterKey *crypto.MasterKey, keyfile []byte, payload *models.InnerPayload) ([]byte, error) {
	return l.seal(container.VersionHybrid, masterKey, keyfile, payload)
}

func (l *legacyService) seal(version uint32, masterKey *crypto.MasterKey, keyfile []byte, payload *models.InnerPayload) ([]byte, error) {
	if payload == nil || payload.Filename == "" {
		return nil, ErrEmptyFilename
	}

	wrap, err := newWrapCipher(masterKey, keyfile)
	if err != nil {
		return nil, err
	}
	validationNonce, validationTag, err := crypto.NewValidationTag(wrap, l.rng)
	if err != nil {
		return nil, err
	}

	header := models.LegacyHeader{
		ValidationNonce:        validationNonce,
		EncryptedValidationTag: validationTag,
		OriginalHash:           utils.Hash(payload.Content),
		UsesKeyfile:            len(keyfile) > 0,
	}

	var bodyKey *crypto.SecureBuffer
	switch version {
	case container.VersionHybrid:
		publicKey, privateKey, err := l.kem.GenerateKeyPair(l.rng)
		if err != nil {
			return nil, err
		}
		defer privateKey.Destroy()

		header.KyberEncappedSessionKey, bodyKey, err = l.kem.Encapsulate(l.rng, publicKey)
		if err != nil {
			return nil, err
		}
		header.KeyWrappingNonce, header.EncryptedFileKey, err = wrap.SealRandom(l.rng, privateKey.Bytes(), nil)
		if err != nil {
			bodyKey.Destroy()
			return nil, fmt.Errorf("wrap private key: %w", err)
		}
	default:
		raw, err := crypto.RandomBytes(l.rng, crypto.MasterKeySize)
		if err != nil {
			return nil, fmt.Errorf("generate file key: %w", err)
		}
		bodyKey = crypto.NewSecureBufferFrom(raw)
		header.KeyWrappingNonce, header.EncryptedFileKey, err = wrap.SealRandom(l.rng, bodyKey.Bytes(), nil)
		if err != nil {
			bodyKey.Destroy()
			return nil, fmt.Errorf("wrap file key: %w", err)
		}
	}
	defer bodyKey.Destroy()

	serialized, err := container.EncodePayload(payload)
	if err != nil {
		return nil, err
	}
	compressor, err := crypto.NewCompressor(crypto.CompressionLevel(models.CompressionAuto, payload.Filename), maxDecodedPayload)
	if err != nil {
		memguard.WipeBytes(serialized)
		return nil, err
	}
	defer compressor.Close()
	compressed := compressor.Compress(serialized)
	memguard.WipeBytes(serialized)
	defer memguard.WipeBytes(compressed)

	body, err := crypto.NewAEAD(bodyKey.Bytes())
	if err != nil {
		return nil, err
	}
	bodyNonce, ciphertext, err := body.SealRandom(l.rng, compressed, nil)
	if err != nil {
		return nil, fmt.Errorf("encrypt body: %w", err)
	}
	header.BodyNonce = bodyNonce

	var out bytes.Buffer
	err = container.WriteLegacy(&out, &models.LegacyContainer{
		Version:    version,
		Header:     header,
		Ciphertext: ciphertext,
	})
	if err != nil {
		return nil, err
	}

	l.logger.Debug().Uint32("version", version).Int("size", out.Len()).Msg("blob encrypted")
	return out.Bytes(), nil
}

func (l *legacyService) Decrypt(masterKey *crypto.MasterKey, keyfile []byte, data []byte) (*models.InnerPayload, error) {
	c, err := container.ReadLegacy(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return l.DecryptContainer(masterKey, keyfile, c)
}

// DecryptContainer verifies credentials, recovers the body key, decrypts and
// decompresses the payload and checks its hash when one is recorded.
func (l *legacyService) DecryptContainer(masterKey *crypto.MasterKey, keyfile []byte, c *models.LegacyContainer) (*models.InnerPayload, error) {
	h := &c.Header
	if err := crypto.CheckKeyfile(h.UsesKeyfile, keyfile); err != nil {
		return nil, err
	}

	wrap, err := newWrapCipher(masterKey, keyfile)
	if err != nil {
		return nil, err
	}
	if h.HasValidationTag() {
		if err = crypto.VerifyValidationTag(wrap, h.ValidationNonce, h.EncryptedValidationTag); err != nil {
			return nil, err
		}
	}

	wrapped, err := unwrapKey(wrap, h.KeyWrappingNonce, h.EncryptedFileKey)
	if err != nil {
		return nil, err
	}
	defer wrapped.Destroy()

	bodyKey := wrapped
	if h.IsHybrid() {
		bodyKey, err = l.kem.Decapsulate(wrapped.Bytes(), h.KyberEncappedSessionKey)
		if err != nil {
			return nil, err
		}
		defer bodyKey.Destroy()
	}
	if bodyKey.Len() != crypto.MasterKeySize {
		return nil, fmt.Errorf("%w: body key is %d bytes", crypto.ErrCorrupted, bodyKey.Len())
	}

	body, err := crypto.NewAEAD(bodyKey.Bytes())
	if err != nil {
		return nil, err
	}
	compressed, err := body.Open(h.BodyNonce, c.Ciphertext, nil)
	if err != nil {
		if crypto.IsAuthFailure(err) {
			return nil, fmt.Errorf("%w: body authentication failed", crypto.ErrCorrupted)
		}
		return nil, err
	}
	defer memguard.WipeBytes(compressed)

	compressor, err := crypto.NewCompressor(crypto.LevelFast, maxDecodedPayload)
	if err != nil {
		return nil, err
	}
	defer compressor.Close()
	serialized, err := compressor.Decompress(compressed)
	if err != nil {
		return nil, err
	}
	payload, err := container.DecodePayload(serialized)
	memguard.WipeBytes(serialized)
	if err != nil {
		return nil, err
	}

	if h.OriginalHash != nil {
		actual := utils.Hash(payload.Content)
		if subtle.ConstantTimeCompare(actual, h.OriginalHash) != 1 {
			payload.Wipe()
			return nil, &crypto.IntegrityError{Expected: h.OriginalHash, Actual: actual}
		}
	}

	l.logger.Debug().Uint32("version", c.Version).Msg("blob decrypted")
	return payload, nil
}

// decryptTo restores a whole-file container whose version tag has been
// consumed into outputDir and returns the written path.
func (l *legacyService) decryptTo(src io.Reader, version uint32, outputDir string, masterKey *crypto.MasterKey, keyfile []byte) (string, error) {
	c, err := container.ReadLegacyBody(src, version)
	if err != nil {
		return "", err
	}
	payload, err := l.DecryptContainer(masterKey, keyfile, c)
	if err != nil {
		return "", err
	}
	defer payload.Wipe()

	name, err := utils.SafeBaseName(payload.Filename)
	if err != nil {
		return "", fmt.Errorf("%w: %w", crypto.ErrCorrupted, err)
	}

	written, err := writeUnique(filepath.Join(outputDir, name), func(out io.Writer) error {
		_, err := out.Write(payload.Content)
		return err
	})
	if err != nil {
		return "", err
	}

	l.logger.Info().Uint32("version", version).Str("output", written).Msg("file decrypted")
	return written, nil
}
