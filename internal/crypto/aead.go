// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
	"fmt"
	"io"
)

const (
	// NonceSize is the AES-GCM nonce size (96 bits).
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag size.
	TagSize = 16
)

// errOpen is returned by Open for any authentication failure. Callers map it
// to the error class that fits their context.
var errOpen = errors.New("message authentication failed")

// AEAD is an AES-256-GCM cipher bound to one key.
type AEAD struct {
	gcm cipher.AEAD
}

// NewAEAD builds an AES-256-GCM cipher. key must be exactly 32 bytes.
func NewAEAD(key []byte) (*AEAD, error) {
	if len(key) != MasterKeySize {
		return nil, fmt.Errorf("%w: AES-256 key must be %d bytes, got %d", ErrInvalidKeyLength, MasterKeySize, len(key))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create gcm: %w", err)
	}

	return &AEAD{gcm: gcm}, nil
}

// Seal encrypts plaintext under nonce, authenticating aad.
func (a *AEAD) Seal(nonce, plaintext, aad []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, fmt.Errorf("nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	return a.gcm.Seal(nil, nonce, plaintext, aad), nil
}

// SealRandom draws a fresh nonce from rng and encrypts plaintext. It returns
// the nonce and the ciphertext separately, matching the header layouts.
func (a *AEAD) SealRandom(rng io.Reader, plaintext, aad []byte) (nonce, ciphertext []byte, err error) {
	nonce, err = RandomBytes(rng, NonceSize)
	if err != nil {
		return nil, nil, fmt.Errorf("generate nonce: %w", err)
	}
	ciphertext, err = a.Seal(nonce, plaintext, aad)
	if err != nil {
		return nil, nil, err
	}
	return nonce, ciphertext, nil
}

// Open decrypts and authenticates ciphertext. A nonce of the wrong size is a
// format problem and is reported as corruption; everything else is an
// authentication failure that the caller classifies.
func (a *AEAD) Open(nonce, ciphertext, aad []byte) ([]byte, error) {
	if len(nonce) != NonceSize {
		return nil, corrupted("nonce must be %d bytes, got %d", NonceSize, len(nonce))
	}
	if len(ciphertext) < TagSize {
		return nil, corrupted("ciphertext shorter than authentication tag")
	}

	plaintext, err := a.gcm.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, errOpen
	}
	return plaintext, nil
}

// IsAuthFailure reports whether err came from a failed authentication tag
// check in Open.
func IsAuthFailure(err error) bool {
	return errors.Is(err, errOpen)
}

// RandomBytes reads n bytes from rng.
func RandomBytes(rng io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(rng, b); err != nil {
		return nil, err
	}
	return b, nil
}
