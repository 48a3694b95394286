// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber1024"
)

// KEM is the Kyber-1024 key encapsulation used by hybrid containers.
type KEM struct {
	scheme kem.Scheme
}

// NewKEM returns the Kyber-1024 scheme.
func NewKEM() *KEM {
	return &KEM{scheme: kyber1024.Scheme()}
}

// GenerateKeyPair derives an ephemeral key pair from rng. The packed private
// key is returned in a secure buffer.
func (k *KEM) GenerateKeyPair(rng io.Reader) (publicKey []byte, privateKey *SecureBuffer, err error) {
	seed, err := RandomBytes(rng, k.scheme.SeedSize())
	if err != nil {
		return nil, nil, fmt.Errorf("generate kem seed: %w", err)
	}
	defer memguard.WipeBytes(seed)

	pk, sk := k.scheme.DeriveKeyPair(seed)

	publicKey, err = pk.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("marshal kem public key: %w", err)
	}
	skBytes, err := sk.MarshalBinary()
	if err != nil {
		return nil, nil, fmt.Errorf("marshal kem private key: %w", err)
	}
	return publicKey, NewSecureBufferFrom(skBytes), nil
}

// Encapsulate produces a ciphertext and shared secret for publicKey.
func (k *KEM) Encapsulate(rng io.Reader, publicKey []byte) (ciphertext []byte, shared *SecureBuffer, err error) {
	pk, err := k.scheme.UnmarshalBinaryPublicKey(publicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("unmarshal kem public key: %w", err)
	}

	seed, err := RandomBytes(rng, k.scheme.EncapsulationSeedSize())
	if err != nil {
		return nil, nil, fmt.Errorf("generate encapsulation seed: %w", err)
	}
	defer memguard.WipeBytes(seed)

	ct, ss, err := k.scheme.EncapsulateDeterministically(pk, seed)
	if err != nil {
		return nil, nil, fmt.Errorf("encapsulate: %w", err)
	}
	return ct, NewSecureBufferFrom(ss), nil
}

// Decapsulate recovers the shared secret. Kyber decapsulation never fails on
// a well-formed ciphertext (a wrong key yields a wrong secret), so only size
// problems are reported, as corruption.
func (k *KEM) Decapsulate(privateKey, ciphertext []byte) (*SecureBuffer, error) {
	if len(privateKey) != k.scheme.PrivateKeySize() {
		return nil, corrupted("kem private key is %d bytes, want %d", len(privateKey), k.scheme.PrivateKeySize())
	}
	if len(ciphertext) != k.scheme.CiphertextSize() {
		return nil, corrupted("kem ciphertext is %d bytes, want %d", len(ciphertext), k.scheme.CiphertextSize())
	}

	sk, err := k.scheme.UnmarshalBinaryPrivateKey(privateKey)
	if err != nil {
		return nil, corrupted("unmarshal kem private key: %v", err)
	}
	ss, err := k.scheme.Decapsulate(sk, ciphertext)
	if err != nil {
		return nil, corrupted("decapsulate: %v", err)
	}
	return NewSecureBufferFrom(ss), nil
}

// CiphertextSize is the encapsulation size in bytes.
func (k *KEM) CiphertextSize() int {
	return k.scheme.CiphertextSize()
}

// PrivateKeySize is the packed private key size in bytes.
func (k *KEM) PrivateKeySize() int {
	return k.scheme.PrivateKeySize()
}
