// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	// SaltSize is the size of freshly generated salts.
	SaltSize = 16
	// minSaltSize is the smallest decoded salt accepted from a store.
	minSaltSize = 8

	// maxKDFMemory caps the memory cost (KiB) read from a store so that a
	// tampered file cannot request an unbounded allocation.
	maxKDFMemory     = 4 * 1024 * 1024
	maxKDFIterations = 1 << 10
	maxKDFThreads    = 255
)

// KDFParams are the Argon2id tuning parameters.
type KDFParams struct {
	// Memory cost in KiB.
	Memory uint32
	// Iterations is the time cost.
	Iterations uint32
	// Parallelism is the number of lanes.
	Parallelism uint32
}

// DefaultKDFParams returns the parameters used for new vaults:
//   - memory cost: 19 MiB
//   - time cost:   2 iterations
//   - parallelism: 1 lane
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Memory:      19456,
		Iterations:  2,
		Parallelism: 1,
	}
}

// Validate rejects parameters Argon2id cannot honor as given. It never
// adjusts them: a store asking for weaker parameters than it can run with
// fails closed.
func (p KDFParams) Validate() error {
	switch {
	case p.Iterations == 0 || p.Iterations > maxKDFIterations:
		return fmt.Errorf("%w: iterations %d out of range [1, %d]", ErrInvalidKDFParams, p.Iterations, maxKDFIterations)
	case p.Parallelism == 0 || p.Parallelism > maxKDFThreads:
		return fmt.Errorf("%w: parallelism %d out of range [1, %d]", ErrInvalidKDFParams, p.Parallelism, maxKDFThreads)
	case p.Memory < 8*p.Parallelism:
		return fmt.Errorf("%w: memory %d KiB below minimum %d KiB for %d lanes", ErrInvalidKDFParams, p.Memory, 8*p.Parallelism, p.Parallelism)
	case p.Memory > maxKDFMemory:
		return fmt.Errorf("%w: memory %d KiB exceeds maximum %d KiB", ErrInvalidKDFParams, p.Memory, maxKDFMemory)
	}
	return nil
}

// argon2KDF is the private implementation of [KeyDeriver].
type argon2KDF struct{}

// NewKDF constructs the Argon2id [KeyDeriver].
func NewKDF() KeyDeriver {
	return &argon2KDF{}
}

// GenerateSalt implements [KeyDeriver]. It reads SaltSize bytes from the OS
// CSPRNG and returns them base64 encoded.
func (k *argon2KDF) GenerateSalt() (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return base64.StdEncoding.EncodeToString(salt), nil
}

// Derive implements [KeyDeriver]. It decodes salt, validates params and
// runs Argon2id over secret. Identical inputs always produce the same key.
func (k *argon2KDF) Derive(secret []byte, salt string, params KDFParams) (*SecureBuffer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	saltBytes, err := DecodeSalt(salt)
	if err != nil {
		return nil, err
	}

	key := argon2.IDKey(secret, saltBytes, params.Iterations, params.Memory, uint8(params.Parallelism), MasterKeySize)
	return NewSecureBufferFrom(key), nil
}

// DecodeSalt decodes a stored salt. Padded standard base64 is canonical;
// unpadded input (as written by PHC-style salt strings) is accepted too.
func DecodeSalt(salt string) ([]byte, error) {
	salt = strings.TrimSpace(salt)
	if salt == "" {
		return nil, fmt.Errorf("%w: empty", ErrMalformedSalt)
	}

	decoded, err := base64.StdEncoding.DecodeString(salt)
	if err != nil {
		decoded, err = base64.RawStdEncoding.DecodeString(salt)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSalt, err)
		}
	}

	if len(decoded) < minSaltSize {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedSalt, len(decoded), minSaltSize)
	}
	return decoded, nil
}
