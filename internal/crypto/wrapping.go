// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"fmt"
	"io"
)

// Domain-separation tags for the wrapping-key hash.
var (
	tagNoKeyfile = []byte("NO_KEYFILE")
	tagKeyfile   = []byte("KEYFILE_MIX")
)

// validationMagic is the fixed plaintext of every validation tag.
var validationMagic = []byte("QRE_VALID")

// DeriveWrappingKey mixes the Master Key with optional keyfile material:
//
//	SHA-256(masterKey ‖ "NO_KEYFILE")
//	SHA-256(masterKey ‖ "KEYFILE_MIX" ‖ keyfile)
//
// This is a single fast hash on purpose: the input is already a 256-bit
// random key, not a human secret. An empty keyfile counts as no keyfile.
func DeriveWrappingKey(masterKey *MasterKey, keyfile []byte) (*SecureBuffer, error) {
	mk := masterKey.Bytes()
	if len(mk) != MasterKeySize {
		return nil, fmt.Errorf("%w: master key unavailable", ErrInvalidKeyLength)
	}

	h := sha256.New()
	h.Write(mk)
	if len(keyfile) > 0 {
		h.Write(tagKeyfile)
		h.Write(keyfile)
	} else {
		h.Write(tagNoKeyfile)
	}
	return NewSecureBufferFrom(h.Sum(nil)), nil
}

// CheckKeyfile compares what a container header says about keyfile use with
// what the caller supplied.
func CheckKeyfile(usesKeyfile bool, keyfile []byte) error {
	switch {
	case usesKeyfile && len(keyfile) == 0:
		return ErrKeyfileRequired
	case !usesKeyfile && len(keyfile) > 0:
		return ErrKeyfileNotExpected
	}
	return nil
}

// NewValidationTag encrypts the validation magic under the wrapping cipher
// with a fresh nonce.
func NewValidationTag(wrap *AEAD, rng io.Reader) (nonce, tag []byte, err error) {
	nonce, tag, err = wrap.SealRandom(rng, validationMagic, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create validation tag: %w", err)
	}
	return nonce, tag, nil
}

// VerifyValidationTag checks a header's validation tag. Both a failed
// authentication and an unexpected plaintext are reported as
// [ErrIncorrectCredentials].
func VerifyValidationTag(wrap *AEAD, nonce, tag []byte) error {
	plain, err := wrap.Open(nonce, tag, nil)
	if err != nil {
		if IsAuthFailure(err) {
			return ErrIncorrectCredentials
		}
		return err
	}
	if subtle.ConstantTimeCompare(plain, validationMagic) != 1 {
		return ErrIncorrectCredentials
	}
	return nil
}

// ChunkNonce derives the nonce of chunk index from the base nonce by XOR-ing
// the little-endian index into bytes 4..12. Bytes 0..4 are never touched.
func ChunkNonce(base [NonceSize]byte, index uint64) [NonceSize]byte {
	var idx [8]byte
	binary.LittleEndian.PutUint64(idx[:], index)

	nonce := base
	for i := range idx {
		nonce[4+i] ^= idx[i]
	}
	return nonce
}

// ChunkAAD is the associated data bound into chunk index of a stream:
// "<filename>:<index>".
func ChunkAAD(filename string, index uint64) []byte {
	return fmt.Appendf(nil, "%s:%d", filename, index)
}
