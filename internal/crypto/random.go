// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

// SeedSize is the size of per-file seeds and of the OS randomness mixed into
// every seeded entropy source.
const SeedSize = 32

var fileSeedInfo = []byte("QRE_FILE_SEED")

// DeriveFileSeed expands caller entropy into the seed of the index-th file in
// a batch. Distinct indexes always give distinct seeds, so a batch that
// shares one entropy pool never reuses a key or nonce stream.
func DeriveFileSeed(entropy []byte, index uint64) ([]byte, error) {
	info := make([]byte, 0, len(fileSeedInfo)+8)
	info = append(info, fileSeedInfo...)
	info = binary.LittleEndian.AppendUint64(info, index)

	seed := make([]byte, SeedSize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, entropy, nil, info), seed); err != nil {
		return nil, fmt.Errorf("derive file seed: %w", err)
	}
	return seed, nil
}

// NewEntropySource returns the random source for one encryption. Without a
// seed it is the OS CSPRNG. With a seed it is a ChaCha20 keystream keyed by
// SHA-256(osRandom ‖ seed): caller entropy is added to, never substituted
// for, system randomness.
func NewEntropySource(seed []byte) (io.Reader, error) {
	if len(seed) == 0 {
		return rand.Reader, nil
	}

	osRandom, err := RandomBytes(rand.Reader, SeedSize)
	if err != nil {
		return nil, fmt.Errorf("read system entropy: %w", err)
	}
	h := sha256.New()
	h.Write(osRandom)
	h.Write(seed)
	key := h.Sum(nil)
	defer memguard.WipeBytes(key)
	memguard.WipeBytes(osRandom)

	nonce := make([]byte, chacha20.NonceSize)
	stream, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, fmt.Errorf("create entropy stream: %w", err)
	}
	return &keystreamReader{stream: stream}, nil
}

type keystreamReader struct {
	stream *chacha20.Cipher
}

func (r *keystreamReader) Read(p []byte) (int, error) {
	clear(p)
	r.stream.XORKeyStream(p, p)
	return len(p), nil
}
