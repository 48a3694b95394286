// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"encoding/hex"
	"errors"
	"fmt"
)

// Error taxonomy. Every error returned by this module unwraps to exactly one
// of the class sentinels below so that callers can tell "check your password"
// apart from "the file is damaged".
var (
	// ErrIncorrectCredentials is the single credential error. It never says
	// which check failed.
	ErrIncorrectCredentials = errors.New("incorrect password or keyfile")

	// ErrCorrupted reports malformed headers, truncated streams, implausible
	// lengths and unreadable stores.
	ErrCorrupted = errors.New("data is corrupted")

	// ErrIntegrity reports a plaintext hash mismatch after otherwise
	// successful decryption.
	ErrIntegrity = errors.New("integrity check failed")

	// ErrUnsupportedVersion reports a container or store newer than this build.
	ErrUnsupportedVersion = errors.New("unsupported format version")

	// ErrKeyfileRequired and ErrKeyfileNotExpected are capability errors.
	ErrKeyfileRequired    = errors.New("keyfile required")
	ErrKeyfileNotExpected = errors.New("container was not encrypted with a keyfile")

	// ErrInvalidKDFParams reports unusable Argon2id parameters.
	ErrInvalidKDFParams = errors.New("invalid KDF parameters")

	// ErrMalformedSalt reports a salt that is not valid base64 or too short.
	ErrMalformedSalt = errors.New("malformed salt")

	// ErrInvalidKeyLength reports key material of the wrong size.
	ErrInvalidKeyLength = errors.New("invalid key length")
)

// ChunkError identifies the chunk of a streaming container that failed.
type ChunkError struct {
	Index uint64
	Err   error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d: %v", e.Index, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// VersionError reports a format version this build cannot read.
type VersionError struct {
	Version uint32
	Max     uint32
}

func (e *VersionError) Error() string {
	if e.Version > e.Max {
		return fmt.Sprintf("format version %d is newer than supported version %d", e.Version, e.Max)
	}
	return fmt.Sprintf("format version %d is not supported", e.Version)
}

func (e *VersionError) Unwrap() error {
	return ErrUnsupportedVersion
}

// IntegrityError reports a hash mismatch between the recorded and recovered
// plaintext.
type IntegrityError struct {
	Expected []byte
	Actual   []byte
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed: expected %s, got %s",
		hex.EncodeToString(e.Expected), hex.EncodeToString(e.Actual))
}

func (e *IntegrityError) Unwrap() error {
	return ErrIntegrity
}

// corrupted wraps a descriptive message with ErrCorrupted.
func corrupted(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorrupted, fmt.Sprintf(format, args...))
}
