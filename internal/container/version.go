// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package container

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/MKhiriev/qre-core/internal/crypto"
)

// Format versions.
const (
	// VersionHybridNoTag is the first hybrid layout: Kyber-protected body,
	// no validation tag and no integrity hash.
	VersionHybridNoTag uint32 = 2
	// VersionHybrid adds a validation tag and a SHA-256 of the plaintext.
	VersionHybrid uint32 = 3
	// VersionDirect wraps a random File Key directly, without encapsulation.
	VersionDirect uint32 = 4
	// VersionStream is the chunked streaming layout.
	VersionStream uint32 = 5

	MinSupportedVersion = VersionHybridNoTag
	MaxSupportedVersion = VersionStream
)

// CheckVersion fails closed on any version this build does not understand.
func CheckVersion(v uint32) error {
	if v < MinSupportedVersion || v > MaxSupportedVersion {
		return &crypto.VersionError{Version: v, Max: MaxSupportedVersion}
	}
	return nil
}

// IsLegacy reports whether v is a whole-file layout.
func IsLegacy(v uint32) bool {
	return v >= VersionHybridNoTag && v <= VersionDirect
}

// ReadVersion reads and checks the version tag. Nothing past the tag is
// consumed, so an unsupported container is rejected without touching its
// body.
func ReadVersion(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, wrapRead("version", err)
	}
	v := binary.LittleEndian.Uint32(buf[:])
	if err := CheckVersion(v); err != nil {
		return v, err
	}
	return v, nil
}

// WriteVersion writes the version tag.
func WriteVersion(w io.Writer, v uint32) error {
	if err := CheckVersion(v); err != nil {
		return err
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return fmt.Errorf("write version: %w", err)
	}
	return nil
}
