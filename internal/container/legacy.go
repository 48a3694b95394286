// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package container

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/models"
)

// MaxLegacyBody bounds the single ciphertext of a whole-file container.
const MaxLegacyBody = 1 << 31

// legacyLayout is one historical header schema. Each layout knows how to
// read and write itself and how to upgrade to the in-memory header.
type legacyLayout interface {
	encode(e *encoder)
	decode(d *decoder)
	upgrade() models.LegacyHeader
}

// hybridNoTagHeader is version 2.
type hybridNoTagHeader struct {
	keyWrappingNonce    []byte
	encryptedPrivateKey []byte
	bodyNonce           []byte
	encapsulatedKey     []byte
	usesKeyfile         bool
}

func (h *hybridNoTagHeader) encode(e *encoder) {
	e.putBytes(h.keyWrappingNonce)
	e.putBytes(h.encryptedPrivateKey)
	e.putBytes(h.bodyNonce)
	e.putBytes(h.encapsulatedKey)
	e.putBool(h.usesKeyfile)
}

func (h *hybridNoTagHeader) decode(d *decoder) {
	h.keyWrappingNonce = d.exact("key wrapping nonce", crypto.NonceSize)
	h.encryptedPrivateKey = d.bytes("encrypted private key", maxKeyField)
	h.bodyNonce = d.exact("body nonce", crypto.NonceSize)
	h.encapsulatedKey = d.bytes("encapsulated key", maxKeyField)
	h.usesKeyfile = d.bool("uses keyfile")
}

func (h *hybridNoTagHeader) upgrade() models.LegacyHeader {
	return models.LegacyHeader{
		KeyWrappingNonce:        h.keyWrappingNonce,
		EncryptedFileKey:        h.encryptedPrivateKey,
		BodyNonce:               h.bodyNonce,
		KyberEncappedSessionKey: h.encapsulatedKey,
		UsesKeyfile:             h.usesKeyfile,
	}
}

// hybridHeader is version 3.
type hybridHeader struct {
	validationNonce     []byte
	validationTag       []byte
	keyWrappingNonce    []byte
	encryptedPrivateKey []byte
	bodyNonce           []byte
	encapsulatedKey     []byte
	originalHash        []byte
	usesKeyfile         bool
}

func (h *hybridHeader) encode(e *encoder) {
	e.putBytes(h.validationNonce)
	e.putBytes(h.validationTag)
	e.putBytes(h.keyWrappingNonce)
	e.putBytes(h.encryptedPrivateKey)
	e.putBytes(h.bodyNonce)
	e.putBytes(h.encapsulatedKey)
	e.putOptional(h.originalHash)
	e.putBool(h.usesKeyfile)
}

func (h *hybridHeader) decode(d *decoder) {
	h.validationNonce = d.exact("validation nonce", crypto.NonceSize)
	h.validationTag = d.bytes("validation tag", maxTagField)
	h.keyWrappingNonce = d.exact("key wrapping nonce", crypto.NonceSize)
	h.encryptedPrivateKey = d.bytes("encrypted private key", maxKeyField)
	h.bodyNonce = d.exact("body nonce", crypto.NonceSize)
	h.encapsulatedKey = d.bytes("encapsulated key", maxKeyField)
	h.originalHash = d.optional("original hash", maxHashField)
	h.usesKeyfile = d.bool("uses keyfile")
}

func (h *hybridHeader) upgrade() models.LegacyHeader {
	return models.LegacyHeader{
		ValidationNonce:         h.validationNonce,
		EncryptedValidationTag:  h.validationTag,
		KeyWrappingNonce:        h.keyWrappingNonce,
		EncryptedFileKey:        h.encryptedPrivateKey,
		BodyNonce:               h.bodyNonce,
		KyberEncappedSessionKey: h.encapsulatedKey,
		OriginalHash:            h.originalHash,
		UsesKeyfile:             h.usesKeyfile,
	}
}

// directHeader is version 4.
type directHeader struct {
	validationNonce  []byte
	validationTag    []byte
	keyWrappingNonce []byte
	encryptedFileKey []byte
	bodyNonce        []byte
	originalHash     []byte
	usesKeyfile      bool
}

func (h *directHeader) encode(e *encoder) {
	e.putBytes(h.validationNonce)
	e.putBytes(h.validationTag)
	e.putBytes(h.keyWrappingNonce)
	e.putBytes(h.encryptedFileKey)
	e.putBytes(h.bodyNonce)
	e.putOptional(h.originalHash)
	e.putBool(h.usesKeyfile)
}

func (h *directHeader) decode(d *decoder) {
	h.validationNonce = d.exact("validation nonce", crypto.NonceSize)
	h.validationTag = d.bytes("validation tag", maxTagField)
	h.keyWrappingNonce = d.exact("key wrapping nonce", crypto.NonceSize)
	h.encryptedFileKey = d.bytes("encrypted file key", maxKeyField)
	h.bodyNonce = d.exact("body nonce", crypto.NonceSize)
	h.originalHash = d.optional("original hash", maxHashField)
	h.usesKeyfile = d.bool("uses keyfile")
}

func (h *directHeader) upgrade() models.LegacyHeader {
	return models.LegacyHeader{
		ValidationNonce:        h.validationNonce,
		EncryptedValidationTag: h.validationTag,
		KeyWrappingNonce:       h.keyWrappingNonce,
		EncryptedFileKey:       h.encryptedFileKey,
		BodyNonce:              h.bodyNonce,
		OriginalHash:           h.originalHash,
		UsesKeyfile:            h.usesKeyfile,
	}
}

// layoutFor returns an empty layout for decoding version v.
func layoutFor(v uint32) (legacyLayout, error) {
	switch v {
	case VersionHybridNoTag:
		return &hybridNoTagHeader{}, nil
	case VersionHybrid:
		return &hybridHeader{}, nil
	case VersionDirect:
		return &directHeader{}, nil
	}
	return nil, &crypto.VersionError{Version: v, Max: MaxSupportedVersion}
}

// downgrade projects an in-memory header onto the layout of version v,
// refusing headers that lack a field the layout requires.
func downgrade(v uint32, h *models.LegacyHeader) (legacyLayout, error) {
	switch v {
	case VersionHybridNoTag:
		if !h.IsHybrid() {
			return nil, fmt.Errorf("version %d requires an encapsulated key", v)
		}
		return &hybridNoTagHeader{
			keyWrappingNonce:    h.KeyWrappingNonce,
			encryptedPrivateKey: h.EncryptedFileKey,
			bodyNonce:           h.BodyNonce,
			encapsulatedKey:     h.KyberEncappedSessionKey,
			usesKeyfile:         h.UsesKeyfile,
		}, nil
	case VersionHybrid:
		if !h.IsHybrid() || !h.HasValidationTag() {
			return nil, fmt.Errorf("version %d requires an encapsulated key and a validation tag", v)
		}
		return &hybridHeader{
			validationNonce:     h.ValidationNonce,
			validationTag:       h.EncryptedValidationTag,
			keyWrappingNonce:    h.KeyWrappingNonce,
			encryptedPrivateKey: h.EncryptedFileKey,
			bodyNonce:           h.BodyNonce,
			encapsulatedKey:     h.KyberEncappedSessionKey,
			originalHash:        h.OriginalHash,
			usesKeyfile:         h.UsesKeyfile,
		}, nil
	case VersionDirect:
		if h.IsHybrid() || !h.HasValidationTag() {
			return nil, fmt.Errorf("version %d requires a validation tag and no encapsulated key", v)
		}
		return &directHeader{
			validationNonce:  h.ValidationNonce,
			validationTag:    h.EncryptedValidationTag,
			keyWrappingNonce: h.KeyWrappingNonce,
			encryptedFileKey: h.EncryptedFileKey,
			bodyNonce:        h.BodyNonce,
			originalHash:     h.OriginalHash,
			usesKeyfile:      h.UsesKeyfile,
		}, nil
	}
	return nil, &crypto.VersionError{Version: v, Max: MaxSupportedVersion}
}

// WriteLegacy serializes a whole-file container in the layout named by
// c.Version.
func WriteLegacy(w io.Writer, c *models.LegacyContainer) error {
	layout, err := downgrade(c.Version, &c.Header)
	if err != nil {
		return err
	}
	if len(c.Ciphertext) > MaxLegacyBody {
		return fmt.Errorf("ciphertext of %d bytes exceeds limit %d", len(c.Ciphertext), MaxLegacyBody)
	}

	if err := WriteVersion(w, c.Version); err != nil {
		return err
	}

	var e encoder
	layout.encode(&e)
	e.buf.Write(binary.LittleEndian.AppendUint64(nil, uint64(len(c.Ciphertext))))
	if err := e.writeTo(w); err != nil {
		return fmt.Errorf("write legacy header: %w", err)
	}
	if _, err := w.Write(c.Ciphertext); err != nil {
		return fmt.Errorf("write legacy body: %w", err)
	}
	return nil
}

// ReadLegacy parses a whole-file container, version tag included, and
// upgrades its header. Trailing bytes after the body are corruption.
func ReadLegacy(r io.Reader) (*models.LegacyContainer, error) {
	v, err := ReadVersion(r)
	if err != nil {
		return nil, err
	}
	return ReadLegacyBody(r, v)
}

// ReadLegacyBody parses a whole-file container whose version tag v has
// already been consumed.
func ReadLegacyBody(r io.Reader, v uint32) (*models.LegacyContainer, error) {
	layout, err := layoutFor(v)
	if err != nil {
		return nil, err
	}

	d := decoder{r: r}
	layout.decode(&d)
	if d.err != nil {
		return nil, d.err
	}

	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, wrapRead("body length", err)
	}
	size := binary.LittleEndian.Uint64(lenBuf[:])
	if size > MaxLegacyBody {
		return nil, errCorrupted("body length %d exceeds limit %d", size, MaxLegacyBody)
	}

	body, err := io.ReadAll(io.LimitReader(r, int64(size)))
	if err != nil {
		return nil, wrapRead("body", err)
	}
	if uint64(len(body)) != size {
		return nil, errCorrupted("truncated body: %d of %d bytes", len(body), size)
	}

	var probe [1]byte
	if n, _ := io.ReadFull(r, probe[:]); n > 0 {
		return nil, errCorrupted("trailing data after body")
	}

	header := layout.upgrade()
	if header.OriginalHash != nil && len(header.OriginalHash) != sha256.Size {
		return nil, errCorrupted("original hash is %d bytes, want %d", len(header.OriginalHash), sha256.Size)
	}

	return &models.LegacyContainer{
		Version:    v,
		Header:     header,
		Ciphertext: body,
	}, nil
}
