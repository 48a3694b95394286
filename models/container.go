package models

import "github.com/awnumar/memguard"

// StreamHeader is the header of a streaming (version 5) container. It is
// followed on disk by a sequence of [u32 length][chunk ciphertext] records.
type StreamHeader struct {
	// ValidationNonce and EncryptedValidationTag prove the caller derived the
	// correct wrapping key before any chunk is touched.
	ValidationNonce        []byte
	EncryptedValidationTag []byte

	// KeyWrappingNonce and EncryptedFileKey hold the per-file key, wrapped
	// under the wrapping key.
	KeyWrappingNonce []byte
	EncryptedFileKey []byte

	// BaseNonce is combined with the chunk index to produce each chunk nonce.
	BaseNonce []byte

	// OriginalFilename is bound into every chunk's associated data.
	OriginalFilename string

	// UsesKeyfile records whether a keyfile was mixed into the wrapping key.
	UsesKeyfile bool
}

// LegacyHeader is the current in-memory shape of a whole-file container
// header. Every historical on-disk layout (versions 2, 3 and 4) is upgraded to
// this struct at load time; fields a layout did not carry are left nil.
type LegacyHeader struct {
	// Nil for version 2, which predates validation tags.
	ValidationNonce        []byte
	EncryptedValidationTag []byte

	// KeyWrappingNonce and EncryptedFileKey hold the wrapped key material: the
	// Kyber private key for hybrid layouts (2, 3) or the symmetric File Key for
	// direct layouts (4).
	KeyWrappingNonce []byte
	EncryptedFileKey []byte

	// BodyNonce is the AEAD nonce of the single ciphertext body.
	BodyNonce []byte

	// KyberEncappedSessionKey is the KEM encapsulation of the body key. Nil for
	// direct layouts.
	KyberEncappedSessionKey []byte

	// OriginalHash is the SHA-256 of the plaintext. Nil means "absent, skip
	// the integrity check".
	OriginalHash []byte

	UsesKeyfile bool
}

// HasValidationTag reports whether the header carries a validation tag.
func (h *LegacyHeader) HasValidationTag() bool {
	return len(h.EncryptedValidationTag) > 0
}

// IsHybrid reports whether the body key is protected by key encapsulation.
func (h *LegacyHeader) IsHybrid() bool {
	return len(h.KyberEncappedSessionKey) > 0
}

// LegacyContainer is a parsed whole-file container.
type LegacyContainer struct {
	// Version is the on-disk layout the container was read from (or will be
	// written as).
	Version    uint32
	Header     LegacyHeader
	Ciphertext []byte
}

// InnerPayload is the decrypted content of a whole-file container. It lives
// only for the duration of an encrypt/decrypt call; callers should Wipe it
// once the content has been consumed.
type InnerPayload struct {
	// Filename is not secret and is not wiped.
	Filename string
	Content  []byte
}

// Wipe overwrites Content in place.
func (p *InnerPayload) Wipe() {
	if p == nil {
		return
	}
	memguard.WipeBytes(p.Content)
}
