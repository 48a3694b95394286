// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package container

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/models"
)

const (
	// ChunkSize is the plaintext size of every chunk but the last.
	ChunkSize = 1 << 20

	// MaxChunkCiphertext bounds a single record: a chunk that did not
	// compress at all, plus zstd framing overhead and the AEAD tag.
	MaxChunkCiphertext = ChunkSize + ChunkSize/256 + 512 + crypto.TagSize
)

// WriteStreamHeader writes the version tag and the streaming header.
func WriteStreamHeader(w io.Writer, h *models.StreamHeader) error {
	if err := WriteVersion(w, VersionStream); err != nil {
		return err
	}

	var e encoder
	e.putBytes(h.ValidationNonce)
	e.putBytes(h.EncryptedValidationTag)
	e.putBytes(h.KeyWrappingNonce)
	e.putBytes(h.EncryptedFileKey)
	e.putBytes(h.BaseNonce)
	e.putString(h.OriginalFilename)
	e.putBool(h.UsesKeyfile)

	if err := e.writeTo(w); err != nil {
		return fmt.Errorf("write stream header: %w", err)
	}
	return nil
}

// ReadStreamHeader reads the header of a streaming container whose version
// tag has already been consumed.
func ReadStreamHeader(r io.Reader) (*models.StreamHeader, error) {
	d := decoder{r: r}
	h := &models.StreamHeader{
		ValidationNonce:        d.exact("validation nonce", crypto.NonceSize),
		EncryptedValidationTag: d.bytes("validation tag", maxTagField),
		KeyWrappingNonce:       d.exact("key wrapping nonce", crypto.NonceSize),
		EncryptedFileKey:       d.bytes("encrypted file key", maxKeyField),
		BaseNonce:              d.exact("base nonce", crypto.NonceSize),
		OriginalFilename:       d.string("original filename", maxFilenameField),
		UsesKeyfile:            d.bool("uses keyfile"),
	}
	if d.err != nil {
		return nil, d.err
	}
	return h, nil
}

// WriteChunk writes one [u32 LE length][ciphertext] record.
func WriteChunk(w io.Writer, ciphertext []byte) error {
	if len(ciphertext) > MaxChunkCiphertext {
		return fmt.Errorf("chunk ciphertext of %d bytes exceeds limit %d", len(ciphertext), MaxChunkCiphertext)
	}

	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(ciphertext)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("write chunk length: %w", err)
	}
	if _, err := w.Write(ciphertext); err != nil {
		return fmt.Errorf("write chunk: %w", err)
	}
	return nil
}

// ReadChunk reads the next record into buf (grown as needed) and returns the
// ciphertext. It returns io.EOF only at a clean record boundary; a stream
// that ends inside a record is corrupted.
func ReadChunk(r io.Reader, buf []byte) ([]byte, error) {
	var lenBuf [4]byte
	n, err := io.ReadFull(r, lenBuf[:])
	switch {
	case errors.Is(err, io.EOF) && n == 0:
		return nil, io.EOF
	case err != nil:
		return nil, wrapRead("chunk length", err)
	}

	size := binary.LittleEndian.Uint32(lenBuf[:])
	if size > MaxChunkCiphertext {
		return nil, errCorrupted("chunk length %d exceeds limit %d", size, MaxChunkCiphertext)
	}
	if size < crypto.TagSize {
		return nil, errCorrupted("chunk length %d shorter than authentication tag", size)
	}

	if cap(buf) < int(size) {
		buf = make([]byte, size)
	}
	buf = buf[:size]
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, wrapRead("chunk", err)
	}
	return buf, nil
}
