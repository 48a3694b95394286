// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/MKhiriev/qre-core/models"
)

// zstd levels used by the compression modes.
const (
	LevelStore   = 0
	LevelFast    = 1
	LevelDefault = 3
	LevelExtreme = 19
	maxZstdLevel = 22
)

// precompressed lists extensions whose content rarely shrinks further.
var precompressed = map[string]struct{}{
	"jpg": {}, "jpeg": {}, "png": {}, "gif": {}, "webp": {}, "heic": {},
	"mp4": {}, "mkv": {}, "mov": {}, "avi": {}, "webm": {},
	"mp3": {}, "aac": {}, "flac": {}, "ogg": {}, "m4a": {},
	"zip": {}, "rar": {}, "7z": {}, "gz": {}, "xz": {}, "bz2": {}, "zst": {},
	"pdf": {}, "docx": {}, "xlsx": {}, "pptx": {}, "qre": {},
}

// CompressionLevel maps a compression mode to a zstd level for filename.
// Unknown modes behave like auto.
func CompressionLevel(mode models.CompressionMode, filename string) int {
	switch mode {
	case models.CompressionStore:
		return LevelStore
	case models.CompressionExtreme:
		return LevelExtreme
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if _, ok := precompressed[ext]; ok {
		return LevelFast
	}
	return LevelDefault
}

// Compressor compresses independent blocks with zstd. It is not safe for
// concurrent use; each codec run owns one.
type Compressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewCompressor creates a compressor for the given zstd level (0..22) that
// refuses to inflate any block beyond maxDecoded bytes.
func NewCompressor(level int, maxDecoded uint64) (*Compressor, error) {
	if level < 0 || level > maxZstdLevel {
		return nil, fmt.Errorf("compression level %d out of range [0, %d]", level, maxZstdLevel)
	}

	enc, err := zstd.NewWriter(nil,
		zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)),
		zstd.WithEncoderConcurrency(1),
		zstd.WithZeroFrames(true),
	)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	dec, err := zstd.NewReader(nil,
		zstd.WithDecoderConcurrency(1),
		zstd.WithDecoderMaxMemory(maxDecoded),
	)
	if err != nil {
		_ = enc.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &Compressor{enc: enc, dec: dec}, nil
}

// Compress returns the zstd frame for src.
func (c *Compressor) Compress(src []byte) []byte {
	return c.enc.EncodeAll(src, nil)
}

// Decompress inflates one frame. Malformed or oversized input is corruption.
func (c *Compressor) Decompress(src []byte) ([]byte, error) {
	out, err := c.dec.DecodeAll(src, nil)
	if err != nil {
		return nil, corrupted("decompress: %v", err)
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// Close releases the encoder and decoder.
func (c *Compressor) Close() {
	_ = c.enc.Close()
	c.dec.Close()
}
