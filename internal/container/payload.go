// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package container

import (
	"bytes"
	"fmt"

	"github.com/MKhiriev/qre-core/models"
)

// EncodePayload serializes the plaintext of a whole-file container as
// [u32 len][filename][u32 len][content].
func EncodePayload(p *models.InnerPayload) ([]byte, error) {
	if len(p.Filename) > maxFilenameField {
		return nil, fmt.Errorf("filename of %d bytes exceeds limit %d", len(p.Filename), maxFilenameField)
	}
	if len(p.Content) > MaxLegacyBody {
		return nil, fmt.Errorf("content of %d bytes exceeds limit %d", len(p.Content), MaxLegacyBody)
	}

	var e encoder
	e.buf.Grow(8 + len(p.Filename) + len(p.Content))
	e.putString(p.Filename)
	e.putBytes(p.Content)
	return e.buf.Bytes(), nil
}

// DecodePayload parses the output of EncodePayload. Trailing bytes are
// corruption.
func DecodePayload(b []byte) (*models.InnerPayload, error) {
	r := bytes.NewReader(b)
	d := decoder{r: r}
	p := &models.InnerPayload{
		Filename: d.string("payload filename", maxFilenameField),
		Content:  d.bytes("payload content", MaxLegacyBody),
	}
	if d.err != nil {
		return nil, d.err
	}
	if r.Len() != 0 {
		p.Wipe()
		return nil, errCorrupted("%d trailing bytes after payload", r.Len())
	}
	return p, nil
}
