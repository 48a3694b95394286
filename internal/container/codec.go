// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package container

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Per-field caps.
const (
	maxNonceField    = 64
	maxTagField      = 256
	maxKeyField      = 8 * 1024
	maxFilenameField = 4 * 1024
	maxHashField     = 64
)

// encoder accumulates a header in memory; headers are small.
type encoder struct {
	buf bytes.Buffer
}

func (e *encoder) putBytes(b []byte) {
	e.buf.Write(binary.LittleEndian.AppendUint32(nil, uint32(len(b))))
	e.buf.Write(b)
}

func (e *encoder) putString(s string) {
	e.putBytes([]byte(s))
}

func (e *encoder) putBool(v bool) {
	if v {
		e.buf.WriteByte(1)
	} else {
		e.buf.WriteByte(0)
	}
}

func (e *encoder) putOptional(b []byte) {
	e.putBool(b != nil)
	if b != nil {
		e.putBytes(b)
	}
}

func (e *encoder) writeTo(w io.Writer) error {
	_, err := w.Write(e.buf.Bytes())
	return err
}

// decoder reads fields straight from the container so that whatever follows
// the header stays in the reader. The first error sticks; later calls are
// no-ops.
type decoder struct {
	r   io.Reader
	err error
}

func (d *decoder) u32(what string) uint32 {
	if d.err != nil {
		return 0
	}
	var buf [4]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		d.err = wrapRead(what, err)
		return 0
	}
	return binary.LittleEndian.Uint32(buf[:])
}

func (d *decoder) bytes(what string, limit uint32) []byte {
	n := d.u32(what + " length")
	if d.err != nil {
		return nil
	}
	if n > limit {
		d.err = errCorrupted("%s length %d exceeds limit %d", what, n, limit)
		return nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.err = wrapRead(what, err)
		return nil
	}
	return b
}

// exact reads a byte field that must have exactly size bytes.
func (d *decoder) exact(what string, size int) []byte {
	b := d.bytes(what, uint32(size))
	if d.err == nil && len(b) != size {
		d.err = errCorrupted("%s is %d bytes, want %d", what, len(b), size)
		return nil
	}
	return b
}

func (d *decoder) string(what string, limit uint32) string {
	return string(d.bytes(what, limit))
}

func (d *decoder) bool(what string) bool {
	if d.err != nil {
		return false
	}
	var buf [1]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		d.err = wrapRead(what, err)
		return false
	}
	switch buf[0] {
	case 0:
		return false
	case 1:
		return true
	default:
		d.err = errCorrupted("%s: invalid boolean 0x%02x", what, buf[0])
		return false
	}
}

func (d *decoder) optional(what string, limit uint32) []byte {
	if !d.bool(what + " presence") {
		return nil
	}
	return d.bytes(what, limit)
}
