// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"crypto/subtle"
	"fmt"
	"runtime"
	"sync"

	"github.com/awnumar/memguard"
)

// MasterKeySize is the size of the vault Master Key and every derived key.
const MasterKeySize = 32

// SecureBuffer owns a byte slice holding secret material. Destroy overwrites
// the backing array; a cleanup registered with the runtime does the same if
// the buffer becomes unreachable without being destroyed.
//
// The zero value is an empty buffer.
type SecureBuffer struct {
	mu        sync.Mutex
	data      []byte
	destroyed bool
}

// NewSecureBuffer allocates a zeroed buffer of n bytes.
func NewSecureBuffer(n int) *SecureBuffer {
	b := &SecureBuffer{data: make([]byte, n)}
	runtime.AddCleanup(b, memguard.WipeBytes, b.data)
	return b
}

// NewSecureBufferFrom copies src into a new buffer and wipes src.
func NewSecureBufferFrom(src []byte) *SecureBuffer {
	b := NewSecureBuffer(len(src))
	copy(b.data, src)
	memguard.WipeBytes(src)
	return b
}

// Bytes returns the underlying slice. It must not be retained after Destroy.
func (b *SecureBuffer) Bytes() []byte {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return nil
	}
	return b.data
}

// Len returns the buffer size.
func (b *SecureBuffer) Len() int {
	return len(b.Bytes())
}

// Destroy wipes the buffer. It is safe to call more than once.
func (b *SecureBuffer) Destroy() {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	memguard.WipeBytes(b.data)
	b.destroyed = true
}

// MasterKey is the 32-byte vault secret. It exists only in process memory
// while a session is unlocked and is never serialized.
type MasterKey struct {
	buf *SecureBuffer
}

// NewMasterKey takes ownership of key material: the bytes are copied into a
// secure buffer and the source slice is wiped.
func NewMasterKey(key []byte) (*MasterKey, error) {
	if len(key) != MasterKeySize {
		memguard.WipeBytes(key)
		return nil, fmt.Errorf("%w: master key must be %d bytes, got %d", ErrInvalidKeyLength, MasterKeySize, len(key))
	}
	return &MasterKey{buf: NewSecureBufferFrom(key)}, nil
}

// Bytes exposes the key for cipher construction.
func (k *MasterKey) Bytes() []byte {
	if k == nil {
		return nil
	}
	return k.buf.Bytes()
}

// Equal compares two keys in constant time.
func (k *MasterKey) Equal(other *MasterKey) bool {
	a, b := k.Bytes(), other.Bytes()
	if len(a) != MasterKeySize || len(b) != MasterKeySize {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Clone returns an independent copy, for handing the key to a worker that
// may outlive the caller's session.
func (k *MasterKey) Clone() *MasterKey {
	src := k.Bytes()
	dup := make([]byte, len(src))
	copy(dup, src)
	clone, err := NewMasterKey(dup)
	if err != nil {
		return nil
	}
	return clone
}

// Destroy wipes the key.
func (k *MasterKey) Destroy() {
	if k == nil {
		return
	}
	k.buf.Destroy()
}
