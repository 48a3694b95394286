package utils

import (
	"crypto/sha256"
	"fmt"
	"hash"
	"io"
	"os"
	"sync"
)

// hasherPool is a package-level pool of reusable SHA-256 hash instances.
var hasherPool = sync.Pool{
	New: func() any {
		return sha256.New()
	},
}

// Hash computes the SHA-256 digest of data using a hasher pulled from the
// pool.
//
// Behavior:
//   - Retrieves a hash.Hash instance from sync.Pool
//   - Resets it, writes the data, computes the sum
//   - Resets again and returns it to the pool
//
// Example usage:
//
//	digest := utils.Hash(plaintext)
func Hash(data []byte) []byte {
	h := hasherPool.Get().(hash.Hash)
	h.Reset()

	h.Write(data)
	sum := h.Sum(nil)

	h.Reset()
	hasherPool.Put(h)

	return sum
}

// HashReader streams r through SHA-256. Keyfiles can be arbitrarily large,
// so they are never read into memory whole.
func HashReader(r io.Reader) ([]byte, error) {
	h := hasherPool.Get().(hash.Hash)
	h.Reset()
	defer func() {
		h.Reset()
		hasherPool.Put(h)
	}()

	if _, err := io.Copy(h, r); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// KeyfileDigest returns the SHA-256 of the keyfile at path. The digest, not
// the raw file, is what gets mixed into the wrapping key.
func KeyfileDigest(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keyfile: %w", err)
	}
	defer f.Close()

	sum, err := HashReader(f)
	if err != nil {
		return nil, fmt.Errorf("read keyfile: %w", err)
	}
	return sum, nil
}
