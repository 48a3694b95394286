package store

import "errors"

// Sentinel errors returned by keychain storage. Callers should use
// [errors.Is] to match against these values. A keychain that exists but
// cannot be parsed is reported as crypto.ErrCorrupted instead.
var (
	// ErrKeychainExists is returned by Create when a keychain is already
	// present at the target path.
	ErrKeychainExists = errors.New("keychain already exists")

	// ErrKeychainNotFound is returned by Load when no keychain exists at the
	// target path.
	ErrKeychainNotFound = errors.New("keychain not found")
)
