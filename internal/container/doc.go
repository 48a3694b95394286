// Package container reads and writes the on-disk layout of encrypted files.
//
// Every container starts with a 4-byte little-endian version. The version is
// read before anything else and selects the header schema:
//
//	2, 3, 4  whole-file containers: [version][header][u64 len][ciphertext]
//	5        streaming containers:  [version][header]([u32 len][chunk])* EOF
//
// Headers are a sequence of fields. Byte strings and strings are written as
// [u32 LE length][bytes], booleans as one byte and optional fields as a
// presence byte followed by the field. Every length is checked against a
// per-field cap before anything is allocated.
//
// The package knows nothing about keys; it only moves bytes. Malformed input
// is always reported as [crypto.ErrCorrupted] and unknown versions as
// [crypto.ErrUnsupportedVersion].
package container
