package crypto

//go:generate mockgen -source=interfaces.go -destination=../mock/key_deriver_mock.go -package=mock

// KeyDeriver turns a human secret (password or recovery code) into a
// 32-byte key-encryption key with a memory-hard, salted hash.
//
// The scheme per keychain slot:
//
//	salt = GenerateSalt()                   (stored in clear)
//	kek  = Derive(secret, salt, params)     (never stored)
//	slot = AES-GCM(kek, masterKey)          (stored)
type KeyDeriver interface {
	// GenerateSalt returns SaltSize random bytes encoded as standard base64.
	GenerateSalt() (string, error)

	// Derive runs the KDF over secret. It is deterministic: the same secret,
	// salt and params always yield the same key. Invalid params or a
	// malformed salt fail closed.
	Derive(secret []byte, salt string, params KDFParams) (*SecureBuffer, error)
}
