package models

// KeychainStoreVersion is the newest keychain layout this build can read.
// Stores written before the field existed carry no version and are read as 1.
const KeychainStoreVersion = 1

// KeychainStore is the on-disk record that protects the vault Master Key.
//
// The Master Key itself is never stored. Instead it is encrypted twice:
// once under a key derived from the user password (the password slot) and
// once under a key derived from the recovery code (the recovery slot).
// Either credential independently recovers the same 32 bytes.
//
// Salts are standard base64 strings; nonces and ciphertexts are raw byte
// arrays (see [ByteArray]).
type KeychainStore struct {
	// Version of the store layout. Zero means "written before versioning" and
	// is treated as 1.
	Version int `json:"version,omitempty"`

	// VaultID uniquely identifies the vault.
	VaultID string `json:"vault_id"`

	// KDF parameters recorded at init time so that the cost can evolve across
	// installs without breaking existing vaults.
	KDFMemory      uint32 `json:"kdf_memory"`
	KDFIterations  uint32 `json:"kdf_iterations"`
	KDFParallelism uint32 `json:"kdf_parallelism"`

	// Password slot.
	PasswordSalt           string    `json:"password_salt"`
	PasswordNonce          ByteArray `json:"password_nonce"`
	EncryptedMasterKeyPass ByteArray `json:"encrypted_master_key_pass"`

	// Recovery slot.
	RecoverySalt               string    `json:"recovery_salt"`
	RecoveryNonce              ByteArray `json:"recovery_nonce"`
	EncryptedMasterKeyRecovery ByteArray `json:"encrypted_master_key_recovery"`

	// Key check: a validation tag sealed under a key derived from the
	// Master Key. Stores written before it existed have neither field.
	KeyCheckNonce ByteArray `json:"key_check_nonce,omitempty"`
	KeyCheckTag   ByteArray `json:"key_check_tag,omitempty"`
}

// EffectiveVersion returns the layout version, mapping the legacy zero value to 1.
func (s *KeychainStore) EffectiveVersion() int {
	if s.Version == 0 {
		return 1
	}
	return s.Version
}

// HasKeyCheck reports whether the store carries a key check.
func (s *KeychainStore) HasKeyCheck() bool {
	return len(s.KeyCheckNonce) > 0 || len(s.KeyCheckTag) > 0
}

// Slot is one encrypted copy of the Master Key.
type Slot struct {
	Salt       string
	Nonce      []byte
	Ciphertext []byte
}

// PasswordSlot returns the password-protected copy of the Master Key.
func (s *KeychainStore) PasswordSlot() Slot {
	return Slot{Salt: s.PasswordSalt, Nonce: s.PasswordNonce, Ciphertext: s.EncryptedMasterKeyPass}
}

// RecoverySlot returns the recovery-code-protected copy of the Master Key.
func (s *KeychainStore) RecoverySlot() Slot {
	return Slot{Salt: s.RecoverySalt, Nonce: s.RecoveryNonce, Ciphertext: s.EncryptedMasterKeyRecovery}
}

// SetPasswordSlot replaces the password slot, leaving the recovery slot untouched.
func (s *KeychainStore) SetPasswordSlot(slot Slot) {
	s.PasswordSalt = slot.Salt
	s.PasswordNonce = slot.Nonce
	s.EncryptedMasterKeyPass = slot.Ciphertext
}

// SetRecoverySlot replaces the recovery slot, leaving the password slot untouched.
func (s *KeychainStore) SetRecoverySlot(slot Slot) {
	s.RecoverySalt = slot.Salt
	s.RecoveryNonce = slot.Nonce
	s.EncryptedMasterKeyRecovery = slot.Ciphertext
}
