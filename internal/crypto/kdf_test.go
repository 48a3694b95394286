package crypto_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/qre-core/internal/crypto"
)

// fastParams keeps Argon2id cheap in tests.
var fastParams = crypto.KDFParams{Memory: 64, Iterations: 1, Parallelism: 1}

func TestKDF_GenerateSalt(t *testing.T) {
	kdf := crypto.NewKDF()

	s1, err := kdf.GenerateSalt()
	require.NoError(t, err)
	s2, err := kdf.GenerateSalt()
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(s1)
	require.NoError(t, err)
	assert.Len(t, raw, crypto.SaltSize)
	assert.NotEqual(t, s1, s2)
}

func TestKDF_Derive_Deterministic(t *testing.T) {
	kdf := crypto.NewKDF()
	salt, err := kdf.GenerateSalt()
	require.NoError(t, err)

	k1, err := kdf.Derive([]byte("correct-horse"), salt, fastParams)
	require.NoError(t, err)
	k2, err := kdf.Derive([]byte("correct-horse"), salt, fastParams)
	require.NoError(t, err)
	k3, err := kdf.Derive([]byte("wrong-horse"), salt, fastParams)
	require.NoError(t, err)

	assert.Len(t, k1.Bytes(), crypto.MasterKeySize)
	assert.Equal(t, k1.Bytes(), k2.Bytes())
	assert.NotEqual(t, k1.Bytes(), k3.Bytes())
}

func TestKDF_Derive_SaltChangesKey(t *testing.T) {
	kdf := crypto.NewKDF()
	s1, _ := kdf.GenerateSalt()
	s2, _ := kdf.GenerateSalt()

	k1, err := kdf.Derive([]byte("pw"), s1, fastParams)
	require.NoError(t, err)
	k2, err := kdf.Derive([]byte("pw"), s2, fastParams)
	require.NoError(t, err)

	assert.NotEqual(t, k1.Bytes(), k2.Bytes())
}

func TestKDF_Derive_RejectsBadInput(t *testing.T) {
	kdf := crypto.NewKDF()
	salt, _ := kdf.GenerateSalt()

	tests := []struct {
		name    string
		salt    string
		params  crypto.KDFParams
		wantErr error
	}{
		{"zero memory", salt, crypto.KDFParams{Memory: 0, Iterations: 1, Parallelism: 1}, crypto.ErrInvalidKDFParams},
		{"zero iterations", salt, crypto.KDFParams{Memory: 64, Iterations: 0, Parallelism: 1}, crypto.ErrInvalidKDFParams},
		{"zero parallelism", salt, crypto.KDFParams{Memory: 64, Iterations: 1, Parallelism: 0}, crypto.ErrInvalidKDFParams},
		{"memory below lanes", salt, crypto.KDFParams{Memory: 8, Iterations: 1, Parallelism: 4}, crypto.ErrInvalidKDFParams},
		{"huge memory", salt, crypto.KDFParams{Memory: 1 << 30, Iterations: 1, Parallelism: 1}, crypto.ErrInvalidKDFParams},
		{"empty salt", "", fastParams, crypto.ErrMalformedSalt},
		{"not base64", "!!!not-base64!!!", fastParams, crypto.ErrMalformedSalt},
		{"short salt", "AAAA", fastParams, crypto.ErrMalformedSalt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := kdf.Derive([]byte("pw"), tt.salt, tt.params)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, key)
		})
	}
}

func TestDecodeSalt_AcceptsUnpadded(t *testing.T) {
	raw := []byte("0123456789abcdef")
	padded := base64.StdEncoding.EncodeToString(raw[:10])
	unpadded := base64.RawStdEncoding.EncodeToString(raw[:10])

	a, err := crypto.DecodeSalt(padded)
	require.NoError(t, err)
	b, err := crypto.DecodeSalt(unpadded)
	require.NoError(t, err)

	assert.Equal(t, raw[:10], a)
	assert.Equal(t, a, b)
}

func TestDefaultKDFParams_Valid(t *testing.T) {
	p := crypto.DefaultKDFParams()
	require.NoError(t, p.Validate())
	assert.Equal(t, uint32(19456), p.Memory)
	assert.Equal(t, uint32(2), p.Iterations)
	assert.Equal(t, uint32(1), p.Parallelism)
}
