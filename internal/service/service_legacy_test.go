package service

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/qre-core/internal/container"
	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/internal/logger"
	"github.com/MKhiriev/qre-core/models"
)

func payloadOf(name, content string) *models.InnerPayload {
	return &models.InnerPayload{Filename: name, Content: []byte(content)}
}

func rewriteLegacy(t *testing.T, blob []byte, edit func(c *models.LegacyContainer)) []byte {
	t.Helper()
	c, err := container.ReadLegacy(bytes.NewReader(blob))
	require.NoError(t, err)
	edit(c)
	var out bytes.Buffer
	require.NoError(t, container.WriteLegacy(&out, c))
	return out.Bytes()
}

func TestLegacyService_RoundTrip(t *testing.T) {
	svc := newLegacyService(logger.Nop())
	mk := testMasterKey(t, 1)

	encoders := map[string]struct {
		encrypt func(*crypto.MasterKey, []byte, *models.InnerPayload) ([]byte, error)
		version uint32
	}{
		"direct": {svc.Encrypt, container.VersionDirect},
		"hybrid": {svc.EncryptHybrid, container.VersionHybrid},
	}
	contents := map[string][]byte{
		"empty":      {},
		"one byte":   {0x42},
		"json vault": []byte(`{"notes":[{"title":"a","body":"b"}]}`),
		"binary":     randomBytes(t, 300_000),
	}

	for encName, enc := range encoders {
		for contentName, content := range contents {
			t.Run(encName+"/"+contentName, func(t *testing.T) {
				blob, err := enc.encrypt(mk, nil, &models.InnerPayload{Filename: "vault.json", Content: content})
				require.NoError(t, err)

				c, err := container.ReadLegacy(bytes.NewReader(blob))
				require.NoError(t, err)
				assert.Equal(t, enc.version, c.Version)
				assert.True(t, c.Header.HasValidationTag())
				assert.Len(t, c.Header.OriginalHash, 32)

				got, err := svc.Decrypt(mk, nil, blob)
				require.NoError(t, err)
				assert.Equal(t, "vault.json", got.Filename)
				assert.True(t, bytes.Equal(content, got.Content))
			})
		}
	}
}

func TestLegacyService_VersionTwoWithoutTagOrHash(t *testing.T) {
	svc := newLegacyService(logger.Nop())
	mk := testMasterKey(t, 2)

	blob, err := svc.EncryptHybrid(mk, nil, payloadOf("old.txt", "written long ago"))
	require.NoError(t, err)

	v2 := rewriteLegacy(t, blob, func(c *models.LegacyContainer) {
		c.Version = container.VersionHybridNoTag
		c.Header.ValidationNonce = nil
		c.Header.EncryptedValidationTag = nil
		c.Header.OriginalHash = nil
	})

	got, err := svc.Decrypt(mk, nil, v2)
	require.NoError(t, err)
	assert.Equal(t, "written long ago", string(got.Content))

	_, err = svc.Decrypt(testMasterKey(t, 3), nil, v2)
	assert.ErrorIs(t, err, crypto.ErrIncorrectCredentials)
}

func TestLegacyService_IntegrityMismatch(t *testing.T) {
	svc := newLegacyService(logger.Nop())
	mk := testMasterKey(t, 4)

	blob, err := svc.Encrypt(mk, nil, payloadOf("a.txt", "content"))
	require.NoError(t, err)

	tampered := rewriteLegacy(t, blob, func(c *models.LegacyContainer) {
		c.Header.OriginalHash = bytes.Repeat([]byte{0xEE}, 32)
	})

	got, err := svc.Decrypt(mk, nil, tampered)
	assert.Nil(t, got)
	var integrityErr *crypto.IntegrityError
	require.ErrorAs(t, err, &integrityErr)
	assert.ErrorIs(t, err, crypto.ErrIntegrity)
	assert.NotErrorIs(t, err, crypto.ErrIncorrectCredentials)
}

func TestLegacyService_AbsentHashSkipsCheck(t *testing.T) {
	svc := newLegacyService(logger.Nop())
	mk := testMasterKey(t, 5)

	blob, err := svc.Encrypt(mk, nil, payloadOf("a.txt", "content"))
	require.NoError(t, err)

	noHash := rewriteLegacy(t, blob, func(c *models.LegacyContainer) {
		c.Header.OriginalHash = nil
	})

	got, err := svc.Decrypt(mk, nil, noHash)
	require.NoError(t, err)
	assert.Equal(t, "content", string(got.Content))
}

func TestLegacyService_Credentials(t *testing.T) {
	svc := newLegacyService(logger.Nop())
	mk := testMasterKey(t, 6)
	keyfile := []byte("keyfile")

	blob, err := svc.Encrypt(mk, keyfile, payloadOf("a.txt", "content"))
	require.NoError(t, err)

	_, err = svc.Decrypt(testMasterKey(t, 7), keyfile, blob)
	assert.ErrorIs(t, err, crypto.ErrIncorrectCredentials)

	_, err = svc.Decrypt(mk, nil, blob)
	assert.ErrorIs(t, err, crypto.ErrKeyfileRequired)

	_, err = svc.Decrypt(mk, []byte("other"), blob)
	assert.ErrorIs(t, err, crypto.ErrIncorrectCredentials)

	got, err := svc.Decrypt(mk, keyfile, blob)
	require.NoError(t, err)
	assert.Equal(t, "content", string(got.Content))
}

func TestLegacyService_TamperedBody(t *testing.T) {
	svc := newLegacyService(logger.Nop())
	mk := testMasterKey(t, 8)

	blob, err := svc.Encrypt(mk, nil, payloadOf("a.txt", "content"))
	require.NoError(t, err)

	flipped := rewriteLegacy(t, blob, func(c *models.LegacyContainer) {
		c.Ciphertext[0] ^= 1
	})
	_, err = svc.Decrypt(mk, nil, flipped)
	assert.ErrorIs(t, err, crypto.ErrCorrupted)

	_, err = svc.Decrypt(mk, nil, blob[:len(blob)-1])
	assert.ErrorIs(t, err, crypto.ErrCorrupted)
}

func TestLegacyService_VersionGating(t *testing.T) {
	svc := newLegacyService(logger.Nop())

	_, err := svc.Decrypt(testMasterKey(t, 1), nil, []byte{6, 0, 0, 0, 1, 2, 3})
	assert.ErrorIs(t, err, crypto.ErrUnsupportedVersion)
}

func TestLegacyService_RequiresFilename(t *testing.T) {
	svc := newLegacyService(logger.Nop())

	_, err := svc.Encrypt(testMasterKey(t, 1), nil, payloadOf("", "x"))
	assert.ErrorIs(t, err, ErrEmptyFilename)

	_, err = svc.Encrypt(nil, nil, payloadOf("a", "x"))
	assert.ErrorIs(t, err, ErrNoMasterKey)
}
