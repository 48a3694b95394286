package service

import (
	"bytes"
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/qre-core/internal/config"
	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/internal/logger"
	"github.com/MKhiriev/qre-core/internal/store"
	"github.com/MKhiriev/qre-core/internal/workers"
	"github.com/MKhiriev/qre-core/models"
)

// fastCrypto keeps Argon2id cheap in tests.
var fastCrypto = config.Crypto{
	KDFMemory:       64,
	KDFIterations:   1,
	KDFParallelism:  1,
	CompressionMode: models.CompressionAuto,
}

func newTestKeychainSvc(t *testing.T) (*keychainService, string) {
	t.Helper()
	svc := NewKeychainService(store.NewKeychainFileStorage(logger.Nop()), crypto.NewKDF(), fastCrypto, logger.Nop()).(*keychainService)
	return svc, filepath.Join(t.TempDir(), "keychain.json")
}

func newTestFileSvc(limit int) *fileService {
	return newFileService(newStreamService(logger.Nop()), newLegacyService(logger.Nop()), workers.NewWorkers(limit), models.CompressionAuto, logger.Nop())
}

func testMasterKey(t *testing.T, b byte) *crypto.MasterKey {
	t.Helper()
	mk, err := crypto.NewMasterKey(bytes.Repeat([]byte{b}, crypto.MasterKeySize))
	require.NoError(t, err)
	return mk
}

func randomBytes(t *testing.T, n int) []byte {
	t.Helper()
	b := make([]byte, n)
	_, err := rand.Read(b)
	require.NoError(t, err)
	return b
}

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, content, 0o600))
	return p
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o600))
}
