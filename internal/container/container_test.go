package container_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/qre-core/internal/container"
	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/models"
)

func fill(b byte, n int) []byte {
	return bytes.Repeat([]byte{b}, n)
}

func sampleStreamHeader() *models.StreamHeader {
	return &models.StreamHeader{
		ValidationNonce:        fill(1, crypto.NonceSize),
		EncryptedValidationTag: fill(2, 25),
		KeyWrappingNonce:       fill(3, crypto.NonceSize),
		EncryptedFileKey:       fill(4, 48),
		BaseNonce:              fill(5, crypto.NonceSize),
		OriginalFilename:       "report.pdf",
		UsesKeyfile:            true,
	}
}

func le32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

func TestReadVersion_Gating(t *testing.T) {
	tests := []struct {
		name    string
		input   []byte
		want    uint32
		wantErr error
	}{
		{"stream", le32(5), 5, nil},
		{"oldest legacy", le32(2), 2, nil},
		{"too new", append(le32(6), []byte("garbage body")...), 6, crypto.ErrUnsupportedVersion},
		{"too old", le32(1), 1, crypto.ErrUnsupportedVersion},
		{"truncated", []byte{5, 0}, 0, crypto.ErrCorrupted},
		{"empty", nil, 0, crypto.ErrCorrupted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := bytes.NewReader(tt.input)
			v, err := container.ReadVersion(r)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestReadVersion_DoesNotTouchBody(t *testing.T) {
	r := bytes.NewReader(append(le32(99), fill(0xEE, 100)...))
	_, err := container.ReadVersion(r)

	var verr *crypto.VersionError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, uint32(99), verr.Version)
	assert.Equal(t, container.MaxSupportedVersion, verr.Max)
	assert.Equal(t, 100, r.Len())
}

func TestStreamHeader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	h := sampleStreamHeader()
	require.NoError(t, container.WriteStreamHeader(&buf, h))
	buf.WriteString("records follow")

	v, err := container.ReadVersion(&buf)
	require.NoError(t, err)
	assert.Equal(t, container.VersionStream, v)

	got, err := container.ReadStreamHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
	assert.Equal(t, "records follow", buf.String())
}

func TestStreamHeader_TruncatedAnywhere(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, container.WriteStreamHeader(&buf, sampleStreamHeader()))
	full := buf.Bytes()[4:]

	for i := 0; i < len(full); i++ {
		_, err := container.ReadStreamHeader(bytes.NewReader(full[:i]))
		require.ErrorIs(t, err, crypto.ErrCorrupted, "prefix of %d bytes", i)
	}
}

func TestStreamHeader_RejectsMalformedFields(t *testing.T) {
	t.Run("oversized filename length", func(t *testing.T) {
		h := sampleStreamHeader()
		var buf bytes.Buffer
		require.NoError(t, container.WriteStreamHeader(&buf, h))
		raw := buf.Bytes()[4:]

		// Filename length sits after five length-prefixed fields.
		off := 0
		for _, f := range [][]byte{h.ValidationNonce, h.EncryptedValidationTag, h.KeyWrappingNonce, h.EncryptedFileKey, h.BaseNonce} {
			off += 4 + len(f)
		}
		binary.LittleEndian.PutUint32(raw[off:], 1<<30)

		_, err := container.ReadStreamHeader(bytes.NewReader(raw))
		require.ErrorIs(t, err, crypto.ErrCorrupted)
	})

	t.Run("wrong nonce size", func(t *testing.T) {
		h := sampleStreamHeader()
		h.BaseNonce = fill(5, 8)
		var buf bytes.Buffer
		require.NoError(t, container.WriteStreamHeader(&buf, h))

		_, err := container.ReadStreamHeader(bytes.NewReader(buf.Bytes()[4:]))
		require.ErrorIs(t, err, crypto.ErrCorrupted)
	})

	t.Run("invalid boolean", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, container.WriteStreamHeader(&buf, sampleStreamHeader()))
		raw := buf.Bytes()[4:]
		raw[len(raw)-1] = 7

		_, err := container.ReadStreamHeader(bytes.NewReader(raw))
		require.ErrorIs(t, err, crypto.ErrCorrupted)
	})
}

func TestChunks(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, container.WriteChunk(&buf, fill(1, 40)))
	require.NoError(t, container.WriteChunk(&buf, fill(2, 16)))

	r := bytes.NewReader(buf.Bytes())
	c1, err := container.ReadChunk(r, nil)
	require.NoError(t, err)
	assert.Equal(t, fill(1, 40), c1)

	c2, err := container.ReadChunk(r, make([]byte, 0, 64))
	require.NoError(t, err)
	assert.Equal(t, fill(2, 16), c2)

	_, err = container.ReadChunk(r, nil)
	assert.Equal(t, io.EOF, err)
}

func TestReadChunk_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"partial length", []byte{1, 2}},
		{"implausible length", le32(container.MaxChunkCiphertext + 1)},
		{"shorter than tag", append(le32(4), 1, 2, 3, 4)},
		{"truncated body", append(le32(32), fill(9, 10)...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := container.ReadChunk(bytes.NewReader(tt.input), nil)
			require.ErrorIs(t, err, crypto.ErrCorrupted)
		})
	}
}

func TestWriteChunk_TooLarge(t *testing.T) {
	err := container.WriteChunk(io.Discard, make([]byte, container.MaxChunkCiphertext+1))
	require.Error(t, err)
}

func legacyHeader(hybrid, tagged bool) models.LegacyHeader {
	h := models.LegacyHeader{
		KeyWrappingNonce: fill(3, crypto.NonceSize),
		EncryptedFileKey: fill(4, 48),
		BodyNonce:        fill(6, crypto.NonceSize),
		OriginalHash:     fill(8, 32),
		UsesKeyfile:      true,
	}
	if hybrid {
		h.KyberEncappedSessionKey = fill(7, 1568)
	}
	if tagged {
		h.ValidationNonce = fill(1, crypto.NonceSize)
		h.EncryptedValidationTag = fill(2, 25)
	}
	return h
}

func TestLegacy_RoundTripAndUpgrade(t *testing.T) {
	tests := []struct {
		name    string
		version uint32
		header  models.LegacyHeader
		check   func(t *testing.T, h models.LegacyHeader)
	}{
		{
			name:    "v2 hybrid without tag",
			version: container.VersionHybridNoTag,
			header:  legacyHeader(true, false),
			check: func(t *testing.T, h models.LegacyHeader) {
				assert.False(t, h.HasValidationTag())
				assert.True(t, h.IsHybrid())
				assert.Nil(t, h.OriginalHash, "v2 never carries a hash")
			},
		},
		{
			name:    "v3 hybrid",
			version: container.VersionHybrid,
			header:  legacyHeader(true, true),
			check: func(t *testing.T, h models.LegacyHeader) {
				assert.True(t, h.HasValidationTag())
				assert.True(t, h.IsHybrid())
				assert.Len(t, h.OriginalHash, 32)
			},
		},
		{
			name:    "v4 direct",
			version: container.VersionDirect,
			header:  legacyHeader(false, true),
			check: func(t *testing.T, h models.LegacyHeader) {
				assert.True(t, h.HasValidationTag())
				assert.False(t, h.IsHybrid())
				assert.Len(t, h.OriginalHash, 32)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &models.LegacyContainer{Version: tt.version, Header: tt.header, Ciphertext: fill(0xCC, 300)}

			var buf bytes.Buffer
			require.NoError(t, container.WriteLegacy(&buf, in))

			out, err := container.ReadLegacy(&buf)
			require.NoError(t, err)
			assert.Equal(t, tt.version, out.Version)
			assert.Equal(t, in.Ciphertext, out.Ciphertext)
			assert.Equal(t, tt.header.KeyWrappingNonce, out.Header.KeyWrappingNonce)
			assert.Equal(t, tt.header.EncryptedFileKey, out.Header.EncryptedFileKey)
			assert.Equal(t, tt.header.BodyNonce, out.Header.BodyNonce)
			assert.True(t, out.Header.UsesKeyfile)
			tt.check(t, out.Header)
		})
	}
}

func TestLegacy_OptionalHashAbsent(t *testing.T) {
	h := legacyHeader(false, true)
	h.OriginalHash = nil
	in := &models.LegacyContainer{Version: container.VersionDirect, Header: h, Ciphertext: fill(1, 20)}

	var buf bytes.Buffer
	require.NoError(t, container.WriteLegacy(&buf, in))

	out, err := container.ReadLegacy(&buf)
	require.NoError(t, err)
	assert.Nil(t, out.Header.OriginalHash)
}

func TestWriteLegacy_LayoutMismatch(t *testing.T) {
	tests := []struct {
		name    string
		version uint32
		header  models.LegacyHeader
	}{
		{"v2 without kem", container.VersionHybridNoTag, legacyHeader(false, false)},
		{"v3 without tag", container.VersionHybrid, legacyHeader(true, false)},
		{"v4 with kem", container.VersionDirect, legacyHeader(true, true)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := container.WriteLegacy(io.Discard, &models.LegacyContainer{Version: tt.version, Header: tt.header})
			require.Error(t, err)
		})
	}

	err := container.WriteLegacy(io.Discard, &models.LegacyContainer{Version: container.VersionStream})
	require.ErrorIs(t, err, crypto.ErrUnsupportedVersion)
}

func TestReadLegacy_Malformed(t *testing.T) {
	in := &models.LegacyContainer{Version: container.VersionDirect, Header: legacyHeader(false, true), Ciphertext: fill(1, 64)}
	var buf bytes.Buffer
	require.NoError(t, container.WriteLegacy(&buf, in))
	raw := buf.Bytes()

	t.Run("truncated body", func(t *testing.T) {
		_, err := container.ReadLegacy(bytes.NewReader(raw[:len(raw)-1]))
		require.ErrorIs(t, err, crypto.ErrCorrupted)
	})

	t.Run("trailing data", func(t *testing.T) {
		_, err := container.ReadLegacy(bytes.NewReader(append(bytes.Clone(raw), 0)))
		require.ErrorIs(t, err, crypto.ErrCorrupted)
	})

	t.Run("stream version", func(t *testing.T) {
		stream := append(le32(container.VersionStream), raw[4:]...)
		_, err := container.ReadLegacy(bytes.NewReader(stream))
		require.ErrorIs(t, err, crypto.ErrUnsupportedVersion)
	})

	t.Run("wrong hash size", func(t *testing.T) {
		h := legacyHeader(false, true)
		h.OriginalHash = fill(8, 20)
		var b bytes.Buffer
		require.NoError(t, container.WriteLegacy(&b, &models.LegacyContainer{Version: container.VersionDirect, Header: h, Ciphertext: fill(1, 4)}))

		_, err := container.ReadLegacy(&b)
		require.ErrorIs(t, err, crypto.ErrCorrupted)
	})
}

func TestIsLegacy(t *testing.T) {
	assert.True(t, container.IsLegacy(2))
	assert.True(t, container.IsLegacy(4))
	assert.False(t, container.IsLegacy(5))
	assert.False(t, container.IsLegacy(1))
}

func TestPayload_RoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload models.InnerPayload
	}{
		{name: "empty content", payload: models.InnerPayload{Filename: "notes.json", Content: []byte{}}},
		{name: "text", payload: models.InnerPayload{Filename: "hello.txt", Content: []byte("hello world")}},
		{name: "binary", payload: models.InnerPayload{Filename: "blob.bin", Content: fill(0xAB, 4096)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := container.EncodePayload(&tt.payload)
			require.NoError(t, err)

			got, err := container.DecodePayload(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.payload.Filename, got.Filename)
			assert.Equal(t, tt.payload.Content, got.Content)
		})
	}
}

func TestDecodePayload_Malformed(t *testing.T) {
	raw, err := container.EncodePayload(&models.InnerPayload{Filename: "a.txt", Content: []byte("abc")})
	require.NoError(t, err)

	_, err = container.DecodePayload(raw[:len(raw)-1])
	assert.ErrorIs(t, err, crypto.ErrCorrupted)

	_, err = container.DecodePayload(append(raw, 0))
	assert.ErrorIs(t, err, crypto.ErrCorrupted)

	_, err = container.DecodePayload(nil)
	assert.ErrorIs(t, err, crypto.ErrCorrupted)
}

func TestEncodePayload_FilenameTooLong(t *testing.T) {
	_, err := container.EncodePayload(&models.InnerPayload{Filename: string(fill('a', 5000))})
	require.Error(t, err)
}
