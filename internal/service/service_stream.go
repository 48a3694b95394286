// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/awnumar/memguard"

	"github.com/MKhiriev/qre-core/internal/container"
	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/internal/logger"
	"github.com/MKhiriev/qre-core/internal/utils"
	"github.com/MKhiriev/qre-core/models"
)

// maxDecodedChunk bounds the decompressed size of one chunk.
const maxDecodedChunk = 2 * container.ChunkSize

// ProgressFunc receives the number of input bytes processed so far and the
// total input size, or -1 when the size is unknown.
type ProgressFunc func(processed, total int64)

// StreamOptions are the per-call inputs of the streaming codec.
type StreamOptions struct {
	// Keyfile is mixed into the wrapping key when non-empty. Use
	// utils.KeyfileDigest to turn a keyfile into these bytes.
	Keyfile []byte
	// EntropySeed is added to system randomness for key and nonce
	// generation. It never replaces it.
	EntropySeed []byte
	// CompressionLevel is the zstd level, 0 to 22.
	CompressionLevel int
	Progress         ProgressFunc
}

func (o StreamOptions) report(processed, total int64) {
	if o.Progress != nil {
		o.Progress(processed, total)
	}
}

type streamService struct {
	logger *logger.Logger
}

func NewStreamService(logger *logger.Logger) StreamService {
	return newStreamService(logger)
}

func newStreamService(logger *logger.Logger) *streamService {
	return &streamService{logger: logger}
}

func (s *streamService) Encrypt(ctx context.Context, dst io.Writer, src io.Reader, filename string, masterKey *crypto.MasterKey, opts StreamOptions) error {
	_, err := s.encrypt(ctx, dst, src, filename, -1, masterKey, opts)
	return err
}

func (s *streamService) EncryptFile(ctx context.Context, inputPath, outputPath string, masterKey *crypto.MasterKey, opts StreamOptions) (string, error) {
	if utils.HasTraversal(inputPath) || utils.HasTraversal(outputPath) {
		return "", ErrUnsafePath
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return "", fmt.Errorf("stat input: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", inputPath)
	}

	var chunks uint64
	written, err := writeUnique(outputPath, func(out io.Writer) error {
		var err error
		chunks, err = s.encrypt(ctx, out, in, filepath.Base(inputPath), info.Size(), masterKey, opts)
		return err
	})
	if err != nil {
		return "", err
	}

	withOperation(ctx, s.logger).Info().
		Str("input", filepath.Base(inputPath)).
		Str("output", written).
		Uint64("chunks", chunks).
		Msg("file encrypted")
	return written, nil
}

func (s *streamService) Decrypt(ctx context.Context, dst io.Writer, src io.Reader, masterKey *crypto.MasterKey, opts StreamOptions) (string, error) {
	v, err := container.ReadVersion(src)
	if err != nil {
		return "", err
	}
	if v != container.VersionStream {
		return "", fmt.Errorf("%w: version %d", ErrNotStream, v)
	}

	dec, err := s.open(src, masterKey, opts.Keyfile)
	if err != nil {
		return "", err
	}

	if _, err = dec.copyTo(ctx, dst, -1, opts); err != nil {
		return "", err
	}
	return dec.filename, nil
}

func (s *streamService) DecryptFile(ctx context.Context, inputPath, outputDir string, masterKey *crypto.MasterKey, opts StreamOptions) (string, error) {
	if utils.HasTraversal(inputPath) {
		return "", ErrUnsafePath
	}

	in, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer in.Close()

	v, err := container.ReadVersion(in)
	if err != nil {
		return "", err
	}
	if v != container.VersionStream {
		return "", fmt.Errorf("%w: version %d", ErrNotStream, v)
	}
	return s.decryptTo(ctx, in, inputSize(in), outputDir, masterKey, opts)
}

// decryptTo decrypts a streaming container whose version tag has been
// consumed into outputDir.
func (s *streamService) decryptTo(ctx context.Context, src io.Reader, total int64, outputDir string, masterKey *crypto.MasterKey, opts StreamOptions) (string, error) {
	dec, err := s.open(src, masterKey, opts.Keyfile)
	if err != nil {
		return "", err
	}

	var chunks uint64
	written, err := writeUnique(filepath.Join(outputDir, dec.filename), func(out io.Writer) error {
		var err error
		chunks, err = dec.copyTo(ctx, out, total, opts)
		return err
	})
	if err != nil {
		return "", err
	}

	withOperation(ctx, s.logger).Info().
		Str("output", written).
		Uint64("chunks", chunks).
		Msg("file decrypted")
	return written, nil
}

// encrypt writes a complete streaming container and returns the number of
// chunks written.
func (s *streamService) encrypt(ctx context.Context, dst io.Writer, src io.Reader, filename string, total int64, masterKey *crypto.MasterKey, opts StreamOptions) (uint64, error) {
	if filename == "" {
		return 0, ErrEmptyFilename
	}
	if _, err := utils.SafeBaseName(filename); err != nil {
		return 0, err
	}

	rng, err := crypto.NewEntropySource(opts.EntropySeed)
	if err != nil {
		return 0, err
	}

	wrap, err := newWrapCipher(masterKey, opts.Keyfile)
	if err != nil {
		return 0, err
	}

	validationNonce, validationTag, err := crypto.NewValidationTag(wrap, rng)
	if err != nil {
		return 0, err
	}

	rawFileKey, err := crypto.RandomBytes(rng, crypto.MasterKeySize)
	if err != nil {
		return 0, fmt.Errorf("generate file key: %w", err)
	}
	fileKey := crypto.NewSecureBufferFrom(rawFileKey)
	defer fileKey.Destroy()

	keyNonce, encryptedFileKey, err := wrap.SealRandom(rng, fileKey.Bytes(), nil)
	if err != nil {
		return 0, fmt.Errorf("wrap file key: %w", err)
	}

	baseNonce, err := crypto.RandomBytes(rng, crypto.NonceSize)
	if err != nil {
		return 0, fmt.Errorf("generate base nonce: %w", err)
	}

	header := &models.StreamHeader{
		ValidationNonce:        validationNonce,
		EncryptedValidationTag: validationTag,
		KeyWrappingNonce:       keyNonce,
		EncryptedFileKey:       encryptedFileKey,
		BaseNonce:              baseNonce,
		OriginalFilename:       filename,
		UsesKeyfile:            len(opts.Keyfile) > 0,
	}
	if err = container.WriteStreamHeader(dst, header); err != nil {
		return 0, err
	}

	fileCipher, err := crypto.NewAEAD(fileKey.Bytes())
	if err != nil {
		return 0, err
	}
	compressor, err := crypto.NewCompressor(opts.CompressionLevel, maxDecodedChunk)
	if err != nil {
		return 0, err
	}
	defer compressor.Close()

	base := [crypto.NonceSize]byte(baseNonce)
	buf := make([]byte, container.ChunkSize)
	defer memguard.WipeBytes(buf)

	var index uint64
	var processed int64
	for {
		if err = ctx.Err(); err != nil {
			return index, err
		}

		n, readErr := io.ReadFull(src, buf)
		if n > 0 {
			compressed := compressor.Compress(buf[:n])
			nonce := crypto.ChunkNonce(base, index)
			ciphertext, err := fileCipher.Seal(nonce[:], compressed, crypto.ChunkAAD(filename, index))
			memguard.WipeBytes(compressed)
			if err != nil {
				return index, &crypto.ChunkError{Index: index, Err: err}
			}
			if err = container.WriteChunk(dst, ciphertext); err != nil {
				return index, &crypto.ChunkError{Index: index, Err: err}
			}

			index++
			processed += int64(n)
			opts.report(processed, total)
		}

		if errors.Is(readErr, io.EOF) || errors.Is(readErr, io.ErrUnexpectedEOF) {
			return index, nil
		}
		if readErr != nil {
			return index, fmt.Errorf("read input: %w", readErr)
		}
	}
}

// streamDecoder holds the state of a streaming container whose header has
// been read and whose credentials have been verified.
type streamDecoder struct {
	src      io.Reader
	filename string
	base     [crypto.NonceSize]byte
	cipher   *crypto.AEAD
}

// open reads the header and checks credentials before any chunk is touched:
// keyfile capability, then the validation tag, then the File Key.
func (s *streamService) open(src io.Reader, masterKey *crypto.MasterKey, keyfile []byte) (*streamDecoder, error) {
	header, err := container.ReadStreamHeader(src)
	if err != nil {
		return nil, err
	}
	if err = crypto.CheckKeyfile(header.UsesKeyfile, keyfile); err != nil {
		return nil, err
	}

	filename, err := utils.SafeBaseName(header.OriginalFilename)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", crypto.ErrCorrupted, err)
	}

	wrap, err := newWrapCipher(masterKey, keyfile)
	if err != nil {
		return nil, err
	}
	if err = crypto.VerifyValidationTag(wrap, header.ValidationNonce, header.EncryptedValidationTag); err != nil {
		return nil, err
	}

	fileKey, err := unwrapKey(wrap, header.KeyWrappingNonce, header.EncryptedFileKey)
	if err != nil {
		return nil, err
	}
	defer fileKey.Destroy()
	if fileKey.Len() != crypto.MasterKeySize {
		return nil, fmt.Errorf("%w: file key is %d bytes", crypto.ErrCorrupted, fileKey.Len())
	}

	fileCipher, err := crypto.NewAEAD(fileKey.Bytes())
	if err != nil {
		return nil, err
	}

	return &streamDecoder{
		src:      src,
		filename: filename,
		base:     [crypto.NonceSize]byte(header.BaseNonce),
		cipher:   fileCipher,
	}, nil
}

// copyTo decrypts every remaining record into dst. The first failing chunk
// aborts the copy with a *crypto.ChunkError carrying its index.
func (d *streamDecoder) copyTo(ctx context.Context, dst io.Writer, total int64, opts StreamOptions) (uint64, error) {
	compressor, err := crypto.NewCompressor(crypto.LevelFast, maxDecodedChunk)
	if err != nil {
		return 0, err
	}
	defer compressor.Close()

	var (
		index     uint64
		processed int64
		buf       []byte
	)
	for {
		if err = ctx.Err(); err != nil {
			return index, err
		}

		buf, err = container.ReadChunk(d.src, buf)
		if errors.Is(err, io.EOF) {
			return index, nil
		}
		if err != nil {
			return index, &crypto.ChunkError{Index: index, Err: err}
		}

		nonce := crypto.ChunkNonce(d.base, index)
		compressed, err := d.cipher.Open(nonce[:], buf, crypto.ChunkAAD(d.filename, index))
		if err != nil {
			if crypto.IsAuthFailure(err) {
				err = fmt.Errorf("%w: chunk authentication failed", crypto.ErrCorrupted)
			}
			return index, &crypto.ChunkError{Index: index, Err: err}
		}

		plain, err := compressor.Decompress(compressed)
		memguard.WipeBytes(compressed)
		if err != nil {
			return index, &crypto.ChunkError{Index: index, Err: err}
		}
		if len(plain) > container.ChunkSize {
			memguard.WipeBytes(plain)
			return index, &crypto.ChunkError{Index: index, Err: fmt.Errorf("%w: chunk inflates to %d bytes", crypto.ErrCorrupted, len(plain))}
		}

		_, err = dst.Write(plain)
		memguard.WipeBytes(plain)
		if err != nil {
			return index, fmt.Errorf("write output: %w", err)
		}

		index++
		processed += int64(len(buf)) + 4
		opts.report(processed, total)
	}
}

// newWrapCipher derives the wrapping key and returns its cipher. The key
// buffer is wiped once the cipher is built.
func newWrapCipher(masterKey *crypto.MasterKey, keyfile []byte) (*crypto.AEAD, error) {
	if masterKey == nil {
		return nil, ErrNoMasterKey
	}
	wrapKey, err := crypto.DeriveWrappingKey(masterKey, keyfile)
	if err != nil {
		return nil, err
	}
	defer wrapKey.Destroy()
	return crypto.NewAEAD(wrapKey.Bytes())
}

// unwrapKey decrypts wrapped key material. Authentication failure is a
// credential error.
func unwrapKey(wrap *crypto.AEAD, nonce, wrapped []byte) (*crypto.SecureBuffer, error) {
	key, err := wrap.Open(nonce, wrapped, nil)
	if err != nil {
		if crypto.IsAuthFailure(err) {
			return nil, crypto.ErrIncorrectCredentials
		}
		return nil, err
	}
	return crypto.NewSecureBufferFrom(key), nil
}

// writeUnique creates path, or a free "name (n).ext" variant, and fills it
// with write. On any failure the partial file is removed.
func writeUnique(path string, write func(io.Writer) error) (string, error) {
	out, written, err := utils.CreateUnique(path)
	if err != nil {
		return "", err
	}

	err = write(out)
	if err == nil {
		err = out.Sync()
	}
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(written)
		return "", err
	}
	return written, nil
}

func inputSize(f *os.File) int64 {
	info, err := f.Stat()
	if err != nil {
		return -1
	}
	return info.Size()
}
