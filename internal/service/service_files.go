// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MKhiriev/qre-core/internal/container"
	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/internal/logger"
	"github.com/MKhiriev/qre-core/internal/utils"
	"github.com/MKhiriev/qre-core/internal/workers"
	"github.com/MKhiriev/qre-core/models"
)

// LockedExtension is appended to the name of every locked file.
const LockedExtension = ".qre"

// BatchOptions are shared by every file of one batch.
type BatchOptions struct {
	Keyfile []byte
	// Entropy is expanded into a distinct seed per file, so files of one
	// batch never share keys or nonces.
	Entropy []byte
	// CompressionMode overrides the configured mode when set.
	CompressionMode models.CompressionMode
	// OutputDir receives every output. Empty means next to each input.
	OutputDir string
	// Progress is called with the index of the file in the batch.
	Progress func(index int, processed, total int64)
}

func (o BatchOptions) progressFor(index int) ProgressFunc {
	if o.Progress == nil {
		return nil
	}
	return func(processed, total int64) {
		o.Progress(index, processed, total)
	}
}

func (o BatchOptions) outputDir(input string) string {
	if o.OutputDir != "" {
		return o.OutputDir
	}
	return filepath.Dir(input)
}

type fileService struct {
	streams *streamService
	legacy  *legacyService
	pool    *workers.Workers
	mode    models.CompressionMode
	ids     *utils.UUIDGenerator

	logger *logger.Logger
}

func newFileService(streams *streamService, legacy *legacyService, pool *workers.Workers, mode models.CompressionMode, logger *logger.Logger) *fileService {
	if !mode.Valid() {
		mode = models.CompressionAuto
	}
	return &fileService{
		streams: streams,
		legacy:  legacy,
		pool:    pool,
		mode:    mode,
		ids:     utils.NewUUIDGenerator(),
		logger:  logger,
	}
}

func (f *fileService) LockFiles(ctx context.Context, paths []string, masterKey *crypto.MasterKey, opts BatchOptions) ([]models.BatchItemResult, error) {
	if len(paths) == 0 {
		return nil, ErrNoFilesSelected
	}
	if len(masterKey.Bytes()) != crypto.MasterKeySize {
		return nil, ErrNoMasterKey
	}

	mode := opts.CompressionMode
	if mode == "" {
		mode = f.mode
	}
	ctx = f.begin(ctx, "lock", len(paths))

	outputs := make([]string, len(paths))
	jobs := make([]workers.Worker, len(paths))
	for i, path := range paths {
		jobs[i] = workers.WorkerFunc(func(ctx context.Context) error {
			if utils.HasTraversal(path) {
				return ErrUnsafePath
			}

			var seed []byte
			if len(opts.Entropy) > 0 {
				var err error
				if seed, err = crypto.DeriveFileSeed(opts.Entropy, uint64(i)); err != nil {
					return err
				}
			}

			input, cleanup, err := f.prepareInput(ctx, path)
			if err != nil {
				return err
			}
			defer cleanup()

			target := filepath.Join(opts.outputDir(path), filepath.Base(filepath.Clean(path))+LockedExtension)
			written, err := f.streams.EncryptFile(ctx, input, target, masterKey, StreamOptions{
				Keyfile:          opts.Keyfile,
				EntropySeed:      seed,
				CompressionLevel: crypto.CompressionLevel(mode, path),
				Progress:         opts.progressFor(i),
			})
			if err != nil {
				return err
			}
			outputs[i] = written
			return nil
		})
	}

	errs := f.pool.Run(ctx, jobs)
	return f.collect(ctx, paths, outputs, errs, func(string) string { return "Locked" }), nil
}

// prepareInput returns the file to encrypt for path. A directory is first
// archived into a temporary zip next to it; cleanup removes that archive.
func (f *fileService) prepareInput(ctx context.Context, path string) (string, func(), error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("stat input: %w", err)
	}
	if !info.IsDir() {
		return path, func() {}, nil
	}

	archive, err := utils.ZipDirectoryToTemp(ctx, path)
	if err != nil {
		return "", nil, err
	}
	withOperation(ctx, f.logger).Debug().
		Str("dir", filepath.Base(filepath.Clean(path))).
		Str("archive", filepath.Base(archive)).
		Msg("directory archived")

	return archive, func() {
		if err := os.Remove(archive); err != nil {
			f.logger.Warn().Err(err).Str("archive", archive).Msg("remove temporary archive")
		}
	}, nil
}

func (f *fileService) UnlockFiles(ctx context.Context, paths []string, masterKey *crypto.MasterKey, opts BatchOptions) ([]models.BatchItemResult, error) {
	if len(paths) == 0 {
		return nil, ErrNoFilesSelected
	}
	if len(masterKey.Bytes()) != crypto.MasterKeySize {
		return nil, ErrNoMasterKey
	}

	ctx = f.begin(ctx, "unlock", len(paths))

	outputs := make([]string, len(paths))
	jobs := make([]workers.Worker, len(paths))
	for i, path := range paths {
		jobs[i] = workers.WorkerFunc(func(ctx context.Context) error {
			written, err := f.decryptFile(ctx, path, opts.outputDir(path), masterKey, opts.Keyfile, opts.progressFor(i))
			if err != nil {
				return err
			}
			outputs[i] = written
			return nil
		})
	}

	errs := f.pool.Run(ctx, jobs)
	return f.collect(ctx, paths, outputs, errs, func(out string) string {
		return "Unlocked: " + filepath.Base(out)
	}), nil
}

func (f *fileService) DecryptFile(ctx context.Context, inputPath, outputDir string, masterKey *crypto.MasterKey, keyfile []byte) (string, error) {
	return f.decryptFile(ctx, inputPath, outputDir, masterKey, keyfile, nil)
}

// decryptFile reads the version tag and hands the rest of the file to the
// codec that owns that version.
func (f *fileService) decryptFile(ctx context.Context, inputPath, outputDir string, masterKey *crypto.MasterKey, keyfile []byte, progress ProgressFunc) (string, error) {
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

	switch {
	case v == container.VersionStream:
		return f.streams.decryptTo(ctx, in, inputSize(in), outputDir, masterKey, StreamOptions{
			Keyfile:  keyfile,
			Progress: progress,
		})
	case container.IsLegacy(v):
		if err = ctx.Err(); err != nil {
			return "", err
		}
		return f.legacy.decryptTo(in, v, outputDir, masterKey, keyfile)
	}
	return "", &crypto.VersionError{Version: v, Max: container.MaxSupportedVersion}
}

// begin tags ctx with a fresh operation id so every log line of one batch
// can be correlated.
func (f *fileService) begin(ctx context.Context, operation string, files int) context.Context {
	ctx = utils.WithOperationID(ctx, f.ids.Generate())
	withOperation(ctx, f.logger).Info().
		Str("operation", operation).
		Int("files", files).
		Msg("batch started")
	return ctx
}

func (f *fileService) collect(ctx context.Context, paths, outputs []string, errs []error, message func(output string) string) []models.BatchItemResult {
	log := withOperation(ctx, f.logger)
	failed := 0

	results := make([]models.BatchItemResult, len(paths))
	for i, path := range paths {
		name := filepath.Base(path)
		if errs[i] != nil {
			failed++
			log.Warn().Err(errs[i]).Str("file", name).Msg("batch item failed")
			results[i] = models.BatchItemResult{Name: name, Message: errs[i].Error(), Err: errs[i]}
			continue
		}
		results[i] = models.BatchItemResult{
			Name:       name,
			Success:    true,
			Message:    message(outputs[i]),
			OutputPath: outputs[i],
		}
	}

	log.Info().Int("files", len(paths)).Int("failed", failed).Msg("batch finished")
	return results
}

// withOperation returns l tagged with the operation id carried by ctx, if
// any.
func withOperation(ctx context.Context, l *logger.Logger) *logger.Logger {
	id, ok := utils.GetOperationIDFromContext(ctx)
	if !ok {
		return l
	}
	return &logger.Logger{Logger: l.With().Str("operation_id", id).Logger()}
}
