package service

import (
	"errors"
	"fmt"

	"github.com/MKhiriev/qre-core/internal/crypto"
)

var (
	ErrVaultExists   = errors.New("vault already exists")
	ErrVaultNotFound = errors.New("vault not found")
	ErrEmptyPassword = errors.New("password must not be empty")
	ErrNoMasterKey   = errors.New("vault is locked")

	ErrIncorrectPassword   = fmt.Errorf("incorrect password: %w", crypto.ErrIncorrectCredentials)
	ErrInvalidRecoveryCode = fmt.Errorf("invalid recovery code: %w", crypto.ErrIncorrectCredentials)
	ErrForeignMasterKey    = fmt.Errorf("master key does not belong to this vault: %w", crypto.ErrIncorrectCredentials)

	ErrUnsafePath      = errors.New("path contains a parent directory reference")
	ErrNotStream       = fmt.Errorf("not a streaming container: %w", crypto.ErrUnsupportedVersion)
	ErrNoFilesSelected = errors.New("no files selected")
	ErrEmptyFilename   = errors.New("filename must not be empty")
)
