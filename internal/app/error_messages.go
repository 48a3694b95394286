// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package app contains shared application-layer constants used by the qre
// command line front end.
//
// All Msg* constants are human-readable hints printed next to a failed
// operation. Describe picks the hint that matches an error's class so the
// user can tell "check your password" apart from "the file is damaged".
package app

import (
	"context"
	"errors"

	"github.com/MKhiriev/qre-core/internal/crypto"
	"github.com/MKhiriev/qre-core/internal/service"
)

const (
	// MsgIncorrectCredentials is shown when a password, recovery code or
	// keyfile does not open the vault or container.
	MsgIncorrectCredentials = "incorrect password or keyfile"

	// MsgKeyfileRequired is shown when a container was locked with a keyfile
	// and none was supplied.
	MsgKeyfileRequired = "this file was locked with a keyfile, pass it with --keyfile"

	// MsgKeyfileNotExpected is shown when a keyfile was supplied for a
	// container that does not use one.
	MsgKeyfileNotExpected = "this file was not locked with a keyfile, drop --keyfile"

	// MsgCorrupted is shown when a header, stream or store is malformed or
	// was modified after encryption.
	MsgCorrupted = "the file is damaged or was modified"

	// MsgIntegrity is shown when a legacy container decrypted but its
	// recorded hash does not match the recovered content.
	MsgIntegrity = "the decrypted content does not match its recorded hash"

	// MsgUnsupportedVersion is shown for containers written by a newer or
	// retired format.
	MsgUnsupportedVersion = "the file uses a format this version cannot read"

	// MsgVaultNotFound is shown when no keychain exists at the configured path.
	MsgVaultNotFound = "no vault found, run 'qre init' first"

	// MsgVaultExists is shown when init would overwrite an existing keychain.
	MsgVaultExists = "a vault already exists at this location"

	// MsgCancelled is shown when the user interrupted the operation.
	MsgCancelled = "operation cancelled"

	// MsgTimedOut is shown when the configured operation timeout elapsed.
	MsgTimedOut = "operation timed out"
)

// Describe returns the hint for err's class, or "" when err has no class
// worth explaining beyond its own text.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, crypto.ErrKeyfileRequired):
		return MsgKeyfileRequired
	case errors.Is(err, crypto.ErrKeyfileNotExpected):
		return MsgKeyfileNotExpected
	case errors.Is(err, crypto.ErrIncorrectCredentials):
		return MsgIncorrectCredentials
	case errors.Is(err, crypto.ErrIntegrity):
		return MsgIntegrity
	case errors.Is(err, crypto.ErrCorrupted):
		return MsgCorrupted
	case errors.Is(err, crypto.ErrUnsupportedVersion):
		return MsgUnsupportedVersion
	case errors.Is(err, service.ErrVaultNotFound):
		return MsgVaultNotFound
	case errors.Is(err, service.ErrVaultExists):
		return MsgVaultExists
	case errors.Is(err, context.Canceled):
		return MsgCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return MsgTimedOut
	}
	return ""
}
