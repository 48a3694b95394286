// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package crypto

import (
	"encoding/binary"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// RecoveryCodeLength is the length of a formatted recovery code.
const RecoveryCodeLength = len("QRE-XXXX-XXXX-XXXX-XXXX")

var recoveryCodePattern = regexp.MustCompile(`^QRE-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}-[0-9A-F]{4}$`)

// GenerateRecoveryCode draws four 16-bit groups from rng and formats them as
// QRE-XXXX-XXXX-XXXX-XXXX with uppercase hex digits.
func GenerateRecoveryCode(rng io.Reader) (string, error) {
	var raw [8]byte
	if _, err := io.ReadFull(rng, raw[:]); err != nil {
		return "", fmt.Errorf("generate recovery code: %w", err)
	}

	code := fmt.Sprintf("QRE-%04X-%04X-%04X-%04X",
		binary.LittleEndian.Uint16(raw[0:2]),
		binary.LittleEndian.Uint16(raw[2:4]),
		binary.LittleEndian.Uint16(raw[4:6]),
		binary.LittleEndian.Uint16(raw[6:8]),
	)
	clear(raw[:])
	return code, nil
}

// NormalizeRecoveryCode trims and upper-cases user input and checks the
// format. Malformed input is a credential error so that it costs no KDF run
// and reveals nothing beyond "wrong code".
func NormalizeRecoveryCode(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !recoveryCodePattern.MatchString(code) {
		return "", fmt.Errorf("malformed recovery code: %w", ErrIncorrectCredentials)
	}
	return code, nil
}

// IsRecoveryCode reports whether code is a well-formed recovery code.
func IsRecoveryCode(code string) bool {
	return recoveryCodePattern.MatchString(code)
}
