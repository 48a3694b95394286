package container

import (
	"errors"
	"fmt"
	"io"

	"github.com/MKhiriev/qre-core/internal/crypto"
)

func errCorrupted(format string, args ...any) error {
	return fmt.Errorf("%w: %s", crypto.ErrCorrupted, fmt.Sprintf(format, args...))
}

// wrapRead turns a short read into corruption and passes other I/O errors
// through.
func wrapRead(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errCorrupted("truncated %s", what)
	}
	return fmt.Errorf("read %s: %w", what, err)
}
