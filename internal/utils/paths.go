package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxUniqueAttempts bounds the "name (n).ext" search.
const maxUniqueAttempts = 10000

// ErrUnsafeFilename is returned for names that could escape the output
// directory.
var ErrUnsafeFilename = errors.New("unsafe filename")

// SafeBaseName accepts a filename taken from untrusted input only if it is a
// plain base name: no separators, not empty, not "." or "..".
func SafeBaseName(name string) (string, error) {
	switch {
	case name == "", name == ".", name == "..":
		return "", fmt.Errorf("%w: %q", ErrUnsafeFilename, name)
	case strings.ContainsAny(name, `/\`), strings.ContainsRune(name, 0):
		return "", fmt.Errorf("%w: %q contains a path separator", ErrUnsafeFilename, name)
	case filepath.VolumeName(name) != "":
		return "", fmt.Errorf("%w: %q names a volume", ErrUnsafeFilename, name)
	}
	return name, nil
}

// HasTraversal reports whether path contains a ".." element.
func HasTraversal(path string) bool {
	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return true
		}
	}
	return false
}

// CreateUnique creates a new file at path, or at "stem (n).ext" for the
// smallest n that is free. The file is opened with O_EXCL so an existing
// file is never overwritten, even by a concurrent writer.
func CreateUnique(path string) (*os.File, string, error) {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)

	candidate := path
	for n := 1; n <= maxUniqueAttempts; n++ {
		f, err := os.OpenFile(candidate, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			return f, candidate, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create %q: %w", candidate, err)
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, n, ext))
	}
	return nil, "", fmt.Errorf("no free name for %q after %d attempts", path, maxUniqueAttempts)
}
