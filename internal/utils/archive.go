package utils

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"
)

// ZipDirectory writes dir as an uncompressed zip archive to w. Entry names
// start with the directory's own base name ("photos/2024/a.jpg") and always
// use forward slashes. Symlinks and other non-regular files are skipped.
//
// Entries are stored, not deflated: the archive is compressed again as a
// whole when it is encrypted.
func ZipDirectory(ctx context.Context, dir string, w io.Writer) error {
	dir = filepath.Clean(dir)
	root := filepath.Dir(dir)

	zw := zip.NewWriter(w)
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err = ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		switch {
		case d.IsDir():
			header := &zip.FileHeader{Name: name + "/", Method: zip.Store}
			header.SetMode(fs.ModeDir | 0o755)
			_, err = zw.CreateHeader(header)
			return err
		case !d.Type().IsRegular():
			return nil
		}

		header := &zip.FileHeader{Name: name, Method: zip.Store}
		header.SetMode(0o755)
		entry, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		return copyFileTo(entry, path)
	})
	if err != nil {
		return fmt.Errorf("zip %s: %w", filepath.Base(dir), err)
	}
	return zw.Close()
}

// ZipDirectoryToTemp archives dir into a new "<name>.zip" next to it (or a
// free "<name> (n).zip") and returns the archive path. The caller removes
// the archive; on error nothing is left behind.
func ZipDirectoryToTemp(ctx context.Context, dir string) (string, error) {
	dir = filepath.Clean(dir)

	f, path, err := CreateUnique(filepath.Join(filepath.Dir(dir), filepath.Base(dir)+".zip"))
	if err != nil {
		return "", err
	}

	if err = ZipDirectory(ctx, dir, f); err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}

func copyFileTo(w io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)
	return err
}
