// Package fileutil writes files so readers never observe a partial result.
package fileutil

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// WriteAtomic streams r into a temp file beside path, then renames it into
// place with the given mode. Missing parent directories are created. On error
// path is left untouched and the temp file is removed.
func WriteAtomic(path string, r io.Reader, mode os.FileMode) (int64, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return 0, err
	}
	cleanup := func(err error) (int64, error) {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return 0, err
	}

	written, err := io.Copy(tmp, r)
	if err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(mode); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		return cleanup(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return 0, err
	}
	return written, nil
}

// WriteFileAtomic is WriteAtomic for an in-memory payload.
func WriteFileAtomic(path string, data []byte, mode os.FileMode) error {
	_, err := WriteAtomic(path, bytes.NewReader(data), mode)
	return err
}
