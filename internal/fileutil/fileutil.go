// Package fileutil holds the temp-file-and-rename write shared by the
// events file, the config file and ICS exports.
package fileutil

import (
	"os"
	"path/filepath"
)

// WriteAtomic writes data to a temp file beside path, syncs it, sets perm
// and renames it over path. The parent directory is created (0700) if
// missing. On failure path is left untouched and no temp file remains.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".eventease-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
