// Package fsutil provides crash-safe file replacement helpers.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteFileAtomic writes data to path atomically using a temp file in the
// same directory and a rename. Readers never observe a partially-written file.
// The parent directory is created if missing.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fsutil: create directory %s: %w", dir, err)
	}
	tmpPath := filepath.Join(dir, ".tmp-"+filepath.Base(path))

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf("fsutil: create temp file: %w", err)
	}
	defer os.Remove(tmpPath) // clean up on error

	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("fsutil: write %s: %w", tmpPath, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("fsutil: sync %s: %w", tmpPath, err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	// OpenFile honours umask; the caller asked for an exact mode.
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("fsutil: chmod %s: %w", tmpPath, err)
	}
	return Promote(tmpPath, path)
}

// Promote renames a fully written staged file over target in a single
// rename(2) and syncs the parent directory. Both paths must be on the same
// filesystem.
func Promote(staged, target string) error {
	if err := os.Rename(staged, target); err != nil {
		return fmt.Errorf("fsutil: rename %s -> %s: %w", staged, target, err)
	}
	syncDir(filepath.Dir(target))
	return nil
}

// RemoveIfExists removes path. It reports whether a file was actually
// removed; a missing file is not an error.
func RemoveIfExists(path string) (bool, error) {
	err := os.Remove(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("fsutil: remove %s: %w", path, err)
}

// Exists reports whether path exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// syncDir is best-effort: some filesystems refuse fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	d.Close()
}
