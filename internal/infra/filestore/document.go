package filestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// readDocument returns the raw bytes at path. A missing file is reported
// with an error satisfying errors.Is(err, os.ErrNotExist).
func readDocument(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// writeDocument replaces path with the JSON encoding of v. The write goes to
// a temp file in the same directory and is renamed into place, so readers
// never observe a half-written document.
func writeDocument(path string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ensureDocument writes empty to path unless a file already exists there.
func ensureDocument(path string, empty any) (created bool, err error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, err
	}
	if err := writeDocument(path, empty); err != nil {
		return false, err
	}
	return true, nil
}
