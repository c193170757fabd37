package store

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/lainio/err2"
	"github.com/lainio/err2/try"
)

// readFile reads the file at path; a missing file yields nil, nil.
func readFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// writeFile writes bytes via a temp file, then atomically replaces the target.
func writeFile(path string, b []byte, mode os.FileMode) (err error) {
	defer err2.Handle(&err, "write %s", path)

	dir := filepath.Dir(path)
	try.To(os.MkdirAll(dir, 0o700))

	f := try.To1(os.CreateTemp(dir, filepath.Base(path)+".tmp-*"))
	tmp := f.Name()
	// Removing after a successful rename is a harmless no-op.
	defer func() { _ = os.Remove(tmp) }()

	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Chmod(mode); err != nil {
		_ = f.Close()
		return err
	}
	try.To(f.Close())
	return os.Rename(tmp, path)
}
