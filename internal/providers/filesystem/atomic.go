package filesystem

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// AtomicWriter replaces files through a temp file in the target's own
// directory followed by a rename, so readers never see partial content.
type AtomicWriter struct {
	rename func(oldpath, newpath string) error
}

// NewAtomicWriter creates a writer using os.Rename for the final swap.
func NewAtomicWriter() *AtomicWriter {
	return &AtomicWriter{rename: os.Rename}
}

// Write atomically replaces path with content.
func (w *AtomicWriter) Write(path string, content []byte) error {
	return w.WriteFrom(path, func(out io.Writer) error {
		_, err := out.Write(content)
		return err
	})
}

// WriteFrom atomically replaces path with whatever fill writes. The target
// keeps its previous permissions; new files get 0644.
func (w *AtomicWriter) WriteFrom(path string, fill func(io.Writer) error) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("write %s: is a directory", filepath.Base(path))
		}
		mode = info.Mode().Perm()
	}
	return w.write(path, mode, time.Time{}, fill)
}

// CopyFile atomically copies src onto dst, carrying over permissions and
// modification time.
func (w *AtomicWriter) CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("copy %s: not a regular file", filepath.Base(src))
	}

	return w.write(dst, info.Mode().Perm(), info.ModTime(), func(out io.Writer) error {
		_, err := io.Copy(out, in)
		return err
	})
}

func (w *AtomicWriter) write(path string, mode os.FileMode, mtime time.Time, fill func(io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create parent directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err = fill(tmp); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err = os.Chmod(tmpName, mode); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if !mtime.IsZero() {
		if err = os.Chtimes(tmpName, mtime, mtime); err != nil {
			return fmt.Errorf("set times: %w", err)
		}
	}
	if err = w.rename(tmpName, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
