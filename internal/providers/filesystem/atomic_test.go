package filesystem

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// TestAtomicWriteCreatesParents tests writing into missing directories
func TestAtomicWriteCreatesParents(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "notes.txt")

	require.NoError(t, NewAtomicWriter().Write(target, []byte("hello")))

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
	assert.Equal(t, []string{"notes.txt"}, listDir(t, filepath.Dir(target)))
}

// TestAtomicWritePreservesMode tests that replacing a file keeps its permissions
func TestAtomicWritePreservesMode(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "script.sh")
	require.NoError(t, os.WriteFile(target, []byte("old"), 0o750))
	require.NoError(t, os.Chmod(target, 0o750))

	require.NoError(t, NewAtomicWriter().Write(target, []byte("new")))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o750), info.Mode().Perm())
}

// TestAtomicWriteRenameFailure tests that a failed swap leaves the original intact
func TestAtomicWriteRenameFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "config.txt")
	require.NoError(t, os.WriteFile(target, []byte("original"), 0o644))

	w := &AtomicWriter{rename: func(string, string) error {
		return errors.New("disk full")
	}}

	err := w.Write(target, []byte("replacement"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "original", string(data))
	assert.Equal(t, []string{"config.txt"}, listDir(t, dir), "temp file must be cleaned up")
}

// TestAtomicWriteFillFailure tests that a failing producer leaves no temp file
func TestAtomicWriteFillFailure(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "out.bin")

	err := NewAtomicWriter().WriteFrom(target, func(w io.Writer) error {
		_, _ = w.Write([]byte("partial"))
		return errors.New("producer failed")
	})
	require.Error(t, err)

	_, statErr := os.Stat(target)
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, listDir(t, dir))
}

// TestAtomicWriteDirectoryTarget tests that a directory is never replaced
func TestAtomicWriteDirectoryTarget(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(target, 0o755))

	assert.Error(t, NewAtomicWriter().Write(target, []byte("x")))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

// TestCopyFileKeepsModeAndTime tests CopyFile metadata preservation
func TestCopyFileKeepsModeAndTime(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "nested", "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o600))
	require.NoError(t, os.Chmod(src, 0o600))
	mtime := time.Date(2023, 4, 5, 6, 7, 8, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	require.NoError(t, NewAtomicWriter().CopyFile(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(mtime))

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}
