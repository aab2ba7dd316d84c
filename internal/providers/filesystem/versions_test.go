package filesystem

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/paths"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVersionStore(t *testing.T) (*VersionStore, string) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	resolver, err := paths.NewResolver(root)
	require.NoError(t, err)

	store := NewVersionStore(resolver, NewAtomicWriter())
	tick := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return store, root
}

// TestVersionSaveSequence tests that indices are dense and each snapshot holds its own content
func TestVersionSaveSequence(t *testing.T) {
	store, root := newVersionStore(t)
	target := filepath.Join(root, "draft.md")

	for i := 1; i <= 3; i++ {
		require.NoError(t, os.WriteFile(target, []byte(fmt.Sprintf("rev %d", i)), 0o644))
		v, err := store.Save(target)
		require.NoError(t, err)
		assert.Equal(t, i, v.Index)
		assert.Equal(t, root, filepath.Dir(v.Path))
		assert.Regexp(t, fmt.Sprintf(`^draft_v%d_\d{8}_\d{6}\.md$`, i), filepath.Base(v.Path))
	}

	versions := store.List(target)
	require.Len(t, versions, 3)
	for i, v := range versions {
		data, err := os.ReadFile(v.Path)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("rev %d", i+1), string(data))
	}
	assert.Equal(t, 3, store.Len(target))
	assert.Equal(t, []string{target}, store.Keys())
}

// TestVersionRestore tests restoring content, including after the original is deleted
func TestVersionRestore(t *testing.T) {
	store, root := newVersionStore(t)
	target := filepath.Join(root, "a.txt")

	require.NoError(t, os.WriteFile(target, []byte("first"), 0o644))
	_, err := store.Save(target)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(target, []byte("second"), 0o644))
	_, err = store.Save(target)
	require.NoError(t, err)

	require.NoError(t, os.Remove(target))
	v, err := store.Restore(target, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v.Index)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
	assert.Equal(t, 2, store.Len(target), "restore leaves history untouched")
}

// TestVersionRestoreOutOfRange tests the range error for bad indices
func TestVersionRestoreOutOfRange(t *testing.T) {
	store, root := newVersionStore(t)
	target := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
	_, err := store.Save(target)
	require.NoError(t, err)

	tests := []struct {
		name      string
		path      string
		index     int
		available int
	}{
		{"zero", target, 0, 1},
		{"past end", target, 2, 1},
		{"negative", target, -1, 1},
		{"untracked", filepath.Join(root, "other.txt"), 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Restore(tt.path, tt.index)
			var rangeErr *VersionRangeError
			require.ErrorAs(t, err, &rangeErr)
			assert.Equal(t, tt.index, rangeErr.Requested)
			assert.Equal(t, tt.available, rangeErr.Available)
		})
	}
}

// TestVersionRestoreMissingSnapshot tests restoring a snapshot deleted out of band
func TestVersionRestoreMissingSnapshot(t *testing.T) {
	store, root := newVersionStore(t)
	target := filepath.Join(root, "a.txt")
	require.NoError(t, os.WriteFile(target, []byte("keep"), 0o644))
	v, err := store.Save(target)
	require.NoError(t, err)

	require.NoError(t, os.Remove(v.Path))
	require.NoError(t, os.WriteFile(target, []byte("current"), 0o644))

	_, err = store.Restore(target, 1)
	var missing *VersionMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, missing.Index)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "current", string(data))
}

// TestVersionSaveRefusesSymlinks tests symlink and directory refusal
func TestVersionSaveRefusesSymlinks(t *testing.T) {
	store, root := newVersionStore(t)
	real := filepath.Join(root, "real.txt")
	link := filepath.Join(root, "link.txt")
	require.NoError(t, os.WriteFile(real, []byte("x"), 0o644))
	require.NoError(t, os.Symlink(real, link))

	_, err := store.Save(link)
	assert.ErrorIs(t, err, ErrSymlink)

	_, err = store.Save(root)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = store.Save(filepath.Join(root, "missing.txt"))
	assert.True(t, os.IsNotExist(err))
	assert.Empty(t, store.Keys())
}

// TestVersionSaveConcurrent tests that concurrent saves of one file get distinct indices
func TestVersionSaveConcurrent(t *testing.T) {
	store, root := newVersionStore(t)
	var mu sync.Mutex
	tick := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	store.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		tick = tick.Add(time.Second)
		return tick
	}

	target := filepath.Join(root, "shared.txt")
	require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))

	const n = 8
	var wg sync.WaitGroup
	indices := make(chan int, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := store.Save(target)
			if assert.NoError(t, err) {
				indices <- v.Index
			}
		}()
	}
	wg.Wait()
	close(indices)

	seen := make(map[int]bool)
	for idx := range indices {
		assert.False(t, seen[idx], "duplicate index %d", idx)
		seen[idx] = true
	}
	assert.Len(t, seen, n)
	assert.Equal(t, n, store.Len(target))
}

// TestSnapshotName tests snapshot naming for plain files and dotfiles
func TestSnapshotName(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	assert.Equal(t, "report_v2_20240506_070809.pdf", snapshotName("report.pdf", 2, at))
	assert.Equal(t, "Makefile_v1_20240506_070809", snapshotName("Makefile", 1, at))
	assert.Equal(t, ".env_v3_20240506_070809", snapshotName(".env", 3, at))
	assert.Equal(t, "a.tar_v1_20240506_070809.gz", snapshotName("a.tar.gz", 1, at))
}
