package paths

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSandbox(t *testing.T) (string, *Resolver) {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	r, err := NewResolver(root)
	require.NoError(t, err)
	require.Equal(t, root, r.Root())
	return root, r
}

func TestResolveInsideRoot(t *testing.T) {
	root, r := newSandbox(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "sub"), 0o755))

	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{"empty resolves to root", "", root},
		{"separators only", "///", root},
		{"dot", ".", root},
		{"plain file", "notes.txt", filepath.Join(root, "notes.txt")},
		{"nested", "docs/sub/a.md", filepath.Join(root, "docs", "sub", "a.md")},
		{"dotdot that stays inside", "docs/sub/../b.md", filepath.Join(root, "docs", "b.md")},
		{"missing components", "new/deep/file.txt", filepath.Join(root, "new", "deep", "file.txt")},
		{"absolute inside root", filepath.Join(root, "docs"), filepath.Join(root, "docs")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(tt.candidate)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRejectsEscapes(t *testing.T) {
	root, r := newSandbox(t)
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("x"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "d"), 0o755))
	require.NoError(t, os.Symlink("../..", filepath.Join(root, "d", "up")))

	candidates := []string{
		"../../../etc/passwd",
		"..",
		"docs/../../x",
		"/etc/passwd",
		outside,
		"link",
		"link/secret",
		"d/up/escaped",
		root + "-sibling/file",
	}

	for _, c := range candidates {
		t.Run(c, func(t *testing.T) {
			got, err := r.Resolve(c)
			require.Error(t, err)
			assert.Empty(t, got)

			var escape *EscapeError
			require.True(t, errors.As(err, &escape))
			assert.Equal(t, c, escape.Path)
			assert.Equal(t, "path escapes sandbox root: "+c, err.Error())
		})
	}
}

func TestResolveFollowsInternalSymlink(t *testing.T) {
	root, r := newSandbox(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0o755))
	require.NoError(t, os.Symlink("real", filepath.Join(root, "alias")))

	got, err := r.Resolve("alias/file.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "real", "file.txt"), got)

	// ".." after a symlink applies to the link target
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "a", "b"), filepath.Join(root, "jump")))
	got, err = r.Resolve("jump/../c")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "c"), got)
}

func TestResolveSymlinkLoop(t *testing.T) {
	root, r := newSandbox(t)
	require.NoError(t, os.Symlink("loop", filepath.Join(root, "loop")))

	_, err := r.Resolve("loop/x")
	require.Error(t, err)
	assert.False(t, errors.As(err, new(*EscapeError)))
}

func TestResolveDisplayRootRebase(t *testing.T) {
	root, r := newSandbox(t)
	r = r.WithDisplayRoot("/workspace")

	got, err := r.Resolve("/workspace/notes/today.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "notes", "today.md"), got)

	got, err = r.Resolve("/workspace")
	require.NoError(t, err)
	assert.Equal(t, root, got)

	_, err = r.Resolve("/workspace/../etc")
	assert.True(t, errors.As(err, new(*EscapeError)))
}

func TestResolveAbsSkipsDisplayRebase(t *testing.T) {
	root, r := newSandbox(t)
	r = r.WithDisplayRoot(string(filepath.Separator))

	inside := filepath.Join(root, "a_v1.txt")
	got, err := r.ResolveAbs(inside)
	require.NoError(t, err)
	assert.Equal(t, inside, got)

	// Resolve treats the same string as a display path and nests it.
	rebased, err := r.Resolve(inside)
	require.NoError(t, err)
	assert.NotEqual(t, inside, rebased)

	got, err = r.ResolveAbs("dst/f.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "dst", "f.txt"), got)

	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "out")))
	_, err = r.ResolveAbs(filepath.Join(root, "out", "x.txt"))
	var escape *EscapeError
	require.True(t, errors.As(err, &escape))
	assert.NotContains(t, escape.Path, root)
}

func TestLexical(t *testing.T) {
	root, r := newSandbox(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "real"), 0o755))
	require.NoError(t, os.Symlink("real", filepath.Join(root, "alias")))

	assert.Equal(t, filepath.Join(root, "alias"), r.Lexical("alias"))
	assert.Equal(t, filepath.Join(root, "b"), r.Lexical("a/../b"))
	assert.Equal(t, root, r.Lexical(""))

	resolved, err := r.Resolve("alias")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "real"), resolved)
}

func TestNewResolverRequiresRoot(t *testing.T) {
	_, err := NewResolver("  ")
	assert.Error(t, err)
}

func TestResolverRootNeedNotExist(t *testing.T) {
	base, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	r, err := NewResolver(filepath.Join(base, "not", "yet"))
	require.NoError(t, err)

	got, err := r.Resolve("a.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "not", "yet", "a.txt"), got)

	_, err = r.Resolve("../../b.txt")
	assert.True(t, errors.As(err, new(*EscapeError)))
}

func TestResolveConcurrent(t *testing.T) {
	root, r := newSandbox(t)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := r.Resolve("a/b/../c")
			assert.NoError(t, err)
			assert.Equal(t, filepath.Join(root, "a", "c"), got)
		}()
	}
	wg.Wait()
}
