package paths

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// maxLinks bounds symlink expansion during canonicalization
const maxLinks = 255

// EscapeError reports a candidate path that resolves outside the root.
// Path holds the caller's original input, never the resolved location.
type EscapeError struct {
	Path string
}

func (e *EscapeError) Error() string {
	return fmt.Sprintf("path escapes sandbox root: %s", e.Path)
}

// Resolver confines paths to a canonical root directory.
// It is immutable after construction and safe for concurrent use.
type Resolver struct {
	root    string
	display string
}

// NewResolver canonicalizes root once and caches it. The root does not
// need to exist; missing trailing components are kept lexically.
func NewResolver(root string) (*Resolver, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("sandbox root cannot be empty")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("absolute root: %w", err)
	}

	canonical, err := canonicalize(abs)
	if err != nil {
		return nil, fmt.Errorf("canonicalize root: %w", err)
	}

	return &Resolver{root: canonical}, nil
}

// WithDisplayRoot returns a copy that accepts absolute candidates expressed
// under the display root and rebases them onto the real root.
func (r *Resolver) WithDisplayRoot(display string) *Resolver {
	cp := *r
	if display != "" && filepath.IsAbs(display) {
		cp.display = filepath.Clean(display)
	}
	return &cp
}

// Root returns the canonical root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve joins candidate onto the root, canonicalizes it and verifies that
// the result still lies inside the root.
func (r *Resolver) Resolve(candidate string) (string, error) {
	canonical, err := canonicalize(r.join(candidate))
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", candidate, err)
	}

	if !r.Contains(canonical) {
		return "", &EscapeError{Path: candidate}
	}
	return canonical, nil
}

// ResolveAbs canonicalizes a path the service built itself, such as a
// snapshot name next to a resolved file or a destination inside a tree
// copy, and verifies it lies inside the root. Unlike Resolve it never
// rebases through the display root. Relative paths are taken from the root.
func (r *Resolver) ResolveAbs(path string) (string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, path)
	}

	canonical, err := canonicalize(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}

	if !r.Contains(canonical) {
		return "", &EscapeError{Path: filepath.Base(path)}
	}
	return canonical, nil
}

// Lexical returns the joined, cleaned form of candidate without touching the
// file system. It is used to inspect the caller-named entry itself (for
// example to refuse symlinks) and must not be used for I/O.
func (r *Resolver) Lexical(candidate string) string {
	return filepath.Clean(r.join(candidate))
}

// Contains reports whether an already canonical path is the root or lies
// beneath it.
func (r *Resolver) Contains(path string) bool {
	if path == r.root {
		return true
	}
	prefix := r.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(path, prefix)
}

func (r *Resolver) join(candidate string) string {
	if strings.Trim(candidate, `/`+string(filepath.Separator)) == "" {
		return r.root
	}

	if filepath.IsAbs(candidate) {
		if r.display != "" && r.display != r.root {
			if rel, ok := relativeTo(r.display, filepath.Clean(candidate)); ok {
				return filepath.Join(r.root, rel)
			}
		}
		return candidate
	}

	// Left unclean so ".." is evaluated after any symlink it follows.
	return r.root + string(filepath.Separator) + candidate
}

// canonicalize resolves ".", ".." and symlinks in an absolute path. Components
// that cannot be inspected (missing, not a directory) are kept lexically.
func canonicalize(path string) (string, error) {
	vol := filepath.VolumeName(path)
	sep := string(filepath.Separator)
	resolved := vol + sep
	pending := splitComponents(path[len(vol):])
	links := 0

	for len(pending) > 0 {
		part := pending[0]
		pending = pending[1:]

		switch part {
		case ".":
			continue
		case "..":
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, part)
		info, err := os.Lstat(next)
		if err != nil || info.Mode()&fs.ModeSymlink == 0 {
			resolved = next
			continue
		}

		links++
		if links > maxLinks {
			return "", &fs.PathError{Op: "canonicalize", Path: path, Err: syscall.ELOOP}
		}

		target, err := os.Readlink(next)
		if err != nil {
			return "", err
		}
		if filepath.IsAbs(target) {
			tv := filepath.VolumeName(target)
			resolved = tv + sep
			target = target[len(tv):]
		}
		pending = append(splitComponents(target), pending...)
	}

	return resolved, nil
}

func splitComponents(p string) []string {
	return strings.FieldsFunc(p, func(r rune) bool {
		return r == '/' || r == filepath.Separator
	})
}

// relativeTo returns path relative to base when path is base or beneath it.
func relativeTo(base, path string) (string, bool) {
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", false
	}
	return rel, true
}
