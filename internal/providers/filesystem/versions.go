package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/paths"
)

const snapshotStamp = "20060102_150405"

// Version is one saved snapshot of a file.
type Version struct {
	Index     int
	Path      string
	CreatedAt time.Time
}

type versionEntry struct {
	mu       sync.Mutex
	versions []Version
}

// VersionStore keeps per-file snapshot sequences keyed by resolved path.
// History lives in memory only and is lost on restart.
type VersionStore struct {
	mu       sync.Mutex
	entries  map[string]*versionEntry
	writer   *AtomicWriter
	resolver *paths.Resolver
	now      func() time.Time
}

// NewVersionStore creates an empty store. When resolver is non-nil every
// snapshot path is confined by it.
func NewVersionStore(resolver *paths.Resolver, writer *AtomicWriter) *VersionStore {
	if writer == nil {
		writer = NewAtomicWriter()
	}
	return &VersionStore{
		entries:  make(map[string]*versionEntry),
		writer:   writer,
		resolver: resolver,
		now:      time.Now,
	}
}

func (s *VersionStore) entry(key string, create bool) *versionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok && create {
		e = &versionEntry{}
		s.entries[key] = e
	}
	return e
}

// Save snapshots the regular file at path and returns the new version.
// Indices start at 1 and grow by one per successful save.
func (s *VersionStore) Save(path string) (Version, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Version{}, err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return Version{}, ErrSymlink
	}
	if !info.Mode().IsRegular() {
		return Version{}, invalidf("%s is not a regular file", filepath.Base(path))
	}

	e := s.entry(path, true)
	e.mu.Lock()
	defer e.mu.Unlock()

	now := s.now()
	index := len(e.versions) + 1
	snapshot := filepath.Join(filepath.Dir(path), snapshotName(filepath.Base(path), index, now))
	if s.resolver != nil {
		if snapshot, err = s.resolver.ResolveAbs(snapshot); err != nil {
			return Version{}, err
		}
	}

	if _, err := os.Lstat(snapshot); err == nil {
		return Version{}, fmt.Errorf("snapshot %s already exists", filepath.Base(snapshot))
	} else if !errors.Is(err, fs.ErrNotExist) {
		return Version{}, err
	}

	if err := s.writer.CopyFile(path, snapshot); err != nil {
		return Version{}, err
	}

	v := Version{Index: index, Path: snapshot, CreatedAt: now}
	e.versions = append(e.versions, v)
	return v, nil
}

// Restore copies snapshot index back over path, recreating it if needed.
// History is left unchanged.
func (s *VersionStore) Restore(path string, index int) (Version, error) {
	e := s.entry(path, false)
	if e == nil {
		return Version{}, &VersionRangeError{Requested: index, Available: 0}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if index < 1 || index > len(e.versions) {
		return Version{}, &VersionRangeError{Requested: index, Available: len(e.versions)}
	}
	v := e.versions[index-1]

	info, err := os.Lstat(v.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Version{}, &VersionMissingError{Index: index, Snapshot: v.Path}
	case err != nil:
		return Version{}, err
	case info.Mode()&fs.ModeSymlink != 0:
		return Version{}, ErrSymlink
	case !info.Mode().IsRegular():
		return Version{}, &VersionMissingError{Index: index, Snapshot: v.Path}
	}

	if err := s.writer.CopyFile(v.Path, path); err != nil {
		return Version{}, err
	}
	return v, nil
}

// List returns a copy of the versions recorded for path.
func (s *VersionStore) List(path string) []Version {
	e := s.entry(path, false)
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]Version, len(e.versions))
	copy(out, e.versions)
	return out
}

// Len returns how many versions path has.
func (s *VersionStore) Len(path string) int {
	e := s.entry(path, false)
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.versions)
}

// Keys returns every tracked path, sorted.
func (s *VersionStore) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.entries))
	for k, e := range s.entries {
		e.mu.Lock()
		n := len(e.versions)
		e.mu.Unlock()
		if n > 0 {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// snapshotName builds "<stem>_v<index>_<stamp><ext>". Dotfiles keep their
// whole name as the stem.
func snapshotName(base string, index int, at time.Time) string {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem, ext = base, ""
	}
	return fmt.Sprintf("%s_v%d_%s%s", stem, index, at.Format(snapshotStamp), ext)
}
