package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/paths"
	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
)

const (
	// DefaultMaxSearchFileSize bounds files scanned by content search
	DefaultMaxSearchFileSize int64 = 10 * 1024 * 1024

	// DefaultHashLimit bounds files hashed by the info tool
	DefaultHashLimit int64 = 100 * 1024 * 1024
)

// Options configures the sandbox a FilesystemOps serves.
type Options struct {
	Root              string
	DisplayRoot       string
	RelativePaths     bool
	MaxSearchFileSize int64
	Debug             bool
	ArchiveWorkers    int
	ArchiveMaxBytes   int64
	HashLimit         int64
}

// DefaultOptions returns options for root with relative display paths.
func DefaultOptions(root string) Options {
	return Options{
		Root:              root,
		RelativePaths:     true,
		MaxSearchFileSize: DefaultMaxSearchFileSize,
		HashLimit:         DefaultHashLimit,
	}
}

// FilesystemOps holds the primitives every tool family composes.
type FilesystemOps struct {
	Resolver *paths.Resolver
	Mapper   *paths.Mapper
	Writer   *AtomicWriter
	Codec    *ArchiveCodec
	Versions *VersionStore
	Options  Options
}

// NewFilesystemOps builds the shared primitives for opts.Root.
func NewFilesystemOps(opts Options) (*FilesystemOps, error) {
	resolver, err := paths.NewResolver(opts.Root)
	if err != nil {
		return nil, err
	}
	if opts.DisplayRoot != "" {
		resolver = resolver.WithDisplayRoot(opts.DisplayRoot)
	}
	if opts.MaxSearchFileSize <= 0 {
		opts.MaxSearchFileSize = DefaultMaxSearchFileSize
	}
	if opts.HashLimit <= 0 {
		opts.HashLimit = DefaultHashLimit
	}

	writer := NewAtomicWriter()
	return &FilesystemOps{
		Resolver: resolver,
		Mapper:   paths.NewMapper(resolver.Root(), opts.DisplayRoot, opts.RelativePaths),
		Writer:   writer,
		Codec:    NewArchiveCodec(writer, NewPool(opts.ArchiveWorkers), opts.ArchiveMaxBytes),
		Versions: NewVersionStore(resolver, writer),
		Options:  opts,
	}, nil
}

// target is a caller path after confinement.
type target struct {
	// Path is the canonical location, proven inside the root
	Path string
	// Named is the lexical location of the entry the caller named
	Named string
}

// joinBase prefixes name with base the way a shell would; an absolute
// name stands on its own.
func joinBase(base, name string) string {
	if base == "" || base == "." || filepath.IsAbs(name) {
		return name
	}
	return strings.TrimRight(base, string(filepath.Separator)) + string(filepath.Separator) + name
}

// locate confines a caller path, optionally under a base directory.
func (ops *FilesystemOps) locate(name, base string) (target, error) {
	candidate := joinBase(base, name)
	resolved, err := ops.Resolver.Resolve(candidate)
	if err != nil {
		return target{}, err
	}
	return target{Path: resolved, Named: ops.Resolver.Lexical(candidate)}, nil
}

// param reads a required path parameter plus the optional base directory.
func (ops *FilesystemOps) param(p Params, key, baseKey string) (target, error) {
	name, err := p.String(key)
	if err != nil {
		return target{}, err
	}
	return ops.locate(name, p.OptString(baseKey, ""))
}

// optParam is param with a default of the base directory itself.
func (ops *FilesystemOps) optParam(p Params, key, baseKey string) (target, error) {
	return ops.locate(p.OptString(key, "."), p.OptString(baseKey, ""))
}

// refuseSymlink fails when the named entry is itself a symlink.
func refuseSymlink(t target) error {
	info, err := os.Lstat(t.Named)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return ErrSymlink
	}
	return nil
}

// requireFile stats a regular file, refusing symlinks.
func requireFile(t target, what string) (fs.FileInfo, error) {
	if err := refuseSymlink(t); err != nil {
		return nil, err
	}
	info, err := os.Stat(t.Path)
	if err != nil {
		return nil, fmt.Errorf("%s does not exist: %w", what, err)
	}
	if info.IsDir() {
		return nil, invalidf("%s is a directory", what)
	}
	return info, nil
}

// requireDir stats a directory, refusing symlinks.
func requireDir(t target, what string) (fs.FileInfo, error) {
	if err := refuseSymlink(t); err != nil {
		return nil, err
	}
	info, err := os.Stat(t.Path)
	if err != nil {
		return nil, fmt.Errorf("%s does not exist: %w", what, err)
	}
	if !info.IsDir() {
		return nil, invalidf("%s is not a directory", what)
	}
	return info, nil
}

// display maps an absolute path to its caller-facing form.
func (ops *FilesystemOps) display(abs string) string {
	return ops.Mapper.ToDisplay(abs)
}

func (ops *FilesystemOps) debugInfo(actual string) *types.DebugInfo {
	if !ops.Options.Debug {
		return nil
	}
	info := &types.DebugInfo{
		ActualPath:               actual,
		IsSpoofed:                ops.Mapper.IsSpoofed(),
		RootRestrictionDirectory: ops.Resolver.Root(),
	}
	if actual != "" {
		info.DisplayPath = ops.display(actual)
	}
	if info.IsSpoofed {
		info.SpoofDirectoryRoot = ops.Mapper.DisplayRoot()
	}
	return info
}

// Success wraps payload in a successful envelope.
func (ops *FilesystemOps) Success(action string, payload types.Payload, actual string) (*types.Result, error) {
	r := types.Succeed(action, payload.Family(), payload)
	r.Debug = ops.debugInfo(actual)
	return r, nil
}

// Failure wraps err in a failed envelope, classified and scrubbed of the
// physical root unless debug mode is on.
func (ops *FilesystemOps) Failure(action string, subject types.Subject, err error, actual string) (*types.Result, error) {
	msg := err.Error()
	if !ops.Options.Debug {
		msg = ops.Mapper.Scrub(msg)
	}
	r := types.Fail(action, subject, Classify(err), msg)
	r.Debug = ops.debugInfo(actual)
	return r, nil
}

// entryType labels a file mode the way listings report it.
func entryType(mode fs.FileMode) string {
	switch {
	case mode&fs.ModeSymlink != 0:
		return "symlink"
	case mode.IsDir():
		return "dir"
	case mode.IsRegular():
		return "file"
	default:
		return "other"
	}
}

// describe converts stat output into the caller-facing entry.
func (ops *FilesystemOps) describe(abs string, info fs.FileInfo) types.FileInfo {
	fi := types.FileInfo{
		Name:        info.Name(),
		Path:        ops.display(abs),
		Type:        entryType(info.Mode()),
		Mode:        info.Mode().String(),
		Permissions: fmt.Sprintf("%#o", info.Mode().Perm()),
		Modified:    info.ModTime().UTC(),
		Extension:   filepath.Ext(info.Name()),
	}
	if !info.IsDir() {
		fi.Size = info.Size()
		fi.SizeHuman = formatBytes(info.Size())
	}
	fi.Created, fi.Accessed = statTimes(info)
	return fi
}

// formatBytes formats bytes to human-readable size
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"KB", "MB", "GB", "TB", "PB"}
	return fmt.Sprintf("%.2f %s", float64(bytes)/float64(div), units[exp])
}
