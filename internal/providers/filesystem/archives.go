package filesystem

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/paths"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/klauspost/compress/zstd"
)

// Format is a supported archive container
type Format string

const (
	FormatZip    Format = "zip"
	FormatTar    Format = "tar"
	FormatTarGz  Format = "tar.gz"
	FormatTarZst Format = "tar.zst"
)

// ParseFormat accepts a format name or one of its aliases.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "zip":
		return FormatZip, nil
	case "tar":
		return FormatTar, nil
	case "tar.gz", "gztar", "tgz", "gzip":
		return FormatTarGz, nil
	case "tar.zst", "tzst", "zstd", "zsttar":
		return FormatTarZst, nil
	}
	return "", &ArchiveFormatError{Name: name, Reason: "unsupported format"}
}

// DetectFormat picks the container format from a file name suffix.
func DetectFormat(name string) (Format, error) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return FormatZip, nil
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return FormatTarGz, nil
	case strings.HasSuffix(lower, ".tar.zst"), strings.HasSuffix(lower, ".tzst"):
		return FormatTarZst, nil
	case strings.HasSuffix(lower, ".tar"):
		return FormatTar, nil
	}
	return "", &ArchiveFormatError{Name: filepath.Base(name), Reason: "unsupported format"}
}

// Extension returns the canonical file suffix for the format.
func (f Format) Extension() string {
	return "." + string(f)
}

// ArchiveCodec compresses single files and extracts archives with every
// member confined to the output directory.
type ArchiveCodec struct {
	writer   *AtomicWriter
	pool     *Pool
	maxBytes int64
}

// NewArchiveCodec creates a codec. maxBytes caps the declared uncompressed
// size of an archive; zero disables the cap.
func NewArchiveCodec(writer *AtomicWriter, pool *Pool, maxBytes int64) *ArchiveCodec {
	if writer == nil {
		writer = NewAtomicWriter()
	}
	if pool == nil {
		pool = NewPool(0)
	}
	return &ArchiveCodec{writer: writer, pool: pool, maxBytes: maxBytes}
}

// Compress writes src into a new archive at dst holding a single member named
// after src's base name. Symlinks are refused.
func (c *ArchiveCodec) Compress(ctx context.Context, src, dst string, format Format) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return ErrSymlink
	}
	if !info.Mode().IsRegular() {
		return invalidf("%s is not a regular file", filepath.Base(src))
	}

	return c.pool.Do(ctx, func() error {
		return c.writer.WriteFrom(dst, func(out io.Writer) error {
			return writeArchive(out, src, info, format)
		})
	})
}

func writeArchive(out io.Writer, src string, info fs.FileInfo, format Format) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	name := filepath.Base(src)

	switch format {
	case FormatZip:
		zw := zip.NewWriter(out)
		hdr, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		hdr.Name = name
		hdr.Method = zip.Deflate
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return err
		}
		if _, err := io.Copy(w, in); err != nil {
			return err
		}
		return zw.Close()

	case FormatTar:
		return writeTar(out, in, info, name)

	case FormatTarGz:
		gz := gzip.NewWriter(out)
		if err := writeTar(gz, in, info, name); err != nil {
			gz.Close()
			return err
		}
		return gz.Close()

	case FormatTarZst:
		zw, err := zstd.NewWriter(out)
		if err != nil {
			return err
		}
		if err := writeTar(zw, in, info, name); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	}

	return &ArchiveFormatError{Name: string(format), Reason: "unsupported format"}
}

func writeTar(out io.Writer, in io.Reader, info fs.FileInfo, name string) error {
	tw := tar.NewWriter(out)
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = name
	hdr.Uname, hdr.Gname = "", ""
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	if _, err := io.Copy(tw, in); err != nil {
		return err
	}
	return tw.Close()
}

// Extract unpacks archive into outDir and returns the absolute paths of the
// regular files written. Every member is validated before anything is
// written; a single unsafe member fails the whole extraction.
func (c *ArchiveCodec) Extract(ctx context.Context, archive, outDir string) ([]string, error) {
	format, err := DetectFormat(archive)
	if err != nil {
		return nil, err
	}

	info, err := os.Lstat(archive)
	if err != nil {
		return nil, err
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		return nil, ErrSymlink
	}
	if !info.Mode().IsRegular() {
		return nil, invalidf("%s is not a regular file", filepath.Base(archive))
	}

	var files []string
	err = c.pool.Do(ctx, func() error {
		confine, err := paths.NewResolver(outDir)
		if err != nil {
			return err
		}

		if err := c.validate(ctx, archive, format, confine); err != nil {
			return err
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		files, err = c.unpack(ctx, archive, format, confine)
		return err
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// List returns the raw member names stored in archive.
func (c *ArchiveCodec) List(ctx context.Context, archive string) ([]string, error) {
	format, err := DetectFormat(archive)
	if err != nil {
		return nil, err
	}

	var names []string
	err = c.pool.Do(ctx, func() error {
		return eachMember(ctx, archive, format, func(m member) error {
			names = append(names, m.name)
			return nil
		})
	})
	return names, err
}

func (c *ArchiveCodec) validate(ctx context.Context, archive string, format Format, confine *paths.Resolver) error {
	var total int64
	return eachMember(ctx, archive, format, func(m member) error {
		if _, err := confineMember(confine, m.name); err != nil {
			return err
		}
		if m.regular {
			total += m.size
			if c.maxBytes > 0 && total > c.maxBytes {
				return &ArchiveFormatError{
					Name:   filepath.Base(archive),
					Reason: fmt.Sprintf("uncompressed size exceeds limit of %d bytes", c.maxBytes),
				}
			}
		}
		return nil
	})
}

func (c *ArchiveCodec) unpack(ctx context.Context, archive string, format Format, confine *paths.Resolver) ([]string, error) {
	var files []string
	err := eachMember(ctx, archive, format, func(m member) error {
		dest, err := confineMember(confine, m.name)
		if err != nil || dest == "" {
			return err
		}

		switch {
		case m.dir:
			return os.MkdirAll(dest, 0o755)
		case m.regular:
			rc, err := m.open()
			if err != nil {
				return &ArchiveFormatError{Name: m.name, Reason: "cannot open member", Err: err}
			}
			defer rc.Close()

			perm := m.mode.Perm()
			if perm == 0 {
				perm = 0o644
			}
			err = c.writer.write(dest, perm, m.mtime, func(out io.Writer) error {
				_, err := io.Copy(out, &memberReader{name: m.name, r: rc})
				return err
			})
			if err != nil {
				return err
			}
			files = append(files, dest)
		}
		return nil
	})
	return files, err
}

// sanitizeMember normalizes a stored member name into a relative path.
// An empty result denotes the archive root itself.
func sanitizeMember(name string) (string, error) {
	if strings.ContainsRune(name, 0) {
		return "", &UnsafeMemberError{Member: name}
	}

	n := strings.TrimLeft(strings.ReplaceAll(name, `\`, "/"), "/")
	if len(n) >= 2 && n[1] == ':' {
		return "", &UnsafeMemberError{Member: name}
	}

	clean := path.Clean(n)
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return "", &UnsafeMemberError{Member: name}
	}
	if clean == "." {
		return "", nil
	}
	return filepath.FromSlash(clean), nil
}

// confineMember maps a member onto its destination under the output
// directory, re-verifying containment after symlink resolution.
func confineMember(confine *paths.Resolver, name string) (string, error) {
	rel, err := sanitizeMember(name)
	if err != nil || rel == "" {
		return "", err
	}

	dest, err := confine.Resolve(rel)
	if err != nil {
		if errors.As(err, new(*paths.EscapeError)) {
			return "", &UnsafeMemberError{Member: name}
		}
		return "", err
	}
	if dest == confine.Root() {
		return "", nil
	}
	return dest, nil
}

type member struct {
	name    string
	dir     bool
	regular bool
	mode    fs.FileMode
	mtime   time.Time
	size    int64
	open    func() (io.ReadCloser, error)
}

func eachMember(ctx context.Context, archive string, format Format, visit func(member) error) error {
	if format == FormatZip {
		return eachZipMember(ctx, archive, visit)
	}
	return eachTarMember(ctx, archive, format, visit)
}

func eachZipMember(ctx context.Context, archive string, visit func(member) error) error {
	// A reader returned alongside an error only flags insecure member names,
	// which are judged per member by the visitor.
	zr, err := zip.OpenReader(archive)
	if zr == nil {
		return &ArchiveFormatError{Name: filepath.Base(archive), Reason: "corrupt zip container", Err: err}
	}
	defer zr.Close()

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		info := f.FileInfo()
		isDir := info.IsDir() || strings.HasSuffix(f.Name, "/")
		m := member{
			name:    f.Name,
			dir:     isDir,
			regular: !isDir && info.Mode().IsRegular(),
			mode:    info.Mode(),
			mtime:   info.ModTime(),
			size:    int64(f.UncompressedSize64),
			open:    f.Open,
		}
		if err := visit(m); err != nil {
			return err
		}
	}
	return nil
}

func eachTarMember(ctx context.Context, archive string, format Format, visit func(member) error) error {
	file, err := os.Open(archive)
	if err != nil {
		return err
	}
	defer file.Close()

	var src io.Reader = file
	switch format {
	case FormatTarGz:
		gz, err := gzip.NewReader(file)
		if err != nil {
			return &ArchiveFormatError{Name: filepath.Base(archive), Reason: "corrupt gzip stream", Err: err}
		}
		defer gz.Close()
		src = gz
	case FormatTarZst:
		zr, err := zstd.NewReader(file)
		if err != nil {
			return &ArchiveFormatError{Name: filepath.Base(archive), Reason: "corrupt zstd stream", Err: err}
		}
		defer zr.Close()
		src = zr
	}

	tr := tar.NewReader(src)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &ArchiveFormatError{Name: filepath.Base(archive), Reason: "corrupt tar stream", Err: err}
		}

		info := hdr.FileInfo()
		m := member{
			name:    hdr.Name,
			dir:     hdr.Typeflag == tar.TypeDir,
			regular: info.Mode().IsRegular(),
			mode:    info.Mode(),
			mtime:   hdr.ModTime,
			size:    hdr.Size,
			open: func() (io.ReadCloser, error) {
				return io.NopCloser(tr), nil
			},
		}
		if err := visit(m); err != nil {
			return err
		}
	}
}

// memberReader tags read failures as format errors so they are not mistaken
// for failures of the destination file system.
type memberReader struct {
	name string
	r    io.Reader
}

func (m *memberReader) Read(p []byte) (int, error) {
	n, err := m.r.Read(p)
	if err != nil && err != io.EOF {
		err = &ArchiveFormatError{Name: m.name, Reason: "corrupt member data", Err: err}
	}
	return n, err
}
