package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
)

// ArchivesOps exposes the archive codec as tools
type ArchivesOps struct {
	*FilesystemOps
}

// GetTools returns archive tool definitions
func (a *ArchivesOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.compress",
			Name:        "Compress File",
			Description: "Compress a single file into zip, tar, tar.gz or tar.zst",
			Parameters: []types.Parameter{
				{Name: "file_name", Type: "string", Description: "File to compress", Required: true},
				{Name: "output_filename", Type: "string", Description: "Archive to create", Required: true},
				{Name: "format", Type: "string", Description: "zip (default), tar, gztar or tar.zst", Required: false},
				{Name: "base_dir", Type: "string", Description: "Directory both names are relative to", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.decompress",
			Name:        "Decompress Archive",
			Description: "Extract an archive; any member resolving outside the output directory aborts the extraction",
			Parameters: []types.Parameter{
				{Name: "file_name", Type: "string", Description: "Archive to extract", Required: true},
				{Name: "output_directory", Type: "string", Description: "Directory to extract into", Required: true},
				{Name: "base_dir", Type: "string", Description: "Directory both names are relative to", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.archive.list",
			Name:        "List Archive",
			Description: "List the members stored in an archive without extracting",
			Parameters: []types.Parameter{
				{Name: "file_name", Type: "string", Description: "Archive to inspect", Required: true},
				{Name: "base_dir", Type: "string", Description: "Directory the name is relative to", Required: false},
			},
			Returns: "object",
		},
	}
}

// Compress archives a single file
func (a *ArchivesOps) Compress(ctx context.Context, params Params) (*types.Result, error) {
	src, err := a.param(params, "file_name", "base_dir")
	if err != nil {
		return a.Failure("compress", types.SubjectArchive, err, "")
	}
	out, err := a.param(params, "output_filename", "base_dir")
	if err != nil {
		return a.Failure("compress", types.SubjectArchive, err, src.Path)
	}
	format, err := ParseFormat(params.OptString("format", "zip"))
	if err != nil {
		return a.Failure("compress", types.SubjectArchive, err, src.Path)
	}
	if err := refuseSymlink(src); err != nil {
		return a.Failure("compress", types.SubjectArchive, fmt.Errorf("cannot compress symlinks: %w", err), src.Path)
	}
	if err := refuseSymlink(out); err != nil {
		return a.Failure("compress", types.SubjectArchive, err, out.Path)
	}

	if err := a.Codec.Compress(ctx, src.Path, out.Path, format); err != nil {
		return a.Failure("compress", types.SubjectArchive, err, src.Path)
	}

	op := &types.ArchiveOp{
		Source:  a.display(src.Path),
		Archive: a.display(out.Path),
		Format:  string(format),
		Count:   1,
	}
	if info, err := os.Stat(out.Path); err == nil {
		op.Size = info.Size()
	}
	return a.Success("compress", op, out.Path)
}

// Decompress extracts an archive into the output directory
func (a *ArchivesOps) Decompress(ctx context.Context, params Params) (*types.Result, error) {
	archive, err := a.param(params, "file_name", "base_dir")
	if err != nil {
		return a.Failure("decompress", types.SubjectArchive, err, "")
	}
	out, err := a.param(params, "output_directory", "base_dir")
	if err != nil {
		return a.Failure("decompress", types.SubjectArchive, err, archive.Path)
	}
	if err := refuseSymlink(archive); err != nil {
		return a.Failure("decompress", types.SubjectArchive, fmt.Errorf("cannot decompress symlinks: %w", err), archive.Path)
	}

	files, err := a.Codec.Extract(ctx, archive.Path, out.Path)
	if err != nil {
		r, _ := a.Failure("decompress", types.SubjectArchive, err, archive.Path)
		var unsafe *UnsafeMemberError
		if errors.As(err, &unsafe) {
			r.WithPayload(&types.ArchiveOp{Archive: a.display(archive.Path), Member: unsafe.Member})
		}
		return r, nil
	}

	return a.Success("decompress", &types.ArchiveOp{
		Archive:   a.display(archive.Path),
		OutputDir: a.display(out.Path),
		Files:     a.Mapper.ToDisplayAll(files),
		Count:     len(files),
	}, out.Path)
}

// List reports archive member names as stored
func (a *ArchivesOps) List(ctx context.Context, params Params) (*types.Result, error) {
	archive, err := a.param(params, "file_name", "base_dir")
	if err != nil {
		return a.Failure("archive_list", types.SubjectArchive, err, "")
	}
	if _, err := requireFile(archive, "archive"); err != nil {
		return a.Failure("archive_list", types.SubjectArchive, err, archive.Path)
	}

	names, err := a.Codec.List(ctx, archive.Path)
	if err != nil {
		return a.Failure("archive_list", types.SubjectArchive, err, archive.Path)
	}
	format, _ := DetectFormat(archive.Path)
	return a.Success("archive_list", &types.ArchiveOp{
		Archive: a.display(archive.Path),
		Format:  string(format),
		Files:   names,
		Count:   len(names),
	}, archive.Path)
}
