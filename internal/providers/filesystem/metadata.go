package filesystem

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
	"github.com/GriffinCanCode/sandboxfs/internal/shared/utils"
	"github.com/gabriel-vasile/mimetype"
)

// MetadataOps handles file metadata operations
type MetadataOps struct {
	*FilesystemOps
}

// GetTools returns metadata tool definitions
func (m *MetadataOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.metadata",
			Name:        "File Metadata",
			Description: "Get size, mode and timestamps of a file or folder",
			Parameters: []types.Parameter{
				{Name: "file_name", Type: "string", Description: "File or folder name", Required: true},
				{Name: "base_dir", Type: "string", Description: "Directory the name is relative to", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.info",
			Name:        "Extended File Info",
			Description: "Metadata plus MIME type, binary detection and checksum",
			Parameters: []types.Parameter{
				{Name: "file_name", Type: "string", Description: "File name", Required: true},
				{Name: "base_dir", Type: "string", Description: "Directory the name is relative to", Required: false},
				{Name: "algorithm", Type: "string", Description: "sha256 (default) or blake2b", Required: false},
			},
			Returns: "object",
		},
	}
}

// Metadata returns stat information
func (m *MetadataOps) Metadata(ctx context.Context, params Params) (*types.Result, error) {
	t, err := m.param(params, "file_name", "base_dir")
	if err != nil {
		return m.Failure("metadata", types.SubjectFile, err, "")
	}

	info, err := os.Lstat(t.Named)
	if err != nil {
		return m.Failure("metadata", types.SubjectFile, fmt.Errorf("path does not exist: %w", err), t.Path)
	}
	fi := m.describe(t.Named, info)
	return m.Success("metadata", &types.FileOp{Path: fi.Path, Size: fi.Size, Info: &fi}, t.Path)
}

// Info returns extended information including MIME type and checksum.
// Files above the hash limit are reported without a checksum.
func (m *MetadataOps) Info(ctx context.Context, params Params) (*types.Result, error) {
	t, err := m.param(params, "file_name", "base_dir")
	if err != nil {
		return m.Failure("file_info_extended", types.SubjectFile, err, "")
	}

	algorithm, err := utils.ParseHashAlgorithm(strings.ToLower(params.OptString("algorithm", "sha256")))
	if err != nil {
		return m.Failure("file_info_extended", types.SubjectFile, invalidf("%v", err), t.Path)
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return m.Failure("file_info_extended", types.SubjectFile, fmt.Errorf("file does not exist: %w", err), t.Path)
	}
	fi := m.describe(t.Path, info)

	if info.Mode().IsRegular() {
		if mtype, err := mimetype.DetectFile(t.Path); err == nil {
			fi.MimeType = mtype.String()
		}
		binary, err := sniffFile(t.Path)
		if err == nil {
			fi.IsBinary = &binary
		}
		if info.Size() < m.Options.HashLimit {
			if sum, err := utils.NewHasher(algorithm).HashFile(t.Path); err == nil {
				fi.Checksum, fi.Algorithm = sum, string(algorithm)
			}
		}
	}

	return m.Success("file_info_extended", &types.FileOp{Path: fi.Path, Size: fi.Size, Info: &fi}, t.Path)
}

// sniffFile applies the NUL-byte binary check to the head of a file.
func sniffFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return isBinary(head[:n]), nil
}
