package filesystem

import (
	"context"
	"fmt"
	"os"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
)

// BasicOps handles single-file operations
type BasicOps struct {
	*FilesystemOps
}

// GetTools returns basic file operation tool definitions
func (b *BasicOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.file.create",
			Name:        "Create File",
			Description: "Create a file (replacing any existing one) with optional content",
			Parameters: []types.Parameter{
				{Name: "file_name", Type: "string", Description: "File name or path", Required: true},
				{Name: "content", Type: "string", Description: "Initial content", Required: false},
				{Name: "encoding", Type: "string", Description: "utf-8 (default), base64 or a charset name", Required: false},
				{Name: "base_dir", Type: "string", Description: "Directory the name is relative to", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.file.read",
			Name:        "Read File",
			Description: "Read file contents; binary files come back base64 encoded",
			Parameters: []types.Parameter{
				{Name: "file_name", Type: "string", Description: "File name or path", Required: true},
				{Name: "base_dir", Type: "string", Description: "Directory the name is relative to", Required: false},
				{Name: "force_binary", Type: "boolean", Description: "Always return base64", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.file.write",
			Name:        "Write File",
			Description: "Atomically replace file contents",
			Parameters: []types.Parameter{
				{Name: "file_name", Type: "string", Description: "File name or path", Required: true},
				{Name: "content", Type: "string", Description: "Content to write", Required: true},
				{Name: "encoding", Type: "string", Description: "utf-8 (default), base64 or a charset name", Required: false},
				{Name: "base_dir", Type: "string", Description: "Directory the name is relative to", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.file.delete",
			Name:        "Delete File",
			Description: "Delete a file",
			Parameters: []types.Parameter{
				{Name: "file_name", Type: "string", Description: "File name or path", Required: true},
				{Name: "base_dir", Type: "string", Description: "Directory the name is relative to", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.exists",
			Name:        "Check Existence",
			Description: "Check if a file or directory exists",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "File or directory path", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.is_file",
			Name:        "Is File",
			Description: "Check if a path is a regular file",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Path to check", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.is_directory",
			Name:        "Is Directory",
			Description: "Check if a path is a directory",
			Parameters: []types.Parameter{
				{Name: "path", Type: "string", Description: "Path to check", Required: true},
			},
			Returns: "object",
		},
	}
}

// Create writes a new file, replacing any existing one
func (b *BasicOps) Create(ctx context.Context, params Params) (*types.Result, error) {
	return b.put(params, "create", false)
}

// Write atomically replaces file contents
func (b *BasicOps) Write(ctx context.Context, params Params) (*types.Result, error) {
	return b.put(params, "write", true)
}

func (b *BasicOps) put(params Params, action string, contentRequired bool) (*types.Result, error) {
	t, err := b.param(params, "file_name", "base_dir")
	if err != nil {
		return b.Failure(action, types.SubjectFile, err, "")
	}

	content, present := params["content"].(string)
	if contentRequired && !present {
		return b.Failure(action, types.SubjectFile, invalidf("content parameter required"), t.Path)
	}
	if err := refuseSymlink(t); err != nil {
		return b.Failure(action, types.SubjectFile, err, t.Path)
	}

	data, err := EncodeContent(content, params.OptString("encoding", ""))
	if err != nil {
		return b.Failure(action, types.SubjectFile, err, t.Path)
	}
	if err := b.Writer.Write(t.Path, data); err != nil {
		return b.Failure(action, types.SubjectFile, fmt.Errorf("failed to %s file: %w", action, err), t.Path)
	}

	r, _ := b.Success(action, &types.FileOp{Path: b.display(t.Path), Size: int64(len(data))}, t.Path)
	if action == "create" {
		r.WithMessage(fmt.Sprintf("File '%s' created successfully", params.OptString("file_name", "")))
	}
	return r, nil
}

// Read returns file contents, decoding text and base64-encoding binaries
func (b *BasicOps) Read(ctx context.Context, params Params) (*types.Result, error) {
	t, err := b.param(params, "file_name", "base_dir")
	if err != nil {
		return b.Failure("read", types.SubjectFile, err, "")
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return b.Failure("read", types.SubjectFile, fmt.Errorf("file not found: %w", err), t.Path)
	}
	if !info.Mode().IsRegular() {
		return b.Failure("read", types.SubjectFile, invalidf("path is not a file"), t.Path)
	}

	data, err := os.ReadFile(t.Path)
	if err != nil {
		return b.Failure("read", types.SubjectFile, fmt.Errorf("failed to read file: %w", err), t.Path)
	}

	decoded := decodeContent(data, params.OptBool("force_binary", false))
	return b.Success("read", &types.FileOp{
		Path:     b.display(t.Path),
		Content:  decoded.Content,
		Encoding: decoded.Encoding,
		Charset:  decoded.Charset,
		MimeType: decoded.MimeType,
		IsBinary: decoded.Binary,
		Size:     info.Size(),
	}, t.Path)
}

// Delete removes a single file
func (b *BasicOps) Delete(ctx context.Context, params Params) (*types.Result, error) {
	t, err := b.param(params, "file_name", "base_dir")
	if err != nil {
		return b.Failure("delete", types.SubjectFile, err, "")
	}
	if _, err := requireFile(t, "file"); err != nil {
		return b.Failure("delete", types.SubjectFile, err, t.Path)
	}
	if err := os.Remove(t.Path); err != nil {
		return b.Failure("delete", types.SubjectFile, fmt.Errorf("failed to delete file: %w", err), t.Path)
	}

	r, _ := b.Success("delete", &types.FileOp{Path: b.display(t.Path)}, t.Path)
	return r.WithMessage(fmt.Sprintf("File '%s' deleted successfully", params.OptString("file_name", ""))), nil
}

// Exists checks whether a path exists inside the sandbox
func (b *BasicOps) Exists(ctx context.Context, params Params) (*types.Result, error) {
	return b.probe(params, "exists")
}

// IsFile checks whether a path is a regular file
func (b *BasicOps) IsFile(ctx context.Context, params Params) (*types.Result, error) {
	return b.probe(params, "is_file")
}

// IsDirectory checks whether a path is a directory
func (b *BasicOps) IsDirectory(ctx context.Context, params Params) (*types.Result, error) {
	return b.probe(params, "is_directory")
}

func (b *BasicOps) probe(params Params, action string) (*types.Result, error) {
	t, err := b.param(params, "path", "base_dir")
	if err != nil {
		return b.Failure(action, types.SubjectFile, err, "")
	}

	exists, isFile, isDir := false, false, false
	if info, err := os.Stat(t.Path); err == nil {
		exists = true
		isFile = info.Mode().IsRegular()
		isDir = info.IsDir()
	}

	op := &types.FileOp{Path: b.display(t.Path)}
	switch action {
	case "is_file":
		op.IsFile = &isFile
	case "is_directory":
		op.IsDirectory = &isDir
	default:
		op.Exists = &exists
		op.IsFile = &isFile
		op.IsDirectory = &isDir
	}
	return b.Success(action, op, t.Path)
}
