package filesystem

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
)

// DirectoryOps handles directory operations
type DirectoryOps struct {
	*FilesystemOps
}

// GetTools returns directory operation tool definitions
func (d *DirectoryOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.cwd",
			Name:        "Current Directory",
			Description: "Report the working directory as callers should see it",
			Parameters:  []types.Parameter{},
			Returns:     "object",
		},
		{
			ID:          "filesystem.folder.create",
			Name:        "Create Folder",
			Description: "Create a folder and any missing parents",
			Parameters: []types.Parameter{
				{Name: "folder_name", Type: "string", Description: "Folder name or path", Required: true},
				{Name: "base_dir", Type: "string", Description: "Directory the name is relative to", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.folder.delete",
			Name:        "Delete Folder",
			Description: "Delete a folder and everything under it",
			Parameters: []types.Parameter{
				{Name: "folder_name", Type: "string", Description: "Folder name or path", Required: true},
				{Name: "base_dir", Type: "string", Description: "Directory the name is relative to", Required: false},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.list",
			Name:        "List Directory",
			Description: "List directory entries sorted case-insensitively",
			Parameters: []types.Parameter{
				{Name: "base_dir", Type: "string", Description: "Directory to list (default root)", Required: false},
				{Name: "include_hidden", Type: "boolean", Description: "Include dotfiles", Required: false},
			},
			Returns: "object",
		},
	}
}

// Cwd reports the display root
func (d *DirectoryOps) Cwd(ctx context.Context, params Params) (*types.Result, error) {
	root := d.Resolver.Root()
	if _, err := os.Stat(root); err != nil {
		return d.Failure("cwd", types.SubjectFolder, fmt.Errorf("current working directory does not exist: %w", err), root)
	}
	return d.Success("cwd", &types.FolderOp{Path: d.Mapper.DisplayRoot()}, root)
}

// Create makes a folder; an existing folder is not an error
func (d *DirectoryOps) Create(ctx context.Context, params Params) (*types.Result, error) {
	t, err := d.param(params, "folder_name", "base_dir")
	if err != nil {
		return d.Failure("create", types.SubjectFolder, err, "")
	}
	name := params.OptString("folder_name", "")

	if info, err := os.Stat(t.Path); err == nil {
		if !info.IsDir() {
			return d.Failure("create", types.SubjectFolder, invalidf("path exists and is not a directory"), t.Path)
		}
		r, _ := d.Success("create", &types.FolderOp{Path: d.display(t.Path), AlreadyExists: true}, t.Path)
		return r.WithMessage(fmt.Sprintf("Folder '%s' already exists", name)), nil
	}

	if err := os.MkdirAll(t.Path, 0o755); err != nil {
		return d.Failure("create", types.SubjectFolder, fmt.Errorf("failed to create folder: %w", err), t.Path)
	}
	r, _ := d.Success("create", &types.FolderOp{Path: d.display(t.Path)}, t.Path)
	return r.WithMessage(fmt.Sprintf("Folder '%s' created successfully", name)), nil
}

// Delete removes a folder recursively. The sandbox root itself is kept.
func (d *DirectoryOps) Delete(ctx context.Context, params Params) (*types.Result, error) {
	t, err := d.param(params, "folder_name", "base_dir")
	if err != nil {
		return d.Failure("delete", types.SubjectFolder, err, "")
	}
	if t.Path == d.Resolver.Root() {
		return d.Failure("delete", types.SubjectFolder, invalidf("refusing to delete the root directory"), t.Path)
	}
	if _, err := requireDir(t, "folder"); err != nil {
		return d.Failure("delete", types.SubjectFolder, err, t.Path)
	}

	if err := os.RemoveAll(t.Path); err != nil {
		return d.Failure("delete", types.SubjectFolder, fmt.Errorf("failed to delete folder: %w", err), t.Path)
	}
	r, _ := d.Success("delete", &types.FolderOp{Path: d.display(t.Path)}, t.Path)
	return r.WithMessage(fmt.Sprintf("Folder '%s' deleted successfully", params.OptString("folder_name", ""))), nil
}

// List returns the entries of a directory. Entries that cannot be stat'd
// are reported with their error instead of failing the listing.
func (d *DirectoryOps) List(ctx context.Context, params Params) (*types.Result, error) {
	t, err := d.locate(params.OptString("base_dir", "."), "")
	if err != nil {
		return d.Failure("list", types.SubjectFolder, err, "")
	}

	info, err := os.Stat(t.Path)
	if err != nil {
		return d.Failure("list", types.SubjectFolder, fmt.Errorf("path does not exist: %w", err), t.Path)
	}
	if !info.IsDir() {
		return d.Failure("list", types.SubjectFolder, invalidf("path is not a directory"), t.Path)
	}

	dirents, err := os.ReadDir(t.Path)
	if err != nil {
		return d.Failure("list", types.SubjectFolder, fmt.Errorf("failed to list directory: %w", err), t.Path)
	}
	sort.SliceStable(dirents, func(i, j int) bool {
		return strings.ToLower(dirents[i].Name()) < strings.ToLower(dirents[j].Name())
	})

	includeHidden := params.OptBool("include_hidden", false)
	entries := make([]types.FileInfo, 0, len(dirents))
	for _, de := range dirents {
		if !includeHidden && strings.HasPrefix(de.Name(), ".") {
			continue
		}
		full := filepath.Join(t.Path, de.Name())
		fi, err := de.Info()
		if err != nil {
			entries = append(entries, types.FileInfo{
				Name:  de.Name(),
				Path:  d.display(full),
				Type:  "unknown",
				Error: d.Mapper.Scrub(err.Error()),
			})
			continue
		}
		entries = append(entries, d.describe(full, fi))
	}

	return d.Success("list", &types.FolderOp{
		Path:    d.display(t.Path),
		Entries: entries,
		Count:   len(entries),
	}, t.Path)
}
