package filesystem

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
)

// OperationsOps handles copy, move and rename
type OperationsOps struct {
	*FilesystemOps
}

// GetTools returns file manipulation tool definitions
func (o *OperationsOps) GetTools() []types.Tool {
	fileParams := []types.Parameter{
		{Name: "src_file", Type: "string", Description: "Source file", Required: true},
		{Name: "dest_file", Type: "string", Description: "Destination file", Required: true},
		{Name: "src_base_dir", Type: "string", Description: "Directory the source is relative to", Required: false},
		{Name: "dest_base_dir", Type: "string", Description: "Directory the destination is relative to", Required: false},
	}
	folderParams := []types.Parameter{
		{Name: "src_folder", Type: "string", Description: "Source folder", Required: true},
		{Name: "dest_folder", Type: "string", Description: "Destination folder", Required: true},
		{Name: "src_base_dir", Type: "string", Description: "Directory the source is relative to", Required: false},
		{Name: "dest_base_dir", Type: "string", Description: "Directory the destination is relative to", Required: false},
	}

	return []types.Tool{
		{
			ID:          "filesystem.file.copy",
			Name:        "Copy File",
			Description: "Copy a file, keeping mode and modification time",
			Parameters:  fileParams,
			Returns:     "object",
		},
		{
			ID:          "filesystem.file.move",
			Name:        "Move File",
			Description: "Move or rename a file",
			Parameters:  fileParams,
			Returns:     "object",
		},
		{
			ID:          "filesystem.folder.copy",
			Name:        "Copy Folder",
			Description: "Copy a folder tree, merging into an existing destination; symlinks are skipped",
			Parameters:  folderParams,
			Returns:     "object",
		},
		{
			ID:          "filesystem.folder.move",
			Name:        "Move Folder",
			Description: "Move or rename a folder",
			Parameters:  folderParams,
			Returns:     "object",
		},
		{
			ID:          "filesystem.batch_rename",
			Name:        "Batch Rename",
			Description: "Replace a substring in the names of a directory's entries",
			Parameters: []types.Parameter{
				{Name: "directory", Type: "string", Description: "Directory holding the entries", Required: true},
				{Name: "old_pattern", Type: "string", Description: "Substring to replace", Required: true},
				{Name: "new_pattern", Type: "string", Description: "Replacement", Required: true},
			},
			Returns: "object",
		},
	}
}

func (o *OperationsOps) pair(params Params, srcKey, dstKey string) (src, dst target, err error) {
	if src, err = o.param(params, srcKey, "src_base_dir"); err != nil {
		return
	}
	dst, err = o.param(params, dstKey, "dest_base_dir")
	return
}

// CopyFile copies a single regular file
func (o *OperationsOps) CopyFile(ctx context.Context, params Params) (*types.Result, error) {
	src, dst, err := o.pair(params, "src_file", "dest_file")
	if err != nil {
		return o.Failure("copy", types.SubjectFile, err, "")
	}
	if _, err := requireFile(src, "source file"); err != nil {
		return o.Failure("copy", types.SubjectFile, err, src.Path)
	}
	if err := refuseSymlink(dst); err != nil {
		return o.Failure("copy", types.SubjectFile, err, dst.Path)
	}

	if err := o.Writer.CopyFile(src.Path, dst.Path); err != nil {
		return o.Failure("copy", types.SubjectFile, fmt.Errorf("failed to copy file: %w", err), src.Path)
	}
	return o.Success("copy", &types.FileOp{Path: o.display(src.Path), Destination: o.display(dst.Path)}, dst.Path)
}

// MoveFile moves a single regular file
func (o *OperationsOps) MoveFile(ctx context.Context, params Params) (*types.Result, error) {
	src, dst, err := o.pair(params, "src_file", "dest_file")
	if err != nil {
		return o.Failure("move", types.SubjectFile, err, "")
	}
	if _, err := requireFile(src, "source file"); err != nil {
		return o.Failure("move", types.SubjectFile, err, src.Path)
	}
	if err := refuseSymlink(dst); err != nil {
		return o.Failure("move", types.SubjectFile, err, dst.Path)
	}

	if err := o.rename(ctx, src.Path, dst.Path, false); err != nil {
		return o.Failure("move", types.SubjectFile, fmt.Errorf("failed to move file: %w", err), src.Path)
	}
	return o.Success("move", &types.FileOp{Path: o.display(src.Path), Destination: o.display(dst.Path)}, dst.Path)
}

// CopyFolder copies a directory tree into dest, merging with existing content
func (o *OperationsOps) CopyFolder(ctx context.Context, params Params) (*types.Result, error) {
	src, dst, err := o.pair(params, "src_folder", "dest_folder")
	if err != nil {
		return o.Failure("copy", types.SubjectFolder, err, "")
	}
	if _, err := requireDir(src, "source folder"); err != nil {
		return o.Failure("copy", types.SubjectFolder, err, src.Path)
	}
	if err := o.checkNesting(src.Path, dst.Path); err != nil {
		return o.Failure("copy", types.SubjectFolder, err, src.Path)
	}
	if err := os.MkdirAll(dst.Path, 0o755); err != nil {
		return o.Failure("copy", types.SubjectFolder, fmt.Errorf("failed to copy folder: %w", err), dst.Path)
	}

	report, err := o.copyTree(ctx, src.Path, dst.Path, copyAlways)
	if err != nil {
		return o.Failure("copy", types.SubjectFolder, fmt.Errorf("failed to copy folder: %w", err), src.Path)
	}
	return o.Success("copy", &types.FolderOp{
		Path:        o.display(src.Path),
		Destination: o.display(dst.Path),
		Count:       len(report.copied),
		Failed:      append(report.skipped, report.failed...),
	}, dst.Path)
}

// MoveFolder moves a directory tree
func (o *OperationsOps) MoveFolder(ctx context.Context, params Params) (*types.Result, error) {
	src, dst, err := o.pair(params, "src_folder", "dest_folder")
	if err != nil {
		return o.Failure("move", types.SubjectFolder, err, "")
	}
	if src.Path == o.Resolver.Root() {
		return o.Failure("move", types.SubjectFolder, invalidf("refusing to move the root directory"), src.Path)
	}
	if _, err := requireDir(src, "source folder"); err != nil {
		return o.Failure("move", types.SubjectFolder, err, src.Path)
	}
	if err := o.checkNesting(src.Path, dst.Path); err != nil {
		return o.Failure("move", types.SubjectFolder, err, src.Path)
	}

	if err := o.rename(ctx, src.Path, dst.Path, true); err != nil {
		return o.Failure("move", types.SubjectFolder, fmt.Errorf("failed to move folder: %w", err), src.Path)
	}
	return o.Success("move", &types.FolderOp{Path: o.display(src.Path), Destination: o.display(dst.Path)}, dst.Path)
}

// checkNesting rejects a destination equal to or inside the source tree.
func (o *OperationsOps) checkNesting(src, dst string) error {
	if dst == src || isWithin(src, dst) {
		return invalidf("destination is inside the source folder")
	}
	return nil
}

// rename moves src onto dst, falling back to copy and delete across devices.
func (o *OperationsOps) rename(ctx context.Context, src, dst string, dir bool) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	err := os.Rename(src, dst)
	if err == nil || !errors.Is(err, syscall.EXDEV) {
		return err
	}

	if !dir {
		if err := o.Writer.CopyFile(src, dst); err != nil {
			return err
		}
		return os.Remove(src)
	}

	report, err := o.copyTree(ctx, src, dst, copyAlways)
	if err != nil {
		return err
	}
	if len(report.failed) > 0 || len(report.skipped) > 0 {
		return fmt.Errorf("cross-device move incomplete: %d entries not copied", len(report.failed)+len(report.skipped))
	}
	return os.RemoveAll(src)
}

// BatchRename renames every entry whose name contains old_pattern. Each
// entry gets its own result; failures never stop the batch.
func (o *OperationsOps) BatchRename(ctx context.Context, params Params) (*types.Result, error) {
	dir, err := o.param(params, "directory", "base_dir")
	if err != nil {
		return o.Failure("batch_rename", types.SubjectFolder, err, "")
	}
	oldPattern, err := params.String("old_pattern")
	if err != nil {
		return o.Failure("batch_rename", types.SubjectFolder, err, dir.Path)
	}
	newPattern, ok := params["new_pattern"].(string)
	if !ok {
		return o.Failure("batch_rename", types.SubjectFolder, invalidf("new_pattern parameter required"), dir.Path)
	}
	if _, err := requireDir(dir, "directory"); err != nil {
		return o.Failure("batch_rename", types.SubjectFolder, err, dir.Path)
	}

	dirents, err := os.ReadDir(dir.Path)
	if err != nil {
		return o.Failure("batch_rename", types.SubjectFolder, fmt.Errorf("failed to access directory: %w", err), dir.Path)
	}
	sort.Slice(dirents, func(i, j int) bool { return dirents[i].Name() < dirents[j].Name() })

	op := &types.FolderOp{Path: o.display(dir.Path)}
	var items []*types.Result
	for _, de := range dirents {
		if err := ctx.Err(); err != nil {
			return o.Failure("batch_rename", types.SubjectFolder, err, dir.Path)
		}
		name := de.Name()
		if !strings.Contains(name, oldPattern) {
			continue
		}

		from := filepath.Join(dir.Path, name)
		to := filepath.Join(dir.Path, strings.ReplaceAll(name, oldPattern, newPattern))
		fileOp := &types.FileOp{Path: o.display(from), Destination: o.display(to)}

		if err := o.renameEntry(de.Type(), name, strings.ReplaceAll(name, oldPattern, newPattern), from, to); err != nil {
			kind := Classify(err)
			msg := o.Mapper.Scrub(err.Error())
			op.Failed = append(op.Failed, types.Failure{Path: fileOp.Path, Kind: kind, Reason: msg})
			items = append(items, types.Fail("rename", types.SubjectFile, kind, msg).WithPayload(fileOp))
			continue
		}

		op.Renamed = append(op.Renamed, types.Rename{From: fileOp.Path, To: fileOp.Destination})
		items = append(items, types.Succeed("rename", types.SubjectFile, fileOp))
	}
	op.Count = len(op.Renamed)

	r, _ := o.Success("batch_rename", op, dir.Path)
	r.Items = items
	return r.WithMessage(fmt.Sprintf("Batch rename completed: %d renamed, %d failed", len(op.Renamed), len(op.Failed))), nil
}

func (o *OperationsOps) renameEntry(mode os.FileMode, oldName, newName, from, to string) error {
	switch {
	case mode&os.ModeSymlink != 0:
		return fmt.Errorf("cannot rename %s: %w", oldName, ErrSymlink)
	case newName == "" || newName == "." || newName == ".." || strings.ContainsAny(newName, `/\`):
		return invalidf("invalid new name %q", newName)
	case newName == oldName:
		return nil
	}
	if _, err := os.Lstat(to); err == nil {
		return fmt.Errorf("cannot rename %s: %s already exists", oldName, newName)
	}
	return os.Rename(from, to)
}
