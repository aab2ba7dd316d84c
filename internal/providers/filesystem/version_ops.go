package filesystem

import (
	"context"
	"errors"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
)

// VersionsOps exposes the version store as tools
type VersionsOps struct {
	*FilesystemOps
}

// GetTools returns version tool definitions
func (v *VersionsOps) GetTools() []types.Tool {
	fileParams := []types.Parameter{
		{Name: "file_name", Type: "string", Description: "Versioned file", Required: true},
		{Name: "base_dir", Type: "string", Description: "Directory the name is relative to", Required: false},
	}

	return []types.Tool{
		{
			ID:          "filesystem.version.save",
			Name:        "Save Version",
			Description: "Snapshot a file next to the original as <name>_v<n>_<timestamp><ext>",
			Parameters:  fileParams,
			Returns:     "object",
		},
		{
			ID:          "filesystem.version.restore",
			Name:        "Restore Version",
			Description: "Copy a saved snapshot back over the file (recreating it if deleted)",
			Parameters: append(append([]types.Parameter{}, fileParams...),
				types.Parameter{Name: "version", Type: "number", Description: "1-based version index", Required: true},
			),
			Returns: "object",
		},
		{
			ID:          "filesystem.version.list",
			Name:        "List Versions",
			Description: "List snapshots saved for a file during this session",
			Parameters:  fileParams,
			Returns:     "object",
		},
	}
}

func (v *VersionsOps) entries(list []Version) []types.VersionEntry {
	out := make([]types.VersionEntry, 0, len(list))
	for _, ver := range list {
		out = append(out, types.VersionEntry{Index: ver.Index, Path: v.display(ver.Path), CreatedAt: ver.CreatedAt})
	}
	return out
}

// Save snapshots a file
func (v *VersionsOps) Save(ctx context.Context, params Params) (*types.Result, error) {
	t, err := v.param(params, "file_name", "base_dir")
	if err != nil {
		return v.Failure("version_save", types.SubjectVersion, err, "")
	}
	if err := refuseSymlink(t); err != nil {
		return v.Failure("version_save", types.SubjectVersion, err, t.Path)
	}

	ver, err := v.Versions.Save(t.Path)
	if err != nil {
		return v.Failure("version_save", types.SubjectVersion, err, t.Path)
	}

	r, _ := v.Success("version_save", &types.VersionOp{
		Path:        v.display(t.Path),
		Version:     ver.Index,
		VersionPath: v.display(ver.Path),
		Available:   ver.Index,
	}, ver.Path)
	return r.WithMessage("Version saved"), nil
}

// Restore copies a snapshot back over the file
func (v *VersionsOps) Restore(ctx context.Context, params Params) (*types.Result, error) {
	t, err := v.param(params, "file_name", "base_dir")
	if err != nil {
		return v.Failure("version_restore", types.SubjectVersion, err, "")
	}
	index, err := params.Int("version")
	if err != nil {
		return v.Failure("version_restore", types.SubjectVersion, err, t.Path)
	}
	if err := refuseSymlink(t); err != nil {
		return v.Failure("version_restore", types.SubjectVersion, err, t.Path)
	}

	ver, err := v.Versions.Restore(t.Path, index)
	if err != nil {
		r, _ := v.Failure("version_restore", types.SubjectVersion, err, t.Path)
		var rangeErr *VersionRangeError
		var missing *VersionMissingError
		switch {
		case errors.As(err, &rangeErr):
			r.WithPayload(&types.VersionOp{Path: v.display(t.Path), Requested: rangeErr.Requested, Available: rangeErr.Available})
		case errors.As(err, &missing):
			r.WithPayload(&types.VersionOp{Path: v.display(t.Path), Requested: index, VersionPath: v.display(missing.Snapshot), Available: v.Versions.Len(t.Path)})
		}
		return r, nil
	}

	r, _ := v.Success("version_restore", &types.VersionOp{
		Path:        v.display(t.Path),
		Version:     ver.Index,
		VersionPath: v.display(ver.Path),
		Available:   v.Versions.Len(t.Path),
	}, t.Path)
	return r.WithMessage("Restored"), nil
}

// List reports the recorded versions of a file
func (v *VersionsOps) List(ctx context.Context, params Params) (*types.Result, error) {
	t, err := v.param(params, "file_name", "base_dir")
	if err != nil {
		return v.Failure("version_list", types.SubjectVersion, err, "")
	}

	list := v.Versions.List(t.Path)
	return v.Success("version_list", &types.VersionOp{
		Path:      v.display(t.Path),
		Available: len(list),
		Versions:  v.entries(list),
	}, t.Path)
}
