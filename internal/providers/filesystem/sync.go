package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
	"github.com/charlievieth/fastwalk"
)

// SyncOps handles directory synchronize, backup and recover
type SyncOps struct {
	*FilesystemOps
}

// GetTools returns tree copy tool definitions
func (s *SyncOps) GetTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "filesystem.sync",
			Name:        "Synchronize Directories",
			Description: "Copy files that are missing, newer or a different size into an existing destination",
			Parameters: []types.Parameter{
				{Name: "source_path", Type: "string", Description: "Source directory", Required: true},
				{Name: "destination_path", Type: "string", Description: "Existing destination directory", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.backup",
			Name:        "Backup Directory",
			Description: "Copy every file of a directory into a backup directory",
			Parameters: []types.Parameter{
				{Name: "source_path", Type: "string", Description: "Directory to back up", Required: true},
				{Name: "backup_path", Type: "string", Description: "Backup directory (created if missing)", Required: true},
			},
			Returns: "object",
		},
		{
			ID:          "filesystem.recover",
			Name:        "Recover Backup",
			Description: "Copy every file of a backup directory back into a destination",
			Parameters: []types.Parameter{
				{Name: "backup_path", Type: "string", Description: "Backup directory", Required: true},
				{Name: "destination_path", Type: "string", Description: "Destination directory (created if missing)", Required: true},
			},
			Returns: "object",
		},
	}
}

// Sync mirrors changed files from source into destination. Nothing is deleted.
func (s *SyncOps) Sync(ctx context.Context, params Params) (*types.Result, error) {
	src, err := s.param(params, "source_path", "")
	if err != nil {
		return s.Failure("sync", types.SubjectSync, err, "")
	}
	dst, err := s.param(params, "destination_path", "")
	if err != nil {
		return s.Failure("sync", types.SubjectSync, err, "")
	}
	if _, err := requireDir(src, "source directory"); err != nil {
		return s.Failure("sync", types.SubjectSync, err, src.Path)
	}
	if _, err := requireDir(dst, "destination directory"); err != nil {
		return s.Failure("sync", types.SubjectSync, err, dst.Path)
	}
	return s.mirror(ctx, "sync", src.Path, dst.Path, copyIfChanged, "Synchronized")
}

// Backup copies a whole tree into a backup directory
func (s *SyncOps) Backup(ctx context.Context, params Params) (*types.Result, error) {
	src, err := s.param(params, "source_path", "")
	if err != nil {
		return s.Failure("backup", types.SubjectSync, err, "")
	}
	dst, err := s.param(params, "backup_path", "")
	if err != nil {
		return s.Failure("backup", types.SubjectSync, err, "")
	}
	if _, err := requireDir(src, "source directory"); err != nil {
		return s.Failure("backup", types.SubjectSync, err, src.Path)
	}
	if err := os.MkdirAll(dst.Path, 0o755); err != nil {
		return s.Failure("backup", types.SubjectSync, fmt.Errorf("failed to backup: %w", err), dst.Path)
	}
	return s.mirror(ctx, "backup", src.Path, dst.Path, copyAlways, "Backup completed")
}

// Recover copies a backup tree back into a destination
func (s *SyncOps) Recover(ctx context.Context, params Params) (*types.Result, error) {
	src, err := s.param(params, "backup_path", "")
	if err != nil {
		return s.Failure("recover", types.SubjectSync, err, "")
	}
	dst, err := s.param(params, "destination_path", "")
	if err != nil {
		return s.Failure("recover", types.SubjectSync, err, "")
	}
	if _, err := requireDir(src, "backup directory"); err != nil {
		return s.Failure("recover", types.SubjectSync, err, src.Path)
	}
	if err := os.MkdirAll(dst.Path, 0o755); err != nil {
		return s.Failure("recover", types.SubjectSync, fmt.Errorf("failed to recover: %w", err), dst.Path)
	}
	return s.mirror(ctx, "recover", src.Path, dst.Path, copyAlways, "Recovery completed")
}

func (s *SyncOps) mirror(ctx context.Context, action, src, dst string, should copyPolicy, done string) (*types.Result, error) {
	if dst == src || isWithin(src, dst) || isWithin(dst, src) {
		return s.Failure(action, types.SubjectSync, invalidf("source and destination must not overlap"), src)
	}

	report, err := s.copyTree(ctx, src, dst, should)
	if err != nil {
		return s.Failure(action, types.SubjectSync, fmt.Errorf("failed to %s: %w", action, err), src)
	}

	r, _ := s.Success(action, &types.SyncOp{
		Source:      s.display(src),
		Destination: s.display(dst),
		Copied:      report.copied,
		Unchanged:   report.unchanged,
		Skipped:     report.skipped,
		Failed:      report.failed,
	}, src)
	return r.WithMessage(fmt.Sprintf("%s: %d copied, %d unchanged, %d skipped, %d failed",
		done, len(report.copied), report.unchanged, len(report.skipped), len(report.failed))), nil
}

// isWithin reports whether path lies strictly under dir.
func isWithin(dir, path string) bool {
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}

// copyPolicy decides whether a source file replaces its destination.
type copyPolicy func(src fs.FileInfo, dst string) (bool, error)

func copyAlways(fs.FileInfo, string) (bool, error) { return true, nil }

// copyIfChanged copies when the destination is missing, older or a
// different size.
func copyIfChanged(src fs.FileInfo, dst string) (bool, error) {
	info, err := os.Stat(dst)
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("destination %s is a directory", filepath.Base(dst))
	}
	return src.ModTime().After(info.ModTime()) || src.Size() != info.Size(), nil
}

type treeReport struct {
	mu        sync.Mutex
	copied    []string
	unchanged int
	skipped   []types.Failure
	failed    []types.Failure
}

func (r *treeReport) fail(list *[]types.Failure, path string, err error, scrub func(string) string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*list = append(*list, types.Failure{Path: path, Kind: Classify(err), Reason: scrub(err.Error())})
}

// copyTree copies the regular files under src into dst with fastwalk.
// Symlinks are never followed; they and other special files are reported as
// skipped. Each destination is re-confined so a symlink planted in the
// destination tree cannot redirect writes outside the root.
func (ops *FilesystemOps) copyTree(ctx context.Context, src, dst string, should copyPolicy) (*treeReport, error) {
	report := &treeReport{}
	scrub := ops.Mapper.Scrub

	conf := fastwalk.Config{Follow: false}
	err := fastwalk.Walk(&conf, src, func(p string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if p == src {
			return err
		}

		shown := ops.display(p)
		if err != nil {
			report.fail(&report.failed, shown, err, scrub)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(src, p)
		if err != nil {
			report.fail(&report.failed, shown, err, scrub)
			return nil
		}
		out, err := ops.Resolver.ResolveAbs(filepath.Join(dst, rel))
		if err != nil {
			report.fail(&report.failed, shown, err, scrub)
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		switch {
		case d.Type()&fs.ModeSymlink != 0:
			report.fail(&report.skipped, shown, fmt.Errorf("symlink skipped: %w", ErrSymlink), scrub)
			return nil
		case d.IsDir():
			if err := os.MkdirAll(out, 0o755); err != nil {
				report.fail(&report.failed, shown, err, scrub)
				return fs.SkipDir
			}
			return nil
		case !d.Type().IsRegular():
			report.fail(&report.skipped, shown, invalidf("not a regular file"), scrub)
			return nil
		}

		info, err := d.Info()
		if err != nil {
			report.fail(&report.failed, shown, err, scrub)
			return nil
		}
		copyIt, err := should(info, out)
		if err != nil {
			report.fail(&report.failed, shown, err, scrub)
			return nil
		}
		if !copyIt {
			report.mu.Lock()
			report.unchanged++
			report.mu.Unlock()
			return nil
		}
		if err := ops.Writer.CopyFile(p, out); err != nil {
			report.fail(&report.failed, shown, err, scrub)
			return nil
		}

		report.mu.Lock()
		report.copied = append(report.copied, ops.display(out))
		report.mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(report.copied)
	sortFailures(report.skipped)
	sortFailures(report.failed)
	return report, nil
}

func sortFailures(list []types.Failure) {
	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
}
