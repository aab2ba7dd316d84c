package filesystem

import (
	"context"
	"fmt"
	"sort"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/types"
)

type handler func(ctx context.Context, params Params) (*types.Result, error)

// Provider is the filesystem service: every tool family behind one
// Definition and a single Execute entry point.
type Provider struct {
	ops       *FilesystemOps
	basic     *BasicOps
	directory *DirectoryOps
	operation *OperationsOps
	metadata  *MetadataOps
	archives  *ArchivesOps
	versions  *VersionsOps
	search    *SearchOps
	sync      *SyncOps
	formats   *FormatsOps
	handlers  map[string]handler
}

// NewProvider builds the provider for opts.Root.
func NewProvider(opts Options) (*Provider, error) {
	ops, err := NewFilesystemOps(opts)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		ops:       ops,
		basic:     &BasicOps{FilesystemOps: ops},
		directory: &DirectoryOps{FilesystemOps: ops},
		operation: &OperationsOps{FilesystemOps: ops},
		metadata:  &MetadataOps{FilesystemOps: ops},
		archives:  &ArchivesOps{FilesystemOps: ops},
		versions:  &VersionsOps{FilesystemOps: ops},
		search:    &SearchOps{FilesystemOps: ops},
		sync:      &SyncOps{FilesystemOps: ops},
		formats:   &FormatsOps{FilesystemOps: ops},
	}

	p.handlers = map[string]handler{
		"filesystem.cwd":             p.directory.Cwd,
		"filesystem.folder.create":   p.directory.Create,
		"filesystem.folder.delete":   p.directory.Delete,
		"filesystem.list":            p.directory.List,
		"filesystem.file.create":     p.basic.Create,
		"filesystem.file.read":       p.basic.Read,
		"filesystem.file.write":      p.basic.Write,
		"filesystem.file.delete":     p.basic.Delete,
		"filesystem.exists":          p.basic.Exists,
		"filesystem.is_file":         p.basic.IsFile,
		"filesystem.is_directory":    p.basic.IsDirectory,
		"filesystem.metadata":        p.metadata.Metadata,
		"filesystem.info":            p.metadata.Info,
		"filesystem.file.copy":       p.operation.CopyFile,
		"filesystem.file.move":       p.operation.MoveFile,
		"filesystem.folder.copy":     p.operation.CopyFolder,
		"filesystem.folder.move":     p.operation.MoveFolder,
		"filesystem.batch_rename":    p.operation.BatchRename,
		"filesystem.compress":        p.archives.Compress,
		"filesystem.decompress":      p.archives.Decompress,
		"filesystem.archive.list":    p.archives.List,
		"filesystem.version.save":    p.versions.Save,
		"filesystem.version.restore": p.versions.Restore,
		"filesystem.version.list":    p.versions.List,
		"filesystem.search":          p.search.Search,
		"filesystem.search_names":    p.search.SearchNames,
		"filesystem.glob":            p.search.Glob,
		"filesystem.sync":            p.sync.Sync,
		"filesystem.backup":          p.sync.Backup,
		"filesystem.recover":         p.sync.Recover,
		"filesystem.json.read":       p.formats.JSONRead,
		"filesystem.json.write":      p.formats.JSONWrite,
		"filesystem.yaml.read":       p.formats.YAMLRead,
		"filesystem.yaml.write":      p.formats.YAMLWrite,
		"filesystem.toml.read":       p.formats.TOMLRead,
		"filesystem.toml.write":      p.formats.TOMLWrite,
	}
	return p, nil
}

// Ops exposes the shared primitives.
func (p *Provider) Ops() *FilesystemOps {
	return p.ops
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	var tools []types.Tool
	tools = append(tools, p.directory.GetTools()...)
	tools = append(tools, p.basic.GetTools()...)
	tools = append(tools, p.metadata.GetTools()...)
	tools = append(tools, p.operation.GetTools()...)
	tools = append(tools, p.archives.GetTools()...)
	tools = append(tools, p.versions.GetTools()...)
	tools = append(tools, p.search.GetTools()...)
	tools = append(tools, p.sync.GetTools()...)
	tools = append(tools, p.formats.GetTools()...)

	return types.Service{
		ID:          "filesystem",
		Name:        "Sandboxed Filesystem",
		Description: "File, folder, archive, version, search and sync operations confined to one root directory",
		Category:    types.CategoryFilesystem,
		Capabilities: []string{
			"read", "write", "create", "delete", "list", "copy", "move", "rename",
			"compress", "decompress", "version", "search", "sync", "backup", "recover",
		},
		Tools: tools,
	}
}

// Execute runs a tool by ID. Unknown IDs yield a failed envelope.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}) (*types.Result, error) {
	h, ok := p.handlers[toolID]
	if !ok {
		return types.Fail(toolID, types.SubjectService, types.ErrorUnknownTool, fmt.Sprintf("unknown tool: %s", toolID)), nil
	}
	if params == nil {
		params = map[string]interface{}{}
	}
	if err := ctx.Err(); err != nil {
		return p.ops.Failure(toolID, types.SubjectService, err, "")
	}
	return h(ctx, Params(params))
}

// ToolIDs lists every tool the provider dispatches, sorted.
func (p *Provider) ToolIDs() []string {
	ids := make([]string, 0, len(p.handlers))
	for id := range p.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TrackedVersions returns how many files have saved versions.
func (p *Provider) TrackedVersions() int {
	return len(p.ops.Versions.Keys())
}
