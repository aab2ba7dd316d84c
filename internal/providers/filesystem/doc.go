// Package filesystem implements the sandboxed file system tools.
//
// Every tool confines caller paths through a paths.Resolver before any I/O
// and answers with a types.Result envelope whose path fields are mapped for
// display. The package is organized by tool family:
//   - basic: file create, read, write, delete and existence checks
//   - directory: folder create, delete, listing and cwd
//   - operations: copy, move and batch rename
//   - metadata: stat and extended info (MIME, binary sniffing, checksums)
//   - archives: single-file compression and confined extraction
//   - versions: in-memory snapshot history with restore
//   - search: name, content and glob search over a subtree
//   - sync: directory synchronize, backup and recover
//   - formats: JSON, YAML and TOML files written atomically
//
// Mutating tools refuse to act on symlinks. Tree walks skip symlinks and
// report them instead of failing.
//
// Example Usage:
//
//	ops, err := filesystem.NewFilesystemOps(filesystem.DefaultOptions("/srv/data"))
//	if err != nil {
//		return err
//	}
//	basic := &filesystem.BasicOps{FilesystemOps: ops}
//	result, err := basic.Read(ctx, filesystem.Params{"file_name": "notes.txt"})
package filesystem
