// Package types provides shared data structures for the sandbox service.
//
// Core Types:
//   - Service, Tool, Parameter: provider definitions advertised to callers
//   - Result: the outcome envelope returned by every tool invocation
//   - Payload: typed per-family result bodies (FileOp, FolderOp, ArchiveOp,
//     VersionOp, SyncOp, SearchOp, FormatOp)
//
// Request Types:
//   - ExecuteRequest, DiscoverRequest: HTTP tool calls
//   - StreamRequest, StreamResponse: WebSocket tool calls
//
// Example Usage:
//
//	res := types.Succeed("version_save", types.SubjectVersion, &types.VersionOp{
//	    Path:    "notes.txt",
//	    Version: 2,
//	})
package types
