// Package main is the entry point for the sandboxfs server.
//
// The server confines every file operation to one root directory and
// exposes the filesystem tools over REST and WebSocket.
//
// Configuration:
//   - Environment variables (SANDBOX_ROOT, PORT, LOG_LEVEL, ...)
//   - CLI flags (override env vars)
//
// Usage:
//
//	./server -root /srv/data -display-root /workspace -port 8000
//
//	# Development mode (colored logs, debug level)
//	./server -root ./data -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
