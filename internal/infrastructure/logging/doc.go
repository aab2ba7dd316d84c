// Package logging provides structured logging using uber/zap.
//
// Two modes are supported:
//   - Production: JSON output for machine parsing
//   - Development: colored console output
//
// Tool invocations log through ForTool so every line carries the tool ID
// and request ID. Resolved physical paths are only logged at debug level.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.ForTool("filesystem.file.read", reqID).Info("tool completed")
package logging
