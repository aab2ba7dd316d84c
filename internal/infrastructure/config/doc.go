// Package config provides 12-factor configuration management for the
// sandbox service.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags in cmd/server override environment variables.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Sandbox: root directory, display root, search and archive limits
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting configuration
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// Environment Variables:
//   - PORT, HOST
//   - SANDBOX_ROOT, SANDBOX_DISPLAY_ROOT, SANDBOX_RELATIVE_PATHS, SANDBOX_DEBUG
//   - SANDBOX_MAX_SEARCH_FILE_SIZE, SANDBOX_ARCHIVE_WORKERS, SANDBOX_ARCHIVE_MAX_BYTES
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
