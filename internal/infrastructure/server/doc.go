// Package server assembles the sandbox service: it opens the sandbox
// root from configuration, registers the filesystem provider, and mounts
// the REST, stream and metrics routes behind the middleware stack.
package server
