// Package service provides the service registry.
//
// The registry keeps the catalog of providers, scores them against free-text
// intents for discovery, and routes "<service>.<tool>" calls to the right
// provider. Each call is traced, logged with its request ID, and counted in
// the tool metrics; payloads feed the sandbox gauges (tracked versions,
// archive members, skipped entries).
//
// Example Usage:
//
//	registry := service.NewRegistry(logger).WithMetrics(metrics).WithTracer(tracer)
//	registry.Register(fsProvider)
//	services := registry.Discover("compress a file", 5)
//	result, err := registry.Execute(ctx, "filesystem.file.read", params)
package service
