/*
Package monitoring provides Prometheus metrics for the sandbox service.

# Overview

Metrics live on a private registry so several collectors can coexist (one
per server, one per test) without duplicate registration panics.

# Features

- HTTP request metrics (latency, throughput, size)
- Tool invocation metrics (count, duration, errors by kind)
- Sandbox metrics (files with saved versions, archive members, skipped walk entries)
- WebSocket connection metrics
- Go runtime and process collectors

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "filesystem", "filesystem.file.read")
	// ... run the tool ...
	timer.Stop(string(result.ErrorKind))
*/
package monitoring
