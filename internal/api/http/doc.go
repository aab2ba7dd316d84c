// Package http exposes the service registry over REST.
//
// Routes:
//
//	GET  /                    banner
//	GET  /health              registry stats and uptime
//	GET  /services            catalog, optional ?category=
//	GET  /services/:id        one service definition
//	POST /services/discover   intent-ranked services
//	POST /services/execute    run a tool, returns the result envelope
//	GET  /metrics             Prometheus exposition
//	GET  /metrics/json        running totals
package http
