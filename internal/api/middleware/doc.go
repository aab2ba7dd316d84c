// Package middleware provides the HTTP middleware of the sandbox API.
//
//   - CORS: cross-origin access with request-ID headers exposed
//   - RateLimit: per-IP token buckets, idle clients evicted
//   - GlobalRateLimit: a single bucket for the whole server
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
