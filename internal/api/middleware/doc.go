// Package middleware provides the HTTP middleware stack for the tool server.
//
// Middleware stack includes:
//   - Recovery: panic recovery with a JSON 500 response
//   - RequestLogger: one structured log line per request
//   - CORS: cross-origin resource sharing with configurable origins
//   - RateLimit: per-IP token bucket rate limiting with idle-client cleanup
//   - GlobalRateLimit: a single bucket shared by all clients
//
// Example Usage:
//
//	router.Use(middleware.Recovery(logger))
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
