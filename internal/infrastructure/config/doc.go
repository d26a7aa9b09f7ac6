// Package config provides 12-factor configuration management.
//
// Configuration comes from defaults, an optional YAML or TOML file, and
// environment variables, in that order of precedence (last wins). CLI flags
// applied by the caller override all three.
//
// Configuration Sections:
//   - Transport: "stdio" (MCP over stdin/stdout) or "http"
//   - Server: HTTP server settings (port, host)
//   - GRPC: optional gRPC tool service
//   - Logging: log level, format and output paths
//   - RateLimit: per-IP rate limiting for HTTP
//
// Example Usage:
//
//	cfg, err := config.LoadFile("fsmcp.yaml")
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// Environment Variables:
//   - TRANSPORT, PORT, HOST, GRPC_ADDR, GRPC_ENABLED
//   - LOG_LEVEL, LOG_DEV, LOG_OUTPUT
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
