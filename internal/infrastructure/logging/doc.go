// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output for human readability
//
// Output defaults to stderr. When the server speaks MCP over stdio, stdout is
// the protocol channel, so Config.StdioSafe strips it from the output paths.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Server starting", zap.String("transport", "stdio"))
//	fsLogger := logger.Named("filesystem")
package logging
