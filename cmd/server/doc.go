// Package main is the entry point for the FileSystem MCP server.
//
// The server exposes host file and directory operations as tools. MCP
// clients launch the binary with no arguments and talk JSON-RPC over
// stdin/stdout; the same tools are also served over HTTP, a WebSocket
// stream and gRPC.
//
// Architecture:
//
//	MCP client ──stdio──┐
//	HTTP / WebSocket ───┼──→ service registry ──→ filesystem provider ──→ host FS
//	gRPC ───────────────┘                    └──→ system provider (diagnostics)
//
// Commands:
//   - serve: run the server (default when no command is given)
//   - tools: print the tool catalogue
//   - call: invoke a tool on a running server over gRPC
//   - version: print the version
//
// Configuration:
//   - Config file (--config, YAML or TOML)
//   - Environment variables (12-factor), applied over the file
//   - CLI flags, applied last
//
// Usage:
//
//	# MCP over stdio
//	./filesystem-mcp
//
//	# HTTP API with gRPC alongside
//	./filesystem-mcp serve --transport http --port 8000 --grpc-addr :50061
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
