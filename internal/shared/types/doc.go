// Package types provides shared data structures for the filesystem tool server.
//
// Core Types:
//   - Service: Provider definition with its tool catalogue
//   - Tool, Parameter: Tool signature exposed to hosts
//   - Context: Per-call transport information
//   - Result: Standard tool result; the tool's return value lives in Data["result"]
//
// Request Types:
//   - ExecuteRequest: Tool execution over HTTP and WebSocket
//   - DiscoverRequest: Intent-based service discovery
//   - StreamMessage, StreamReply: WebSocket frames
package types
