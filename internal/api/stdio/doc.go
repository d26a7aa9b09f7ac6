// Package stdio serves the tool registry as an MCP server over standard
// input and output.
//
// Messages are newline-delimited JSON-RPC 2.0. Batches are accepted and
// notifications never get a reply. Nothing but protocol frames may be
// written to stdout, so the logger handed to the server must target stderr.
//
// Supported methods:
//   - initialize, ping
//   - tools/list: every registered tool with a JSON Schema for its params
//   - tools/call: filesystem tools by bare name, other services as
//     "<service>_<tool>"
//
// A tool that ran but could not do its job (missing parameters, an
// unlistable directory) answers with isError set. Sentinel values such as
// -1 or null are ordinary results.
//
// Example Usage:
//
//	srv := stdio.NewServer(registry, "filesystem-mcp", version, stdio.WithLogger(logger))
//	err := srv.Serve(ctx, os.Stdin, os.Stdout)
package stdio
