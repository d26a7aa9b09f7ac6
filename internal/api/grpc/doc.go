// Package grpc exposes the tool registry as the gRPC service
// fsmcp.v1.ToolService, with a matching client.
//
// Requests and responses use google.protobuf.Struct and Empty, so the
// service is described by a hand-written grpc.ServiceDesc rather than
// generated stubs. The standard grpc.health.v1 service is registered on the
// same server.
//
// Methods:
//   - ListTools(Empty) → {"tools": [...]}
//   - CallTool({"tool_id", "params", "request_id"}) → Result
//
// Status codes:
//   - InvalidArgument: malformed tool ID or params
//   - NotFound: no service owns the tool ID
//   - Internal: provider error or panic
//
// Sentinel results and parameter failures are returned as a normal Result.
//
// Example Usage:
//
//	srv := grpc.NewServer(registry, grpc.WithTracer(tracer), grpc.WithMetrics(metrics))
//	go srv.Serve(lis)
//
//	client, err := grpc.NewClient("localhost:50051")
//	result, err := client.CallTool(ctx, "filesystem.read_file_contents", params, "")
package grpc
