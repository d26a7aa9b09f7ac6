package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "fsmcp.v1.ToolService"

// Full method names
const (
	ListToolsMethod = "/" + ServiceName + "/ListTools"
	CallToolMethod  = "/" + ServiceName + "/CallTool"
)

// ToolServer is the server API for fsmcp.v1.ToolService.
//
// Messages are well-known protobuf types so no generated code is needed:
// ListTools answers {"tools": [...]}, CallTool takes
// {"tool_id": "...", "params": {...}, "request_id": "..."} and answers the
// tool's Result as {"success": ..., "data": {"result": ...}, "error": ...}.
type ToolServer interface {
	ListTools(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	CallTool(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes fsmcp.v1.ToolService for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ToolServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListTools", Handler: listToolsHandler},
		{MethodName: "CallTool", Handler: callToolHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fsmcp/v1/tools.proto",
}

func listToolsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ToolServer).ListTools(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListToolsMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ToolServer).ListTools(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func callToolHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ToolServer).CallTool(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: CallToolMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ToolServer).CallTool(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
