package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls a remote fsmcp.v1.ToolService. Calls go through a circuit
// breaker so a dead peer fails fast.
type Client struct {
	conn    *grpc.ClientConn
	addr    string
	breaker *resilience.Breaker
}

// NewClient connects lazily to addr. Extra dial options are appended to the
// defaults.
func NewClient(addr string, opts ...grpc.DialOption) (*Client, error) {
	defaults := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		// pings only while calls are active
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:                60 * time.Second,
			Timeout:             20 * time.Second,
			PermitWithoutStream: false,
		}),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(MaxMessageSize),
			grpc.MaxCallSendMsgSize(MaxMessageSize),
		),
	}

	conn, err := grpc.NewClient(addr, append(defaults, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial tool service: %w", err)
	}
	settings := resilience.DefaultSettings()
	settings.IsSuccessful = peerHealthy
	return &Client{
		conn:    conn,
		addr:    addr,
		breaker: resilience.New("tool-service "+addr, settings),
	}, nil
}

// peerHealthy reports whether err still proves the peer is up
func peerHealthy(err error) bool {
	switch status.Code(err) {
	case codes.OK, codes.InvalidArgument, codes.NotFound, codes.Canceled:
		return true
	default:
		return false
	}
}

// Breaker returns the client's circuit breaker
func (c *Client) Breaker() *resilience.Breaker {
	return c.breaker
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.breaker.Execute(func() error {
		return c.conn.Invoke(ctx, method, in, out)
	})
}

// Close closes the connection
func (c *Client) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// Conn exposes the underlying connection, e.g. for health checks
func (c *Client) Conn() *grpc.ClientConn {
	return c.conn
}

// ListTools fetches the remote tool catalogue
func (c *Client) ListTools(ctx context.Context) ([]types.Tool, error) {
	out := new(structpb.Struct)
	if err := c.invoke(ctx, ListToolsMethod, &emptypb.Empty{}, out); err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	var resp struct {
		Tools []types.Tool `json:"tools"`
	}
	if err := decode(out, &resp); err != nil {
		return nil, err
	}
	return resp.Tools, nil
}

// CallTool executes toolID remotely. A non-empty requestID is forwarded as
// x-request-id metadata.
func (c *Client) CallTool(ctx context.Context, toolID string, params map[string]any, requestID string) (*types.Result, error) {
	fields := map[string]any{"tool_id": toolID}
	if params != nil {
		fields["params"] = params
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}
	if requestID != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, requestIDKey, requestID)
	}

	out := new(structpb.Struct)
	if err := c.invoke(ctx, CallToolMethod, in, out); err != nil {
		return nil, fmt.Errorf("call %s: %w", toolID, err)
	}

	var result types.Result
	if err := decode(out, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func decode(in *structpb.Struct, v any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if err := codec.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
