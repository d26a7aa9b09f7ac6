package grpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/GriffinCanCode/FileSystemMCP/internal/domain/service"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/id"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/utils"
	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	transport = "grpc"

	// MaxMessageSize bounds requests and responses
	MaxMessageSize = 10 * 1024 * 1024

	requestIDKey = "x-request-id"
)

var codec = sonic.ConfigStd

// Server exposes the registry as fsmcp.v1.ToolService
type Server struct {
	registry *service.Registry
	tracer   *tracing.Tracer
	metrics  *monitoring.Metrics
	logger   *zap.Logger

	grpc   *grpc.Server
	health *health.Server
}

// Option configures a Server
type Option func(*Server)

// WithTracer adds the tracing interceptor
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithMetrics adds the metrics interceptor
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer builds a gRPC server with the tool service and the standard
// health service registered
func NewServer(registry *service.Registry, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		logger:   zap.NewNop(),
		health:   health.NewServer(),
	}
	for _, opt := range opts {
		opt(s)
	}

	interceptors := []grpc.UnaryServerInterceptor{RecoveryInterceptor(s.logger)}
	if s.tracer != nil {
		interceptors = append(interceptors, tracing.GRPCUnaryInterceptor(s.tracer))
	}
	if s.metrics != nil {
		interceptors = append(interceptors, MetricsInterceptor(s.metrics))
	}

	s.grpc = grpc.NewServer(
		grpc.ChainUnaryInterceptor(interceptors...),
		grpc.MaxRecvMsgSize(MaxMessageSize),
		grpc.MaxSendMsgSize(MaxMessageSize),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             30 * time.Second,
			PermitWithoutStream: true,
		}),
	)
	s.grpc.RegisterService(&ServiceDesc, s)
	healthpb.RegisterHealthServer(s.grpc, s.health)

	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)

	return s
}

// Serve accepts connections on lis until Stop is called
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info("gRPC server listening", zap.String("addr", lis.Addr().String()))
	if err := s.grpc.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve: %w", err)
	}
	return nil
}

// Stop marks the server as not serving and drains in-flight calls until
// ctx expires
func (s *Server) Stop(ctx context.Context) {
	s.health.Shutdown()

	done := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("gRPC graceful stop timed out, forcing")
		s.grpc.Stop()
	}
}

// ListTools returns every registered tool
func (s *Server) ListTools(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	tools := s.registry.Tools()
	list := make([]any, 0, len(tools))
	for _, t := range tools {
		list = append(list, toolValue(t))
	}

	out, err := structpb.NewStruct(map[string]any{"tools": list})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode tools: %v", err)
	}
	return out, nil
}

// CallTool executes one tool
func (s *Server) CallTool(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	fields := in.GetFields()
	toolID := fields["tool_id"].GetStringValue()
	if err := utils.ValidateToolID(toolID, "tool_id", true); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	params := fields["params"].GetStructValue().AsMap()
	if err := utils.ValidateParams(params); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	appCtx := &types.Context{
		RequestID: requestID(ctx, fields["request_id"].GetStringValue()),
		Transport: transport,
	}

	result, err := s.registry.Execute(ctx, toolID, params, appCtx)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidToolID):
			return nil, status.Error(codes.InvalidArgument, err.Error())
		case errors.Is(err, service.ErrServiceNotFound):
			return nil, status.Error(codes.NotFound, err.Error())
		default:
			s.logger.Error("Tool call failed",
				zap.String("tool_id", toolID),
				zap.String("request_id", appCtx.RequestID),
				zap.Error(err),
			)
			return nil, status.Error(codes.Internal, err.Error())
		}
	}

	out, err := resultStruct(result)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode result: %v", err)
	}
	return out, nil
}

func requestID(ctx context.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(requestIDKey); len(vals) > 0 && vals[0] != "" {
			return vals[0]
		}
	}
	return id.NewRequestID().String()
}

func toolValue(t types.Tool) map[string]any {
	params := make([]any, 0, len(t.Parameters))
	for _, p := range t.Parameters {
		param := map[string]any{
			"name":        p.Name,
			"type":        p.Type,
			"description": p.Description,
			"required":    p.Required,
		}
		if p.Default != nil {
			param["default"] = p.Default
		}
		params = append(params, param)
	}

	return map[string]any{
		"id":          t.ID,
		"name":        t.Name,
		"description": t.Description,
		"returns":     t.Returns,
		"read_only":   t.ReadOnly,
		"destructive": t.Destructive,
		"parameters":  params,
	}
}

// resultStruct converts through JSON since tool values can be any
// JSON-encodable Go type
func resultStruct(result *types.Result) (*structpb.Struct, error) {
	if result == nil {
		result = &types.Result{Success: false}
	}
	data, err := codec.Marshal(result)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, err
	}
	return out, nil
}
