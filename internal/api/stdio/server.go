package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/GriffinCanCode/FileSystemMCP/internal/domain/service"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/id"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"go.uber.org/zap"
)

const (
	transport = "stdio"

	// MaxLineSize bounds a single inbound message
	MaxLineSize = 16 * 1024 * 1024

	// tools of this service are exposed without their prefix
	primaryService = "filesystem"
)

// Server speaks MCP over newline-delimited JSON-RPC
type Server struct {
	registry     *service.Registry
	tracer       *tracing.Tracer
	metrics      *monitoring.Metrics
	logger       *zap.Logger
	info         Implementation
	instructions string

	mu          sync.Mutex
	initialized bool
	client      Implementation
}

// Option configures a Server
type Option func(*Server)

// WithTracer records a span per request
func WithTracer(t *tracing.Tracer) Option {
	return func(s *Server) { s.tracer = t }
}

// WithMetrics counts inbound and outbound messages
func WithMetrics(m *monitoring.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithLogger sets the logger. It must not write to stdout.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithInstructions sets the text returned from initialize
func WithInstructions(text string) Option {
	return func(s *Server) { s.instructions = text }
}

// NewServer creates a stdio server over registry
func NewServer(registry *service.Registry, name, version string, opts ...Option) *Server {
	s := &Server{
		registry: registry,
		logger:   zap.NewNop(),
		info:     Implementation{Name: name, Version: version},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Serve reads requests from r and writes responses to w until r is
// exhausted or ctx is cancelled. Requests are handled in order.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), MaxLineSize)
		for scanner.Scan() {
			line := bytes.Clone(scanner.Bytes())
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	out := bufio.NewWriter(w)
	s.logger.Info("Serving MCP over stdio", zap.String("protocol_version", ProtocolVersion))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("failed to read request: %w", err)
					}
				default:
				}
				return nil
			}

			reply := s.HandleMessage(ctx, line)
			if reply == nil {
				continue
			}
			if _, err := out.Write(append(reply, '\n')); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
			if err := out.Flush(); err != nil {
				return fmt.Errorf("failed to write response: %w", err)
			}
			s.record("out")
		}
	}
}

// HandleMessage handles one line, which may be a single request or a batch.
// It returns the encoded reply, or nil when nothing should be sent.
func (s *Server) HandleMessage(ctx context.Context, line []byte) []byte {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return nil
	}
	s.record("in")

	if line[0] == '[' {
		var batch []json.RawMessage
		if err := codec.Unmarshal(line, &batch); err != nil {
			return s.encode(errorResponse(nullID, newError(CodeParseError, "parse error: "+err.Error())))
		}
		if len(batch) == 0 {
			return s.encode(errorResponse(nullID, newError(CodeInvalidRequest, "empty batch")))
		}

		replies := make([]*Response, 0, len(batch))
		for _, raw := range batch {
			if resp := s.handleRaw(ctx, raw); resp != nil {
				replies = append(replies, resp)
			}
		}
		if len(replies) == 0 {
			return nil
		}
		return s.encode(replies)
	}

	resp := s.handleRaw(ctx, line)
	if resp == nil {
		return nil
	}
	return s.encode(resp)
}

func (s *Server) handleRaw(ctx context.Context, raw []byte) *Response {
	var req Request
	if err := codec.Unmarshal(raw, &req); err != nil {
		return errorResponse(nullID, newError(CodeParseError, "parse error: "+err.Error()))
	}
	if req.JSONRPC != jsonrpcVersion || req.Method == "" {
		if req.IsNotification() {
			return nil
		}
		return errorResponse(req.ID, newError(CodeInvalidRequest, "invalid request"))
	}
	return s.handle(ctx, &req)
}

func (s *Server) handle(ctx context.Context, req *Request) (resp *Response) {
	log := s.logger.With(zap.String("method", req.Method), zap.ByteString("rpc_id", req.ID))

	if s.tracer != nil {
		var span *tracing.Span
		span, ctx = s.tracer.StartSpan(ctx, req.Method)
		span.SetTag("rpc.system", "jsonrpc")
		defer func() {
			if resp != nil && resp.Error != nil {
				span.SetError(resp.Error)
			}
			span.Finish()
			s.tracer.Submit(span)
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("Request handler panicked", zap.Any("panic", r))
			resp = nil
			if !req.IsNotification() {
				resp = errorResponse(req.ID, newError(CodeInternalError, "internal error"))
			}
		}
	}()

	var (
		result any
		rpcErr *Error
	)
	switch req.Method {
	case "initialize":
		result, rpcErr = s.initialize(req.Params)
	case "notifications/initialized":
		s.mu.Lock()
		s.initialized = true
		s.mu.Unlock()
		log.Debug("Client initialized")
		return nil
	case "notifications/cancelled":
		return nil
	case "ping":
		result = map[string]any{}
	case "tools/list":
		result = ListToolsResult{Tools: s.listTools()}
	case "tools/call":
		result, rpcErr = s.callTool(ctx, req.Params)
	default:
		if strings.HasPrefix(req.Method, "notifications/") {
			return nil
		}
		rpcErr = newError(CodeMethodNotFound, fmt.Sprintf("method not found: %s", req.Method))
	}

	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		log.Debug("Request rejected", zap.Int("code", rpcErr.Code), zap.String("error", rpcErr.Message))
		return errorResponse(req.ID, rpcErr)
	}
	return &Response{JSONRPC: jsonrpcVersion, ID: req.ID, Result: result}
}

func (s *Server) initialize(raw json.RawMessage) (any, *Error) {
	var params InitializeParams
	if len(raw) > 0 {
		if err := codec.Unmarshal(raw, &params); err != nil {
			return nil, newError(CodeInvalidParams, "invalid initialize params: "+err.Error())
		}
	}

	s.mu.Lock()
	s.client = params.ClientInfo
	s.mu.Unlock()

	s.logger.Info("Client connected",
		zap.String("client", params.ClientInfo.Name),
		zap.String("client_version", params.ClientInfo.Version),
		zap.String("requested_protocol", params.ProtocolVersion),
	)

	return InitializeResult{
		ProtocolVersion: ProtocolVersion,
		Capabilities: map[string]any{
			"tools": map[string]any{"listChanged": false},
		},
		ServerInfo:   s.info,
		Instructions: s.instructions,
	}, nil
}

func (s *Server) listTools() []Tool {
	registered := s.registry.Tools()
	tools := make([]Tool, 0, len(registered))
	for _, t := range registered {
		tools = append(tools, toMCPTool(t))
	}
	return tools
}

func (s *Server) callTool(ctx context.Context, raw json.RawMessage) (any, *Error) {
	var params CallToolParams
	if len(raw) == 0 {
		return nil, newError(CodeInvalidParams, "missing params")
	}
	if err := codec.Unmarshal(raw, &params); err != nil {
		return nil, newError(CodeInvalidParams, "invalid tools/call params: "+err.Error())
	}

	toolID, ok := s.resolve(params.Name)
	if !ok {
		return nil, newError(CodeInvalidParams, fmt.Sprintf("unknown tool: %s", params.Name))
	}

	s.mu.Lock()
	client := s.client.Name
	s.mu.Unlock()

	appCtx := &types.Context{
		RequestID: id.NewRequestID().String(),
		Transport: transport,
	}
	if client != "" {
		appCtx.ClientID = &client
	}

	result, err := s.registry.Execute(ctx, toolID, params.Arguments, appCtx)
	if err != nil {
		if errors.Is(err, service.ErrServiceNotFound) || errors.Is(err, service.ErrInvalidToolID) {
			return nil, newError(CodeInvalidParams, err.Error())
		}
		return toolError(err.Error()), nil
	}
	if result == nil {
		return toolError("tool returned no result"), nil
	}
	if !result.Success {
		msg := "tool call failed"
		if result.Error != nil {
			msg = *result.Error
		}
		return toolError(msg), nil
	}

	text, err := renderValue(result.Value())
	if err != nil {
		return nil, newError(CodeInternalError, "failed to encode result: "+err.Error())
	}
	return CallToolResult{Content: []Content{{Type: "text", Text: text}}}, nil
}

// resolve finds the registry ID for an MCP tool name. Full IDs are accepted too.
func (s *Server) resolve(name string) (string, bool) {
	for _, t := range s.registry.Tools() {
		if t.ID == name || ToolName(t.ID) == name {
			return t.ID, true
		}
	}
	return "", false
}

func toolError(msg string) CallToolResult {
	return CallToolResult{Content: []Content{{Type: "text", Text: msg}}, IsError: true}
}

// renderValue returns strings verbatim and encodes everything else as JSON
func renderValue(v any) (string, error) {
	if s, ok := v.(string); ok {
		return s, nil
	}
	data, err := codec.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Server) encode(v any) []byte {
	data, err := codec.Marshal(v)
	if err != nil {
		s.logger.Error("Failed to encode response", zap.Error(err))
		data, _ = codec.Marshal(errorResponse(nullID, newError(CodeInternalError, "failed to encode response")))
	}
	return data
}

func (s *Server) record(direction string) {
	if s.metrics != nil {
		s.metrics.RecordStreamMessage(transport, direction)
	}
}

func errorResponse(id json.RawMessage, err *Error) *Response {
	if len(id) == 0 {
		id = nullID
	}
	return &Response{JSONRPC: jsonrpcVersion, ID: id, Error: err}
}
