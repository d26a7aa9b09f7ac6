package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newObservedTracer() (*Tracer, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return New("test", zap.New(core)), logs
}

func TestStartSpanContinuesTrace(t *testing.T) {
	tracer, _ := newObservedTracer()
	defer tracer.Close()

	root, ctx := tracer.StartSpan(context.Background(), "root")
	assert.True(t, strings.HasPrefix(string(root.TraceID), "trace_"))
	assert.True(t, strings.HasPrefix(string(root.SpanID), "span_"))
	assert.Empty(t, root.ParentID)

	child, childCtx := tracer.StartSpan(ctx, "child")
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.Equal(t, child.SpanID, GetSpanID(childCtx))
	assert.Equal(t, root.TraceID, GetTraceID(childCtx))
}

func TestSubmitLogsSpans(t *testing.T) {
	tracer, logs := newObservedTracer()

	ok, _ := tracer.StartSpan(context.Background(), "fine")
	ok.SetTag("tool", "filesystem.copy_file")
	ok.Finish()
	tracer.Submit(ok)

	bad, _ := tracer.StartSpan(context.Background(), "broken")
	bad.SetError(errors.New("boom"))
	bad.Finish()
	tracer.Submit(bad)

	tracer.Close()
	tracer.Submit(ok)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, 1, logs.FilterMessage("span completed").FilterField(zap.String("tool", "filesystem.copy_file")).Len())
	assert.Equal(t, 1, logs.FilterMessage("span completed with error").Len())
	assert.Equal(t, 500, bad.StatusCode)
}

func TestInjectAndExtract(t *testing.T) {
	ctx := WithTrace(context.Background(), "trace_1", "span_1")
	headers := map[string]string{}
	InjectTraceContext(ctx, headers)

	traceID, spanID := ExtractTraceContext(headers)
	assert.Equal(t, TraceID("trace_1"), traceID)
	assert.Equal(t, SpanID("span_1"), spanID)
	assert.Equal(t, "[trace:trace_1 span:span_1]", FormatTrace(traceID, spanID))

	empty := map[string]string{}
	InjectTraceContext(context.Background(), empty)
	assert.Empty(t, empty)
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObservedTracer()

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/health", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(TraceHeader, "trace_upstream")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	tracer.Close()

	assert.Equal(t, TraceID("trace_upstream"), seen)
	assert.Equal(t, "trace_upstream", w.Header().Get(TraceHeader))
	assert.NotEmpty(t, w.Header().Get(SpanHeader))

	entries := logs.FilterMessage("span completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "418", entries[0].ContextMap()["http.status"])
	assert.Equal(t, "GET /health", entries[0].ContextMap()["operation"])
}

func TestGRPCUnaryInterceptor(t *testing.T) {
	tracer, logs := newObservedTracer()
	interceptor := GRPCUnaryInterceptor(tracer)
	info := &grpc.UnaryServerInfo{FullMethod: "/fsmcp.v1.ToolService/CallTool"}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("x-trace-id", "trace_rpc"))
	var seen TraceID
	_, err := interceptor(ctx, nil, info, func(ctx context.Context, _ any) (any, error) {
		seen = GetTraceID(ctx)
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, TraceID("trace_rpc"), seen)

	_, err = interceptor(context.Background(), nil, info, func(context.Context, any) (any, error) {
		return nil, status.Error(codes.NotFound, "missing")
	})
	assert.Error(t, err)
	tracer.Close()

	assert.Equal(t, 1, logs.FilterMessage("span completed").Len())
	failed := logs.FilterMessage("span completed with error").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "NotFound", failed[0].ContextMap()["rpc.code"])
}
