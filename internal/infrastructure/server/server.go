package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	apigrpc "github.com/GriffinCanCode/FileSystemMCP/internal/api/grpc"
	apihttp "github.com/GriffinCanCode/FileSystemMCP/internal/api/http"
	"github.com/GriffinCanCode/FileSystemMCP/internal/api/middleware"
	"github.com/GriffinCanCode/FileSystemMCP/internal/api/stdio"
	"github.com/GriffinCanCode/FileSystemMCP/internal/api/ws"
	"github.com/GriffinCanCode/FileSystemMCP/internal/domain/service"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/config"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/logging"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/FileSystemMCP/internal/providers/filesystem"
	"github.com/GriffinCanCode/FileSystemMCP/internal/providers/system"
)

// Name identifies the server to MCP clients and in traces
const Name = "filesystem-mcp"

const (
	logBufferSize   = 1000
	shutdownTimeout = 10 * time.Second
	gzipMinSize     = 1024
)

// Server wires the tool registry to the configured transports
type Server struct {
	config   *config.Config
	version  string
	logger   *logging.Logger
	logs     *system.LogBuffer
	metrics  *monitoring.Metrics
	tracer   *tracing.Tracer
	registry *service.Registry

	handler http.Handler
	http    *http.Server
	grpc    *apigrpc.Server
}

type options struct {
	accessor filesystem.Accessor
	logger   *logging.Logger
}

// Option customises construction, mostly for tests
type Option func(*options)

// WithAccessor replaces the host filesystem
func WithAccessor(a filesystem.Accessor) Option {
	return func(o *options) { o.accessor = a }
}

// WithLogger replaces the logger built from the config
func WithLogger(l *logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a server instance
func New(cfg *config.Config, version string, opts ...Option) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	o := options{accessor: filesystem.OS{}}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		if logger, err = NewLogger(cfg); err != nil {
			return nil, err
		}
	}

	// Every entry the logger accepts is also kept for system.get_logs
	logs := system.NewLogBuffer(logBufferSize, zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= logger.Level()
	}))
	logger = logger.Tee(logs)

	logger.Info("Initializing FileSystem MCP server",
		zap.String("version", version),
		zap.String("transport", cfg.Transport),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New(Name, logger.Named("tracing"))

	registry := service.NewRegistry().WithMetrics(metrics).WithLogger(logger.Named("registry"))
	registerProviders(registry, o.accessor, logger, logs, metrics, version)

	s := &Server{
		config:   cfg,
		version:  version,
		logger:   logger,
		logs:     logs,
		metrics:  metrics,
		tracer:   tracer,
		registry: registry,
	}

	handler, err := s.buildHTTP()
	if err != nil {
		return nil, err
	}
	s.handler = handler
	s.http = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.GRPC.Enabled {
		s.grpc = apigrpc.NewServer(registry,
			apigrpc.WithTracer(tracer),
			apigrpc.WithMetrics(metrics),
			apigrpc.WithLogger(logger.Named("grpc")),
		)
	}

	logger.Info("Server initialized", zap.Int("tools", len(registry.Tools())))
	return s, nil
}

// NewLogger builds the logger described by cfg. Stdio mode never logs to
// stdout.
func NewLogger(cfg *config.Config) (*logging.Logger, error) {
	logCfg := logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: cfg.Logging.Output,
	}
	if cfg.Transport == config.TransportStdio {
		logCfg = logCfg.StdioSafe()
	}

	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func registerProviders(
	registry *service.Registry,
	accessor filesystem.Accessor,
	logger *logging.Logger,
	logs *system.LogBuffer,
	metrics *monitoring.Metrics,
	version string,
) {
	// Filesystem provider
	fsProvider := filesystem.NewProvider(accessor, logger.Named("filesystem"))
	if err := registry.Register(fsProvider); err != nil {
		logger.Warn("Failed to register filesystem provider", zap.Error(err))
	}

	// System provider
	sysProvider := system.NewProvider(
		system.WithVersion(version),
		system.WithLogs(logs),
		system.WithStats(func() map[string]any {
			snap := metrics.Snapshot()
			return map[string]any{
				"tool_calls":         snap.ToolCalls,
				"tool_sentinels":     snap.ToolSentinels,
				"tool_failures":      snap.ToolFailures,
				"total_requests":     snap.TotalRequests,
				"total_errors":       snap.TotalErrors,
				"active_connections": snap.ActiveConnections,
				"uptime_seconds":     snap.UptimeSeconds,
			}
		}),
	)
	if err := registry.Register(sysProvider); err != nil {
		logger.Warn("Failed to register system provider", zap.Error(err))
	}
}

func (s *Server) buildHTTP() (http.Handler, error) {
	// gin's debug output goes to stdout, which stdio reserves for the protocol
	if !s.config.Logging.Development || s.config.Transport == config.TransportStdio {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	httpLogger := s.logger.Named("http")
	router.Use(middleware.Recovery(httpLogger))
	router.Use(middleware.RequestLogger(httpLogger))
	router.Use(tracing.HTTPMiddleware(s.tracer))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.config.RateLimit.Enabled {
		s.logger.Info("Rate limiting enabled",
			zap.Int("rps", s.config.RateLimit.RequestsPerSecond),
			zap.Int("burst", s.config.RateLimit.Burst),
		)
		limits := middleware.DefaultRateLimitConfig()
		limits.RequestsPerSecond = s.config.RateLimit.RequestsPerSecond
		limits.Burst = s.config.RateLimit.Burst
		router.Use(middleware.RateLimit(limits))
	}

	handlers := apihttp.NewHandlers(s.registry, s.metrics, httpLogger, s.version)
	handlers.Register(router)

	wsHandler := ws.NewHandler(s.registry, s.metrics, s.logger.Named("ws"))
	router.GET("/stream", wsHandler.HandleConnection)

	gzip, err := gzhttp.NewWrapper(gzhttp.MinSize(gzipMinSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip wrapper: %w", err)
	}
	compressed := gzip(router)

	// the WebSocket upgrade needs the raw connection
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/stream" {
			router.ServeHTTP(w, r)
			return
		}
		compressed.ServeHTTP(w, r)
	}), nil
}

// Registry returns the tool registry
func (s *Server) Registry() *service.Registry {
	return s.registry
}

// Handler returns the HTTP handler, compression included
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Logger returns the server logger
func (s *Server) Logger() *logging.Logger {
	return s.logger
}

// Run serves the configured transport until ctx is cancelled, then shuts
// down gracefully
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	errCh := make(chan error, 2)

	if s.grpc != nil {
		lis, err := net.Listen("tcp", s.config.GRPC.Address)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", s.config.GRPC.Address, err)
		}
		go func() { errCh <- s.grpc.Serve(lis) }()
	}

	switch s.config.Transport {
	case config.TransportStdio:
		go func() { errCh <- s.RunStdio(ctx, stdin, stdout) }()
	default:
		go func() {
			s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
			if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- fmt.Errorf("http serve: %w", err)
				return
			}
			errCh <- nil
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		if runErr == nil {
			s.logger.Info("Transport closed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// RunStdio serves MCP over r and w until r closes or ctx is cancelled
func (s *Server) RunStdio(ctx context.Context, r io.Reader, w io.Writer) error {
	srv := stdio.NewServer(s.registry, Name, s.version,
		stdio.WithTracer(s.tracer),
		stdio.WithMetrics(s.metrics),
		stdio.WithLogger(s.logger.Named("stdio")),
		stdio.WithInstructions(filesystem.Instructions),
	)

	s.metrics.IncConnections("stdio")
	defer s.metrics.DecConnections("stdio")

	err := srv.Serve(ctx, r, w)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Shutdown stops every transport and flushes telemetry
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if s.grpc != nil {
		s.grpc.Stop(ctx)
	}

	s.tracer.Close()
	_ = s.logger.Sync()

	return errors.Join(errs...)
}
