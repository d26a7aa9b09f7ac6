package system

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
)

// Provider implements server information and diagnostics
type Provider struct {
	startTime time.Time
	version   string
	logs      *LogBuffer
	stats     func() map[string]any
	now       func() time.Time
}

// Option configures a Provider
type Option func(*Provider)

// WithLogs exposes a captured log buffer through system.get_logs
func WithLogs(logs *LogBuffer) Option {
	return func(p *Provider) { p.logs = logs }
}

// WithStats adds a stats source reported by system.stats
func WithStats(stats func() map[string]any) Option {
	return func(p *Provider) { p.stats = stats }
}

// WithVersion sets the version reported by system.info
func WithVersion(version string) Option {
	return func(p *Provider) { p.version = version }
}

// NewProvider creates a system provider
func NewProvider(opts ...Option) *Provider {
	p := &Provider{
		startTime: time.Now(),
		version:   "dev",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Definition returns service metadata
func (s *Provider) Definition() types.Service {
	return types.Service{
		ID:          "system",
		Name:        "System Service",
		Description: "Server information and diagnostics",
		Category:    types.CategorySystem,
		Capabilities: []string{
			"info",
			"logging",
			"monitoring",
		},
		Tools: []types.Tool{
			{
				ID:          "system.info",
				Name:        "System Info",
				Description: "Get runtime information about the server process",
				Parameters:  []types.Parameter{},
				Returns:     "object",
				ReadOnly:    true,
			},
			{
				ID:          "system.time",
				Name:        "Current Time",
				Description: "Get current server time",
				Parameters:  []types.Parameter{},
				Returns:     "object",
				ReadOnly:    true,
			},
			{
				ID:          "system.get_logs",
				Name:        "Get Logs",
				Description: "Retrieve recent server diagnostics, newest first",
				Parameters: []types.Parameter{
					{Name: "limit", Type: "number", Description: "Number of entries to retrieve", Default: 100},
					{Name: "level", Type: "string", Description: "Only return entries at this level (debug/info/warn/error)"},
				},
				Returns:  "array",
				ReadOnly: true,
			},
			{
				ID:          "system.stats",
				Name:        "Stats",
				Description: "Service registry and tool call counters",
				Parameters:  []types.Parameter{},
				Returns:     "object",
				ReadOnly:    true,
			},
			{
				ID:          "system.ping",
				Name:        "Ping",
				Description: "Test service availability",
				Parameters:  []types.Parameter{},
				Returns:     "object",
				ReadOnly:    true,
			},
		},
	}
}

// Execute runs a system operation
func (s *Provider) Execute(ctx context.Context, toolID string, params map[string]any, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "system.info":
		return s.info()
	case "system.time":
		return s.currentTime()
	case "system.get_logs":
		return s.getLogs(params)
	case "system.stats":
		return s.getStats()
	case "system.ping":
		return s.ping()
	default:
		return failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (s *Provider) info() (*types.Result, error) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	info := map[string]any{
		"version":        s.version,
		"go_version":     runtime.Version(),
		"os":             runtime.GOOS,
		"arch":           runtime.GOARCH,
		"cpus":           runtime.NumCPU(),
		"goroutines":     runtime.NumGoroutine(),
		"pid":            os.Getpid(),
		"memory_alloc":   m.Alloc / 1024 / 1024, // MB
		"memory_sys":     m.Sys / 1024 / 1024,   // MB
		"uptime_seconds": s.now().Sub(s.startTime).Seconds(),
	}
	if wd, err := os.Getwd(); err == nil {
		info["working_directory"] = wd
	}
	return success(info)
}

func (s *Provider) currentTime() (*types.Result, error) {
	now := s.now()
	return success(map[string]any{
		"timestamp": now.Unix(),
		"iso":       now.Format(time.RFC3339),
		"unix_ms":   now.UnixMilli(),
		"zone":      now.Location().String(),
	})
}

func (s *Provider) getLogs(params map[string]any) (*types.Result, error) {
	if s.logs == nil {
		return failure("log capture is not enabled")
	}

	limit := 100
	switch l := params["limit"].(type) {
	case nil:
	case float64:
		limit = int(l)
	case int:
		limit = l
	case int64:
		limit = int(l)
	default:
		return failure("limit must be a number")
	}
	if limit <= 0 {
		return failure("limit must be positive")
	}

	level, _ := params["level"].(string)
	return success(s.logs.Recent(limit, level))
}

func (s *Provider) getStats() (*types.Result, error) {
	stats := map[string]any{}
	if s.stats != nil {
		stats = s.stats()
	}
	if s.logs != nil {
		stats["buffered_logs"] = s.logs.Len()
	}
	return success(stats)
}

func (s *Provider) ping() (*types.Result, error) {
	return success(map[string]any{
		"pong":      true,
		"timestamp": s.now().Unix(),
	})
}

func success(value any) (*types.Result, error) {
	return &types.Result{Success: true, Data: map[string]any{"result": value}}, nil
}

func failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}
