package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Tool call outcomes used as the status label
const (
	StatusOK       = "ok"
	StatusSentinel = "sentinel"
	StatusFailure  = "failure"
	StatusError    = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Tool metrics
	ToolCalls     *prometheus.CounterVec
	ToolDuration  *prometheus.HistogramVec
	ToolSentinels *prometheus.CounterVec

	// gRPC metrics
	GRPCCalls    *prometheus.CounterVec
	GRPCDuration *prometheus.HistogramVec

	// Stream metrics (WebSocket and stdio)
	StreamConnections *prometheus.GaugeVec
	StreamMessages    *prometheus.CounterVec

	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot Snapshot

	mu sync.RWMutex
}

// Snapshot holds current metric values for the JSON health endpoint
type Snapshot struct {
	ToolCalls         int64   `json:"tool_calls"`
	ToolSentinels     int64   `json:"tool_sentinels"`
	ToolFailures      int64   `json:"tool_failures"`
	TotalRequests     int64   `json:"total_requests"`
	TotalErrors       int64   `json:"total_errors"`
	ActiveConnections int64   `json:"active_connections"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// NewMetrics creates a metrics collector on its own registry, so several
// collectors can coexist in one process
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		// HTTP metrics
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsmcp_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fsmcp_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fsmcp_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fsmcp_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		// Tool metrics
		ToolCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsmcp_tool_calls_total",
				Help: "Total number of tool calls by outcome",
			},
			[]string{"tool", "status"},
		),
		ToolDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fsmcp_tool_duration_seconds",
				Help:    "Tool call duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1, 5, 30},
			},
			[]string{"tool"},
		),
		ToolSentinels: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsmcp_tool_sentinels_total",
				Help: "Tool calls that completed with a failure sentinel (false, -1 or null)",
			},
			[]string{"tool"},
		),

		// gRPC metrics
		GRPCCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsmcp_grpc_calls_total",
				Help: "Total number of gRPC calls",
			},
			[]string{"method", "code"},
		),
		GRPCDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "fsmcp_grpc_duration_seconds",
				Help:    "gRPC call duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method"},
		),

		// Stream metrics
		StreamConnections: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "fsmcp_stream_connections",
				Help: "Number of open tool-call streams",
			},
			[]string{"transport"},
		),
		StreamMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fsmcp_stream_messages_total",
				Help: "Total number of stream messages",
			},
			[]string{"transport", "direction"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "fsmcp_uptime_seconds",
			Help: "Server uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the registry the metrics are registered on
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the metrics in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordToolCall records a tool call with one of the Status* outcomes
func (m *Metrics) RecordToolCall(tool, status string, duration time.Duration) {
	m.ToolCalls.WithLabelValues(tool, status).Inc()
	m.ToolDuration.WithLabelValues(tool).Observe(duration.Seconds())
	if status == StatusSentinel {
		m.ToolSentinels.WithLabelValues(tool).Inc()
	}

	m.mu.Lock()
	m.snapshot.ToolCalls++
	switch status {
	case StatusSentinel:
		m.snapshot.ToolSentinels++
	case StatusFailure, StatusError:
		m.snapshot.ToolFailures++
	}
	m.mu.Unlock()
}

// RecordGRPCCall records a gRPC call
func (m *Metrics) RecordGRPCCall(method, code string, duration time.Duration) {
	m.GRPCCalls.WithLabelValues(method, code).Inc()
	m.GRPCDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordStreamMessage records a message on a stream transport
func (m *Metrics) RecordStreamMessage(transport, direction string) {
	m.StreamMessages.WithLabelValues(transport, direction).Inc()
}

// IncConnections increments open streams for transport
func (m *Metrics) IncConnections(transport string) {
	m.StreamConnections.WithLabelValues(transport).Inc()
	m.mu.Lock()
	m.snapshot.ActiveConnections++
	m.mu.Unlock()
}

// DecConnections decrements open streams for transport
func (m *Metrics) DecConnections(transport string) {
	m.StreamConnections.WithLabelValues(transport).Dec()
	m.mu.Lock()
	m.snapshot.ActiveConnections--
	m.mu.Unlock()
}

// Snapshot returns the current counters
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}
