package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// MetricsSnapshot is the JSON view of the server counters
type MetricsSnapshot struct {
	Timestamp time.Time      `json:"timestamp"`
	Backend   map[string]any `json:"backend"`
	Summary   MetricsSummary `json:"summary"`
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	TotalRequests     int64   `json:"total_requests"`
	ErrorRate         float64 `json:"error_rate"`
	ToolCalls         int64   `json:"tool_calls"`
	SentinelRate      float64 `json:"sentinel_rate"`
	ActiveConnections int64   `json:"active_connections"`
	UptimeSeconds     float64 `json:"uptime_seconds"`
}

// MetricsJSON returns the counters as JSON for dashboards that do not
// scrape Prometheus
func (h *Handlers) MetricsJSON(c *gin.Context) {
	snap := h.metrics.Snapshot()

	summary := MetricsSummary{
		TotalRequests:     snap.TotalRequests,
		ToolCalls:         snap.ToolCalls,
		ActiveConnections: snap.ActiveConnections,
		UptimeSeconds:     snap.UptimeSeconds,
	}
	if snap.TotalRequests > 0 {
		summary.ErrorRate = float64(snap.TotalErrors) / float64(snap.TotalRequests)
	}
	if snap.ToolCalls > 0 {
		summary.SentinelRate = float64(snap.ToolSentinels) / float64(snap.ToolCalls)
	}

	c.JSON(http.StatusOK, MetricsSnapshot{
		Timestamp: time.Now(),
		Backend: map[string]any{
			"status":   "operational",
			"registry": h.registry.Stats(),
			"counters": snap,
		},
		Summary: summary,
	})
}
