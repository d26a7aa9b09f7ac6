package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordToolCall(t *testing.T) {
	m := NewMetrics()

	m.RecordToolCall("filesystem.copy_file", StatusOK, time.Millisecond)
	m.RecordToolCall("filesystem.copy_file", StatusSentinel, time.Millisecond)
	m.RecordToolCall("filesystem.copy_file", StatusSentinel, time.Millisecond)
	m.RecordToolCall("filesystem.nope", StatusFailure, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("filesystem.copy_file", StatusOK)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("filesystem.copy_file", StatusSentinel)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.ToolSentinels.WithLabelValues("filesystem.copy_file")))

	snap := m.Snapshot()
	assert.Equal(t, int64(4), snap.ToolCalls)
	assert.Equal(t, int64(2), snap.ToolSentinels)
	assert.Equal(t, int64(1), snap.ToolFailures)
}

func TestMetricsAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.RecordToolCall("x.y", StatusOK, 0)
	assert.Equal(t, 0.0, testutil.ToFloat64(b.ToolCalls.WithLabelValues("x.y", StatusOK)))
}

func TestConnectionsGauge(t *testing.T) {
	m := NewMetrics()

	m.IncConnections("ws")
	m.IncConnections("ws")
	m.DecConnections("ws")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StreamConnections.WithLabelValues("ws")))
	assert.Equal(t, int64(1), m.Snapshot().ActiveConnections)
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/items/1", "/items/2", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/items/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))
	assert.Equal(t, int64(1), m.Snapshot().TotalErrors)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "fsmcp_http_requests_total")
	assert.Contains(t, string(body), "fsmcp_uptime_seconds")
}

func TestTimer(t *testing.T) {
	m := NewMetrics()

	timer := NewTimer(m, "filesystem.read_file_contents")
	d := timer.Stop(StatusOK)
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ToolCalls.WithLabelValues("filesystem.read_file_contents", StatusOK)))

	assert.NotPanics(t, func() { NewTimer(nil, "x").Stop(StatusOK) })
}
