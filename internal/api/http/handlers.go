package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/FileSystemMCP/internal/domain/service"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/id"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request ID of a tool call on the response
const RequestIDHeader = "X-Request-ID"

// Handlers contains all HTTP handlers
type Handlers struct {
	registry  *service.Registry
	metrics   *monitoring.Metrics
	logger    *zap.Logger
	version   string
	startTime time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(registry *service.Registry, metrics *monitoring.Metrics, logger *zap.Logger, version string) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		registry:  registry,
		metrics:   metrics,
		logger:    logger,
		version:   version,
		startTime: time.Now(),
	}
}

// Register mounts the REST routes on r
func (h *Handlers) Register(r gin.IRoutes) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/services", h.ListServices)
	r.GET("/services/:id", h.GetService)
	r.POST("/services/discover", h.DiscoverServices)
	r.POST("/services/execute", h.ExecuteService)

	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
		r.GET("/metrics/json", h.MetricsJSON)
	}
}

// Root handles the banner request
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "FileSystem MCP Server (Go)",
		"version": h.version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	resp := gin.H{
		"status":         "healthy",
		"version":        h.version,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
		"registry":       h.registry.Stats(),
	}
	if h.metrics != nil {
		resp["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, resp)
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	categoryStr := c.Query("category")
	if err := utils.ValidateCategory(categoryStr, false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var category *types.Category
	if categoryStr != "" {
		cat := types.Category(categoryStr)
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// GetService returns one service definition
func (h *Handlers) GetService(c *gin.Context) {
	serviceID := c.Param("id")
	if err := utils.ValidateID(serviceID, "id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	provider, ok := h.registry.Get(serviceID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "service not found"})
		return
	}
	c.JSON(http.StatusOK, provider.Definition())
}

// DiscoverServices discovers relevant services for a free-text intent
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req types.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateMessage(req.Message); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    req.Message,
		"services": h.registry.Discover(req.Message, limit),
	})
}

// ExecuteService executes a service tool. Sentinel outcomes and rejected
// calls both answer 200 with the Result; only routing problems change the
// status code.
func (h *Handlers) ExecuteService(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, utils.MaxRequestSize)

	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateParams(req.Params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requestID := req.RequestID
	if requestID == "" {
		requestID = id.NewRequestID().String()
	}
	clientIP := c.ClientIP()
	appCtx := &types.Context{
		RequestID: requestID,
		Transport: "http",
		ClientID:  &clientIP,
	}
	c.Header(RequestIDHeader, requestID)

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	switch {
	case errors.Is(err, service.ErrInvalidToolID):
		c.JSON(http.StatusBadRequest, result)
	case errors.Is(err, service.ErrServiceNotFound):
		c.JSON(http.StatusNotFound, result)
	case err != nil:
		h.logger.Error("Tool execution failed",
			zap.String("tool", req.ToolID),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, result)
	}
}
