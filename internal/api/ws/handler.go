package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/GriffinCanCode/FileSystemMCP/internal/domain/service"
	"github.com/GriffinCanCode/FileSystemMCP/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/id"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/types"
	"github.com/GriffinCanCode/FileSystemMCP/internal/shared/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	transport  = "ws"
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // origin policy is enforced by the CORS middleware
	},
}

// Handler manages WebSocket connections
type Handler struct {
	registry *service.Registry
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(registry *service.Registry, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// conn serializes writes; gorilla allows one concurrent writer
type conn struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *conn) send(reply types.StreamReply) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	reply.Timestamp = time.Now().Unix()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteJSON(reply)
}

func (c *conn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// HandleConnection upgrades the request and serves tool calls until the
// client disconnects. Calls on one connection run in order.
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	connID := uuid.NewString()
	log := h.logger.With(zap.String("connection_id", connID))
	if h.metrics != nil {
		h.metrics.IncConnections(transport)
		defer h.metrics.DecConnections(transport)
	}
	log.Info("WebSocket connected", zap.String("client_ip", c.ClientIP()))
	defer log.Info("WebSocket disconnected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	cn := &conn{ws: ws}
	ws.SetReadLimit(utils.MaxRequestSize)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	go h.keepAlive(ctx, cn)

	clientIP := c.ClientIP()
	if err := cn.send(types.StreamReply{
		Type:         "system",
		Message:      "Connected to FileSystem MCP Server (Go)",
		ConnectionID: connID,
	}); err != nil {
		return
	}

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		h.record("in")

		reply := h.handleMessage(ctx, data, connID, clientIP)
		if err := cn.send(reply); err != nil {
			log.Warn("WebSocket write error", zap.Error(err))
			return
		}
		h.record("out")
	}
}

func (h *Handler) handleMessage(ctx context.Context, data []byte, connID, clientIP string) types.StreamReply {
	var msg types.StreamMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return types.StreamReply{Type: "error", Error: "invalid message: " + err.Error()}
	}

	switch msg.Type {
	case "ping":
		return types.StreamReply{Type: "pong", RequestID: msg.RequestID}
	case "", "execute":
	default:
		return types.StreamReply{Type: "error", RequestID: msg.RequestID, Error: "unknown message type: " + msg.Type}
	}

	if err := utils.ValidateToolID(msg.ToolID, "tool_id", true); err != nil {
		return types.StreamReply{Type: "error", RequestID: msg.RequestID, Error: err.Error()}
	}
	if err := utils.ValidateParams(msg.Params); err != nil {
		return types.StreamReply{Type: "error", RequestID: msg.RequestID, ToolID: msg.ToolID, Error: err.Error()}
	}

	requestID := msg.RequestID
	if requestID == "" {
		requestID = id.NewRequestID().String()
	}
	appCtx := &types.Context{
		RequestID: requestID,
		Transport: transport,
		ClientID:  &connID,
	}

	result, err := h.registry.Execute(ctx, msg.ToolID, msg.Params, appCtx)
	reply := types.StreamReply{
		Type:      "result",
		RequestID: requestID,
		ToolID:    msg.ToolID,
		Result:    result,
	}
	if err != nil {
		reply.Type = "error"
		reply.Error = err.Error()
		h.logger.Debug("Stream tool call rejected",
			zap.String("connection_id", connID),
			zap.String("client_ip", clientIP),
			zap.String("tool", msg.ToolID),
			zap.Error(err),
		)
	}
	return reply
}

func (h *Handler) keepAlive(ctx context.Context, cn *conn) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cn.ping(); err != nil {
				return
			}
		}
	}
}

func (h *Handler) record(direction string) {
	if h.metrics != nil {
		h.metrics.RecordStreamMessage(transport, direction)
	}
}
