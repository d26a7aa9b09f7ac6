package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID    string         `json:"tool_id" binding:"required"`
	Params    map[string]any `json:"params"`
	RequestID string         `json:"request_id,omitempty"`
}

// StreamMessage is one inbound WebSocket frame. Type "execute" (or empty)
// carries an ExecuteRequest; "ping" asks for a pong.
type StreamMessage struct {
	Type string `json:"type,omitempty"`
	ExecuteRequest
}

// StreamReply is sent back over the WebSocket stream
type StreamReply struct {
	Type         string  `json:"type"`
	RequestID    string  `json:"request_id,omitempty"`
	ToolID       string  `json:"tool_id,omitempty"`
	Result       *Result `json:"result,omitempty"`
	Error        string  `json:"error,omitempty"`
	Message      string  `json:"message,omitempty"`
	ConnectionID string  `json:"connection_id,omitempty"`
	Timestamp    int64   `json:"timestamp"`
}

// DiscoverRequest asks the registry for services relevant to a free-text intent
type DiscoverRequest struct {
	Message string `json:"message" binding:"required"`
	Limit   int    `json:"limit,omitempty"`
}
