// Package ws streams tool calls over a WebSocket.
//
// Each text frame from the client is a types.StreamMessage and gets exactly
// one types.StreamReply back, in order.
//
// Message Types (Client → Server):
//   - execute (or no type): run tool_id with params
//   - ping: application-level keep-alive
//
// Message Types (Server → Client):
//   - system: welcome frame carrying the connection ID
//   - result: the tool's Result, echoing request_id
//   - pong: reply to ping
//   - error: malformed frame, bad tool ID, or unknown service
//
// Example Usage:
//
//	handler := ws.NewHandler(registry, metrics, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
