// Package http serves the tool registry over REST with gin.
//
// Routes:
//   - GET  /                  banner
//   - GET  /health            registry stats and counters
//   - GET  /services          service catalogue, optionally ?category=
//   - GET  /services/:id      one service definition
//   - POST /services/discover intent-based discovery
//   - POST /services/execute  run a tool (types.ExecuteRequest)
//   - GET  /metrics           Prometheus exposition
//   - GET  /metrics/json      counters as JSON
package http
