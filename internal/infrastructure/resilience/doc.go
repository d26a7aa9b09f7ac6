/*
Package resilience provides a circuit breaker for calls to remote tool
services.

A breaker starts closed. Once ReadyToTrip accepts the failure counts it
opens and rejects calls with ErrCircuitOpen for Timeout. It then lets
MaxRequests probes through half-open. Enough successes close it again and
any failure reopens it.

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                       [failure]
	                                           v
	                                         Open

IsSuccessful decides which errors count. The gRPC client treats argument
and lookup errors from a healthy peer as successes.

# Usage

	breaker := resilience.New("tool-service", resilience.DefaultSettings())
	result, err := resilience.Call(breaker, func() (*types.Result, error) {
		return client.CallTool(ctx, toolID, params, "")
	})
*/
package resilience
