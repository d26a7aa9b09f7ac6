/*
Package monitoring provides metrics collection.

# Overview

This package implements Prometheus-based metrics for the server: HTTP
requests, tool calls, gRPC calls and open streams. Each Metrics value owns
a private registry.

# Tool outcomes

Tool calls are labelled with one of:

  - ok: the operation returned a regular value
  - sentinel: the operation returned false, -1 or null
  - failure: the call was rejected (unknown tool, bad parameters)
  - error: the provider returned a Go error

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	timer := monitoring.NewTimer(metrics, "filesystem.copy_file")
	// ... perform operation ...
	timer.Stop(monitoring.StatusOK)
*/
package monitoring
