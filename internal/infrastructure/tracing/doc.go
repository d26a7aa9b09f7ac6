/*
Package tracing provides lightweight request tracing.

# Overview

Every HTTP request, gRPC call and stdio message gets a span. Spans carry a
trace ID that callers may supply through the X-Trace-ID header (or the
x-trace-id gRPC metadata key); otherwise a new one is generated. Finished
spans are buffered and written to the structured log by a collector
goroutine.

# Usage

	tracer := tracing.New("fsmcp", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(tracing.GRPCUnaryInterceptor(tracer)),
	)

	span, ctx := tracer.StartSpan(ctx, "tools/call")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Trace Format

  - X-Trace-ID: identifier for the entire request flow
  - X-Span-ID: identifier for the current operation

Both are echoed on responses.
*/
package tracing
