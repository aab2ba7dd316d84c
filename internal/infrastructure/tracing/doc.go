/*
Package tracing provides lightweight request tracing.

Every HTTP request and every WebSocket message gets a span. Spans carry a
request ID that is propagated through context.Context into the service
registry and the tool handlers, so all log lines of one call can be joined.

# Usage

	tracer := tracing.New("sandboxfs", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "filesystem.file.read")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

# Headers

X-Request-ID is accepted from the caller when it is short and made of
[A-Za-z0-9._-]; otherwise a new req_<ULID> is generated. The response
echoes X-Request-ID and the server's X-Span-ID.

Finished spans are buffered (1000) and written to the log by a single
collector goroutine.
*/
package tracing
