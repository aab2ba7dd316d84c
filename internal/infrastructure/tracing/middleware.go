package tracing

import (
	"regexp"
	"strconv"

	"github.com/GriffinCanCode/sandboxfs/internal/shared/id"
	"github.com/gin-gonic/gin"
)

const (
	// HeaderRequestID carries the request ID in both directions
	HeaderRequestID = "X-Request-ID"
	// HeaderSpanID carries the server span ID on responses
	HeaderSpanID = "X-Span-ID"
	// ContextKey is the gin key holding the request ID
	ContextKey = "request_id"

	maxRequestIDLength = 128
)

var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// acceptRequestID reports whether a caller-supplied request ID is safe to
// echo into logs and headers.
func acceptRequestID(v string) bool {
	return v != "" && len(v) <= maxRequestIDLength && requestIDPattern.MatchString(v)
}

// HTTPMiddleware creates Gin middleware that opens one span per request
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if inbound := c.GetHeader(HeaderRequestID); acceptRequestID(inbound) {
			ctx = WithRequestID(ctx, id.RequestID(inbound))
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+route)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Set(ContextKey, span.RequestID.String())
		c.Header(HeaderRequestID, span.RequestID.String())
		c.Header(HeaderSpanID, span.SpanID.String())

		c.Next()

		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}

		span.Finish()
		tracer.Submit(span)
	}
}
