package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/ecotrack/ecotrack-backend/internal/platform/ctxutil"
	"github.com/ecotrack/ecotrack-backend/internal/platform/logger"
)

type TraceMiddleware struct {
	log *logger.Logger
}

func NewTraceMiddleware(log *logger.Logger) *TraceMiddleware {
	middlewareLogger := log.With("middleware", "TraceMiddleware")
	return &TraceMiddleware{log: middlewareLogger}
}

// Attach tags every request with a request id and, when a span is recording,
// the trace id. Both travel on the request context for log correlation.
func (tm *TraceMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		td := &ctxutil.TraceData{RequestID: requestID}
		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			td.TraceID = span.SpanContext().TraceID().String()
		}

		c.Request = c.Request.WithContext(ctxutil.WithTraceData(c.Request.Context(), td))
		c.Writer.Header().Set("X-Request-ID", requestID)
		c.Next()
	}
}

// RequestLog emits one structured line per request, correlated by request id.
func (tm *TraceMiddleware) RequestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		var requestID, traceID string
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			requestID = td.RequestID
			traceID = td.TraceID
		}

		tm.log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
			"trace_id", traceID,
		)
	}
}
