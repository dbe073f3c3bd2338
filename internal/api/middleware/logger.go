package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"renewables-pnl/internal/logger"
)

// RequestIDHeader carries the per-request id back to the caller.
const RequestIDHeader = "X-Request-ID"

// Logger tags every request with an id, puts a request-scoped logger in the request context
// and logs the outcome once the handler chain returns.
func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		l := logger.L.With(slog.String("requestID", requestID))
		c.Request = c.Request.WithContext(logger.ToContext(c.Request.Context(), l))
		c.Header(RequestIDHeader, requestID)

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
			"clientIP", c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			attrs = append(attrs, "errors", c.Errors.String())
		}
		switch {
		case c.Writer.Status() >= 500:
			l.Error("Request failed", attrs...)
		case c.Writer.Status() >= 400:
			l.Warn("Request rejected", attrs...)
		default:
			l.Info("Request handled", attrs...)
		}
	}
}
