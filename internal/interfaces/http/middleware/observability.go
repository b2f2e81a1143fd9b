// Package middleware holds the cross-cutting gin middleware.
package middleware

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/openbaseline/compliance/pkg/constants"
	"github.com/openbaseline/compliance/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns every request an id, honoring one supplied by the caller,
// and carries it in the request context for log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := context.WithValue(c.Request.Context(), constants.ContextKeyRequestID, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(requestIDHeader, requestID)
		c.Next()
	}
}

// RequestLogger logs one line per request with latency and status.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	accessLog := log.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := logger.Fields{
			"method":     c.Request.Method,
			"path":       c.FullPath(),
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
			"client_ip":  c.ClientIP(),
		}
		if c.Writer.Status() >= 500 {
			accessLog.Error(c.Request.Context(), "Request failed", nil, fields)
			return
		}
		accessLog.Info(c.Request.Context(), "Request handled", fields)
	}
}
