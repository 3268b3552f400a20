package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ypb/phonebook/pkg/logger"
	"github.com/ypb/phonebook/pkg/metrics"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// RequestLogger emits one log line per request, records the latency
// histogram and propagates X-Request-ID.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set("requestID", requestID)

		c.Next()

		// route template keeps the label set small; unmatched routes share one label
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := c.Writer.Status()
		latency := time.Since(start)
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Observe(latency.Seconds())

		caller := CallerFrom(c)
		logger.L().Info("http_request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("role", caller.Role.String()),
			zap.Int("response_bytes", c.Writer.Size()),
		)
	}
}
