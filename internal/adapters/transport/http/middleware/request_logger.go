package middleware

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RequestLogger logs every request with a correlation id. Tokens and
// cookies never reach the log.
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		scrub := func(h http.Header) http.Header {
			clone := h.Clone()
			for k := range clone {
				lower := strings.ToLower(k)
				if strings.Contains(lower, "authorization") || strings.Contains(lower, "cookie") {
					clone[k] = []string{"[redacted]"}
				}
			}
			return clone
		}

		requestID := uuid.NewString()
		c.Set("request_id", requestID)
		c.Header("X-Request-Id", requestID)

		reqHeaders, _ := json.Marshal(scrub(c.Request.Header))
		log.Debug("incoming request",
			zap.String("request_id", requestID),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.ByteString("hdr", reqHeaders),
		)

		ts := time.Now()
		c.Next()

		latency := time.Since(ts)
		respStatus := c.Writer.Status()

		if len(c.Errors) > 0 {
			for _, e := range c.Errors {
				log.Error("handler error",
					zap.String("request_id", requestID),
					zap.Int("status", respStatus),
					zap.Error(e),
					zap.String("path", c.Request.URL.Path),
				)
			}
		}

		log.Info("completed",
			zap.String("request_id", requestID),
			zap.Int("status", respStatus),
			zap.Duration("latency", latency),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
		)
	}
}
