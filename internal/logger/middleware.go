package logger

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// RequestID propaga o genera el X-Request-ID y lo deja en el contexto del request.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(RequestIDHeader)
		if reqID == "" {
			reqID = uuid.New().String()
		}

		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), reqID))
		c.Header(RequestIDHeader, reqID)
		c.Next()
	}
}

// Access reemplaza al logger por defecto de gin. El user_id llega por
// WithFields desde el middleware de auth.
func Access() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("duration", time.Since(start)),
		}

		l := FromCtx(c.Request.Context())
		if len(c.Errors) > 0 {
			l.Warn("request failed", append(fields, zap.String("errors", c.Errors.String()))...)
			return
		}
		l.Info("incoming request", fields...)
	}
}
