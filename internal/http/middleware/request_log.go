package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/notelab/notebook-backend/internal/pkg/logger"
)

func RequestLogger(baseLog *logger.Logger) gin.HandlerFunc {
	log := baseLog.With("middleware", "RequestLogger")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
