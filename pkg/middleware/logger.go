package middleware

import (
	"time"

	"grievance-portal/pkg/logger"

	"github.com/gin-gonic/gin"
)

func Logger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Request(GetTraceID(c), c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
