package middleware

import (
	"grievance-portal/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const TraceHeader = "X-Trace-Id"

// Trace reuses an incoming X-Trace-Id or generates one, echoes it on the
// response and stores it on the request context for the logger.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceHeader)
		if traceID == "" {
			traceID = uuid.New().String()
		}
		c.Header(TraceHeader, traceID)
		c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		c.Next()
	}
}

func GetTraceID(c *gin.Context) string {
	return logger.TraceID(c.Request.Context())
}
