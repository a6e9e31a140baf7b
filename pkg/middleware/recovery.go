package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"grievance-portal/pkg/logger"
	"grievance-portal/pkg/response"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic into a 500 envelope. The stack is only included
// when exposeStack is set.
func Recovery(exposeStack bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				err := fmt.Errorf("panic: %v", rec)
				logger.Error(c.Request.Context(), "Recovered from panic", err)
				resp := response.APIResponse{
					Status:  "error",
					Message: "Internal server error",
				}
				if exposeStack {
					resp.Error = err.Error()
					resp.Stack = string(debug.Stack())
				}
				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()
		c.Next()
	}
}
