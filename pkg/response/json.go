package response

import (
	"net/http"

	"grievance-portal/pkg/apperror"

	"github.com/gin-gonic/gin"
)

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Stack   string      `json:"stack,omitempty"`
}

func Success(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, APIResponse{
		Status:  "success",
		Message: message,
		Data:    data,
	})
}

// Error writes an error envelope and aborts the chain. errDetail is dropped
// in release mode.
func Error(c *gin.Context, statusCode int, message string, errDetail string) {
	resp := APIResponse{
		Status:  "error",
		Message: message,
	}
	if gin.Mode() != gin.ReleaseMode {
		resp.Error = errDetail
	}
	c.AbortWithStatusJSON(statusCode, resp)
}

// Fail maps err onto the envelope using its apperror kind.
func Fail(c *gin.Context, err error) {
	appErr := apperror.From(err)
	detail := ""
	if appErr.Err != nil {
		detail = appErr.Err.Error()
	}
	_ = c.Error(err)
	Error(c, appErr.Kind.Status(), appErr.Message, detail)
}

// ValidationFailed reports a request body or query that could not be bound.
func ValidationFailed(c *gin.Context, err error) {
	Error(c, http.StatusBadRequest, "Invalid request payload", err.Error())
}
