package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"grievance-portal/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, mode string, h gin.HandlerFunc) (*httptest.ResponseRecorder, APIResponse) {
	t.Helper()
	gin.SetMode(mode)
	t.Cleanup(func() { gin.SetMode(gin.TestMode) })

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	h(c)

	var body APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestFailMapsKind(t *testing.T) {
	w, body := run(t, gin.TestMode, func(c *gin.Context) {
		Fail(c, apperror.Forbidden("Not authorized to access this route"))
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "Not authorized to access this route", body.Message)
}

func TestFailHidesDetailInRelease(t *testing.T) {
	w, body := run(t, gin.ReleaseMode, func(c *gin.Context) {
		Fail(c, errors.New("pq: connection refused"))
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", body.Message)
	assert.Empty(t, body.Error)
}

func TestFailShowsDetailOutsideRelease(t *testing.T) {
	_, body := run(t, gin.DebugMode, func(c *gin.Context) {
		Fail(c, errors.New("pq: connection refused"))
	})

	assert.Equal(t, "pq: connection refused", body.Error)
}

func TestSuccess(t *testing.T) {
	w, body := run(t, gin.TestMode, func(c *gin.Context) {
		Success(c, http.StatusCreated, "Department created", gin.H{"name": "Health"})
	})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, map[string]interface{}{"name": "Health"}, body.Data)
}
