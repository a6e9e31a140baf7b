package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusOf(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", Validation("bad input"), http.StatusBadRequest},
		{"unauthorized", Unauthorized("no token"), http.StatusUnauthorized},
		{"forbidden", Forbidden("nope"), http.StatusForbidden},
		{"not found", NotFound("missing"), http.StatusNotFound},
		{"conflict", Conflict("exists"), http.StatusConflict},
		{"internal", Internal("boom", errors.New("db down")), http.StatusInternalServerError},
		{"plain error", errors.New("unexpected"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("context: %w", NotFound("missing")), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StatusOf(tc.err))
		})
	}
}

func TestSentinelMatchesAfterWrap(t *testing.T) {
	sentinel := NotFound("Grievance not found")
	err := fmt.Errorf("load: %w", sentinel.Wrap(errors.New("no documents")))

	assert.True(t, errors.Is(err, sentinel))
	assert.False(t, errors.Is(err, NotFound("User not found")))
}

func TestFromPlainErrorHidesCause(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := From(cause)

	require.NotNil(t, appErr)
	assert.Equal(t, KindInternal, appErr.Kind)
	assert.Equal(t, "Internal server error", appErr.Message)
	assert.ErrorIs(t, appErr, cause)
}
